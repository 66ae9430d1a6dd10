package plugin

import (
	"fmt"

	"github.com/justyntemme/plughost/pkg/framework/param"
	"github.com/justyntemme/plughost/pkg/framework/program"
)

// ParameterInfo is one parameter as the plugin publishes it: descriptor,
// value range and the role it plays for the host, if any.
type ParameterInfo struct {
	Data    param.Data
	Ranges  param.Ranges
	Special param.Special
}

// Descriptor is the static description of a plugin: identity, port
// layout, parameters and programs. The host consumes it when building an
// instance and never writes to it.
type Descriptor struct {
	Name      string
	Label     string
	Maker     string
	Copyright string
	UniqueID  int64
	Hints     Hints

	AudioIns  uint32
	AudioOuts uint32
	CVIns     uint32
	CVOuts    uint32
	MidiIn    bool
	MidiOut   bool

	Parameters   []ParameterInfo
	Programs     []string
	MidiPrograms []program.MIDIProgram
}

// Validate reports the first problem that would keep the host from
// building an instance around this descriptor.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("plugin: descriptor needs a name")
	}
	if d.Hints&HintIsSynth != 0 && d.AudioOuts == 0 {
		return fmt.Errorf("plugin: synth %q has no audio outputs", d.Name)
	}
	for i := range d.Parameters {
		r := d.Parameters[i].Ranges
		if r.Min > r.Max {
			return fmt.Errorf("plugin: parameter %d of %q has an inverted range", i, d.Name)
		}
	}
	return nil
}

// WantsEvents reports whether the instance needs an event input, either
// declared or implied by being a synth.
func (d *Descriptor) WantsEvents() bool {
	return d.MidiIn || d.Hints&HintIsSynth != 0
}
