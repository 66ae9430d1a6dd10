// Package host runs one plugin instance inside an engine. An Instance
// owns the plugin's runtime state: engine client and ports, parameter and
// program tables, the note and report queues, and the post-processing mix
// settings. The control side configures and queries it; ProcessSingle
// runs on the processing path and never blocks on control work.
package host

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/justyntemme/plughost/pkg/engine"
	"github.com/justyntemme/plughost/pkg/framework/debug"
	"github.com/justyntemme/plughost/pkg/framework/event"
	"github.com/justyntemme/plughost/pkg/framework/param"
	"github.com/justyntemme/plughost/pkg/framework/port"
	"github.com/justyntemme/plughost/pkg/framework/process"
	"github.com/justyntemme/plughost/pkg/framework/program"
	"github.com/justyntemme/plughost/pkg/framework/state"
	"github.com/justyntemme/plughost/pkg/osc"
	"github.com/justyntemme/plughost/pkg/plugin"
)

// ErrInstanceBusy means the processing path held a lock the operation
// needed exclusively. The caller should stop processing and retry.
var ErrInstanceBusy = errors.New("host: instance is processing")

// DefaultOptions forwards every event type and leaves buffer slicing and
// stereo forcing off.
const DefaultOptions = plugin.OptionSendControlChanges |
	plugin.OptionSendChannelPressure |
	plugin.OptionSendNoteAftertouch |
	plugin.OptionSendPitchbend |
	plugin.OptionSendAllSoundOff

// Settings configures instance construction. The zero value gets default
// pool sizes, default options and no libraries.
type Settings struct {
	NotePool   int
	ReportPool int
	Options    plugin.Options
	Library    plugin.Library
	UILibrary  plugin.Library
}

// atomicFloat32 is a float32 readable on the processing path while the
// control side stores new values.
type atomicFloat32 struct {
	bits atomic.Uint32
}

func (f *atomicFloat32) Store(v float32) { f.bits.Store(math.Float32bits(v)) }
func (f *atomicFloat32) Load() float32   { return math.Float32frombits(f.bits.Load()) }

// Instance is one hosted plugin.
type Instance struct {
	eng   engine.Engine
	id    uint32
	plug  plugin.Plugin
	proc  plugin.Processor
	lib   plugin.Library
	uiLib plugin.Library

	client   engine.Client
	notifier *osc.Notifier

	name       string
	filename   string
	iconName   string
	identifier string

	hints   plugin.Hints
	options plugin.Options
	extra   plugin.ExtraHints

	active         atomic.Bool
	enabled        atomic.Bool
	needsReset     atomic.Bool
	closed         atomic.Bool
	disabledWarned atomic.Bool

	ctrlChannel atomic.Int32

	dryWet   atomicFloat32
	volume   atomicFloat32
	balanceL atomicFloat32
	balanceR atomicFloat32
	panning  atomicFloat32

	// masterMu serializes exclusive control operations against processing;
	// singleMu serializes concurrent ProcessSingle calls. The processing
	// path only ever try-locks them.
	masterMu sync.Mutex
	singleMu sync.Mutex

	audioIn  port.AudioList
	audioOut port.AudioList
	cvIn     port.CVList
	events   port.EventPair

	forcedStereoIn  bool
	forcedStereoOut bool

	params       param.Table
	programs     program.List
	midiPrograms program.MIDIList

	customMu sync.Mutex
	custom   []state.CustomData

	extNotes *event.NoteQueue
	reports  *event.PostQueue

	latency        atomic.Uint32
	latencyBuffers [][]float32

	// Channel views handed to the plugin, rebound every block without
	// allocating. Their lengths are the plugin-side channel counts, which
	// differ from the port counts under forced stereo.
	inViews  [][]float32
	outViews [][]float32
	cvViews  [][]float32

	block *process.Block
}

// New creates an instance around a plugin: engine client, processor,
// queues and the report notifier. The instance starts disabled; Reload
// builds ports and tables and enables it.
func New(eng engine.Engine, id uint32, plug plugin.Plugin, s Settings) (*Instance, error) {
	desc := plug.Descriptor()
	if desc == nil {
		return nil, errors.New("host: plugin has no descriptor")
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	client, err := eng.NewClient(desc.Name)
	if err != nil {
		return nil, fmt.Errorf("host: register client: %w", err)
	}

	if s.Options == 0 {
		s.Options = DefaultOptions
	}
	if s.Library == nil {
		s.Library = plugin.NopLibrary{}
	}
	if s.UILibrary == nil {
		s.UILibrary = plugin.NopLibrary{}
	}

	i := &Instance{
		eng:        eng,
		id:         id,
		plug:       plug,
		lib:        s.Library,
		uiLib:      s.UILibrary,
		client:     client,
		name:       desc.Name,
		filename:   s.Library.Path(),
		iconName:   desc.Label,
		identifier: client.ID().String(),
		hints:      desc.Hints,
		options:    s.Options,
		extNotes:   event.NewNoteQueue(s.NotePool),
		reports:    event.NewPostQueue(s.ReportPool),
	}
	i.dryWet.Store(1.0)
	i.volume.Store(1.0)
	i.balanceL.Store(-1.0)
	i.balanceR.Store(1.0)
	i.panning.Store(0.0)

	i.block = process.NewBlock(eng.BufferSize())
	i.block.SampleRate = eng.SampleRate()
	i.block.Postpone = i.postponeRt

	i.proc = plug.CreateProcessor()
	if i.proc == nil {
		client.Close()
		return nil, fmt.Errorf("host: plugin %q created no processor", desc.Name)
	}
	if err := i.proc.Initialize(eng.SampleRate(), eng.BufferSize()); err != nil {
		client.Close()
		return nil, fmt.Errorf("host: initialize %q: %w", desc.Name, err)
	}

	i.notifier = osc.NewNotifier(eng, id, i.reports)
	if err := i.notifier.Start(); err != nil {
		client.Close()
		return nil, err
	}

	debug.Info("plugin %d %q created", id, desc.Name)
	return i, nil
}

// Reload rebuilds ports, parameters and programs from the plugin's
// descriptor and enables the instance. The instance must be inactive.
func (i *Instance) Reload() error {
	i.masterMu.Lock()
	defer i.masterMu.Unlock()

	if i.closed.Load() {
		return errors.New("host: instance is closed")
	}
	if i.active.Load() {
		return errors.New("host: reload while active")
	}

	// Processing cannot be inside ProcessSingle here: it try-locks
	// masterMu, which we hold.
	i.enabled.Store(false)

	i.clearBuffersLocked()
	i.params.Clear()
	i.programs.Clear()
	i.midiPrograms.Clear()

	desc := i.plug.Descriptor()
	if err := i.buildPortsLocked(desc); err != nil {
		i.clearBuffersLocked()
		return err
	}
	i.buildParametersLocked(desc)
	i.buildProgramsLocked(desc)

	i.inViews = make([][]float32, desc.AudioIns)
	i.outViews = make([][]float32, desc.AudioOuts)
	i.cvViews = make([][]float32, desc.CVIns)

	lat := i.proc.Latency()
	i.latency.Store(lat)
	i.client.SetLatency(lat)
	i.recreateLatencyBuffersLocked()

	i.extra = 0
	if i.events.In != nil {
		i.extra |= plugin.ExtraHintHasMidiIn
	}
	if i.events.Out != nil {
		i.extra |= plugin.ExtraHintHasMidiOut
	}
	aIns, aOuts := i.audioIn.Count(), i.audioOut.Count()
	if aIns <= 2 && aOuts > 0 && aOuts <= 2 && (aIns == aOuts || aIns == 0) {
		i.extra |= plugin.ExtraHintCanRunRack
	}

	i.disabledWarned.Store(false)
	i.enabled.Store(true)
	i.eng.Callback(engine.ActionReloadAll, i.id, 0, 0, 0, "")
	debug.Info("plugin %d %q reloaded: %d audio in, %d audio out, %d params",
		i.id, i.name, aIns, aOuts, i.params.Count())
	return nil
}

func (i *Instance) buildPortsLocked(desc *plugin.Descriptor) error {
	aIns, aOuts := desc.AudioIns, desc.AudioOuts
	i.forcedStereoIn = false
	i.forcedStereoOut = false
	if i.options&plugin.OptionForceStereo != 0 {
		if aIns == 1 {
			aIns = 2
			i.forcedStereoIn = true
		}
		if aOuts == 1 {
			aOuts = 2
			i.forcedStereoOut = true
		}
	}

	if aIns > 0 {
		i.audioIn.Create(aIns)
		for j := uint32(0); j < aIns; j++ {
			p, err := i.client.AddAudioPort(audioPortName("input", j, aIns), true)
			if err != nil {
				return fmt.Errorf("host: audio input %d: %w", j, err)
			}
			rindex := j
			if i.forcedStereoIn {
				rindex = 0
			}
			i.audioIn.Set(j, p, rindex)
		}
	}
	if aOuts > 0 {
		i.audioOut.Create(aOuts)
		for j := uint32(0); j < aOuts; j++ {
			p, err := i.client.AddAudioPort(audioPortName("output", j, aOuts), false)
			if err != nil {
				return fmt.Errorf("host: audio output %d: %w", j, err)
			}
			rindex := j
			if i.forcedStereoOut {
				rindex = 0
			}
			i.audioOut.Set(j, p, rindex)
		}
	}
	if desc.CVIns > 0 {
		i.cvIn.Create(desc.CVIns)
		for j := uint32(0); j < desc.CVIns; j++ {
			p, err := i.client.AddCVPort(fmt.Sprintf("cv_input_%d", j+1), true)
			if err != nil {
				return fmt.Errorf("host: cv input %d: %w", j, err)
			}
			i.cvIn.Set(j, p, j, -1)
		}
	}
	if desc.WantsEvents() {
		p, err := i.client.AddEventPort("events-in", true)
		if err != nil {
			return fmt.Errorf("host: event input: %w", err)
		}
		i.events.In = p
	}
	if desc.MidiOut {
		p, err := i.client.AddEventPort("events-out", false)
		if err != nil {
			return fmt.Errorf("host: event output: %w", err)
		}
		i.events.Out = p
	}
	return nil
}

func audioPortName(base string, index, count uint32) string {
	if count == 1 {
		return base
	}
	return fmt.Sprintf("%s_%d", base, index+1)
}

func (i *Instance) buildParametersLocked(desc *plugin.Descriptor) {
	count := uint32(len(desc.Parameters))
	if count == 0 {
		return
	}
	withSpecial := false
	for j := range desc.Parameters {
		if desc.Parameters[j].Special != param.SpecialNone {
			withSpecial = true
			break
		}
	}

	i.params.Create(count, withSpecial)
	for j := uint32(0); j < count; j++ {
		info := &desc.Parameters[j]

		d := i.params.DataAt(j)
		*d = info.Data
		d.Index = int32(j)
		if info.Data.RIndex <= 0 {
			d.RIndex = int32(j)
		}
		// CC 0 is bank select and never a sane mapping; descriptors that
		// leave the field zero mean no mapping.
		if d.MidiCC == 0 {
			d.MidiCC = param.MidiCCNone
		}

		r := i.params.RangesAt(j)
		*r = info.Ranges
		r.Fix()

		if withSpecial && info.Special != param.SpecialNone {
			i.params.SetSpecial(j, info.Special)
		}
	}
}

func (i *Instance) buildProgramsLocked(desc *plugin.Descriptor) {
	if n := uint32(len(desc.Programs)); n > 0 {
		i.programs.Create(n)
		for j := uint32(0); j < n; j++ {
			i.programs.SetName(j, desc.Programs[j])
		}
	}
	if n := uint32(len(desc.MidiPrograms)); n > 0 {
		i.midiPrograms.Create(n)
		for j := uint32(0); j < n; j++ {
			*i.midiPrograms.At(j) = desc.MidiPrograms[j]
		}
	}
}

func (i *Instance) clearBuffersLocked() {
	i.audioIn.Clear()
	i.audioOut.Clear()
	i.cvIn.Clear()
	i.events.Clear()
	i.latencyBuffers = nil
}

func (i *Instance) recreateLatencyBuffersLocked() {
	lat := i.latency.Load()
	ains := i.audioIn.Count()
	if lat == 0 || ains == 0 {
		i.latencyBuffers = nil
		return
	}
	i.latencyBuffers = make([][]float32, ains)
	for c := range i.latencyBuffers {
		i.latencyBuffers[c] = make([]float32, lat)
	}
}

// Activate starts processing: the processor first, then the engine client.
func (i *Instance) Activate() error {
	i.masterMu.Lock()
	defer i.masterMu.Unlock()

	if !i.enabled.Load() {
		return fmt.Errorf("host: plugin %d is not loaded", i.id)
	}
	if i.active.Load() {
		return fmt.Errorf("host: plugin %d already active", i.id)
	}

	if err := i.proc.SetActive(true); err != nil {
		return fmt.Errorf("host: activate %q: %w", i.name, err)
	}
	if err := i.client.Activate(); err != nil {
		debug.CheckErr(i.proc.SetActive(false), "deactivate after failed client activate")
		return err
	}
	i.active.Store(true)
	debug.Info("plugin %d %q active", i.id, i.name)
	return nil
}

// Deactivate stops processing: the engine client first, then the
// processor.
func (i *Instance) Deactivate() error {
	i.masterMu.Lock()
	defer i.masterMu.Unlock()

	if !i.active.Load() {
		return fmt.Errorf("host: plugin %d not active", i.id)
	}

	if err := i.client.Deactivate(); err != nil {
		return err
	}
	i.active.Store(false)
	if err := i.proc.SetActive(false); err != nil {
		return fmt.Errorf("host: deactivate %q: %w", i.name, err)
	}
	debug.Info("plugin %d %q inactive", i.id, i.name)
	return nil
}

// SetActive switches the instance on or off, optionally reporting the
// change as an internal parameter move.
func (i *Instance) SetActive(active, sendCallback bool) error {
	var err error
	if active {
		err = i.Activate()
	} else {
		err = i.Deactivate()
	}
	if err == nil && sendCallback {
		v := float32(0)
		if active {
			v = 1
		}
		i.eng.Callback(engine.ActionParameterValueChanged, i.id, param.IndexActive, 0, v, "")
	}
	return err
}

// Close tears the instance down. It proves the processing path is out by
// taking both locks without waiting, holds them through teardown, and
// releases them at the end. A busy instance is left open and reported so
// the caller can stop processing and retry.
func (i *Instance) Close() error {
	if !i.closed.CompareAndSwap(false, true) {
		return nil
	}

	debug.Check(!i.needsReset.Load(), "no reset pending at close")

	if !i.masterMu.TryLock() {
		i.closed.Store(false)
		return ErrInstanceBusy
	}
	if !i.singleMu.TryLock() {
		i.masterMu.Unlock()
		i.closed.Store(false)
		return ErrInstanceBusy
	}

	i.enabled.Store(false)
	i.notifier.Stop()

	// Callers should deactivate first; recover when they have not.
	if i.client.IsActive() {
		debug.Check(false, "instance inactive before close")
		debug.CheckErr(i.client.Deactivate(), "deactivate client at close")
		i.active.Store(false)
		debug.CheckErr(i.proc.SetActive(false), "deactivate processor at close")
	}

	i.extNotes.Clear()
	i.reports.Clear()
	i.clearBuffersLocked()
	i.params.Clear()
	i.programs.Clear()
	i.midiPrograms.Clear()
	i.customMu.Lock()
	i.custom = nil
	i.customMu.Unlock()

	err := i.client.Close()
	debug.CheckErr(err, "close engine client")

	i.singleMu.Unlock()
	i.masterMu.Unlock()

	debug.CheckErr(i.uiLib.Close(), "close ui library")
	debug.CheckErr(i.lib.Close(), "close plugin library")
	debug.Info("plugin %d %q closed", i.id, i.name)
	return err
}

// postponeRt queues a report from the processing path. Drops are counted
// inside the queue and logged by the notifier.
func (i *Instance) postponeRt(e event.PostEvent) bool {
	return i.reports.AppendRT(e)
}
