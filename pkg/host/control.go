package host

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/justyntemme/plughost/pkg/engine"
	"github.com/justyntemme/plughost/pkg/framework/debug"
	"github.com/justyntemme/plughost/pkg/framework/event"
	"github.com/justyntemme/plughost/pkg/framework/param"
	"github.com/justyntemme/plughost/pkg/framework/program"
	"github.com/justyntemme/plughost/pkg/framework/state"
	"github.com/justyntemme/plughost/pkg/midi"
	"github.com/justyntemme/plughost/pkg/osc"
	"github.com/justyntemme/plughost/pkg/plugin"
)

func clamp(v, min, max float32) float32 {
	if v <= min {
		return min
	}
	if v >= max {
		return max
	}
	return v
}

// SetDryWet sets the processed/unprocessed mix, 0 (all dry) to 1 (all
// wet). Values outside the range are clamped and reported.
func (i *Instance) SetDryWet(value float32, sendCallback bool) {
	debug.Checkf(value >= 0 && value <= 1, "dry/wet %v in range", value)
	fixed := clamp(value, 0, 1)
	if i.dryWet.Load() == fixed {
		return
	}
	i.dryWet.Store(fixed)
	if sendCallback {
		i.eng.Callback(engine.ActionParameterValueChanged, i.id, param.IndexDryWet, 0, fixed, "")
	}
}

// SetVolume sets the output gain, 0 to 1.27. The headroom above 1 matches
// the controller mapping, which divides CC values by 100.
func (i *Instance) SetVolume(value float32, sendCallback bool) {
	debug.Checkf(value >= 0 && value <= 1.27, "volume %v in range", value)
	fixed := clamp(value, 0, 1.27)
	if i.volume.Load() == fixed {
		return
	}
	i.volume.Store(fixed)
	if sendCallback {
		i.eng.Callback(engine.ActionParameterValueChanged, i.id, param.IndexVolume, 0, fixed, "")
	}
}

// SetBalanceLeft positions the left channel, -1 (hard left) to 1 (hard
// right).
func (i *Instance) SetBalanceLeft(value float32, sendCallback bool) {
	debug.Checkf(value >= -1 && value <= 1, "balance left %v in range", value)
	fixed := clamp(value, -1, 1)
	if i.balanceL.Load() == fixed {
		return
	}
	i.balanceL.Store(fixed)
	if sendCallback {
		i.eng.Callback(engine.ActionParameterValueChanged, i.id, param.IndexBalanceLeft, 0, fixed, "")
	}
}

// SetBalanceRight positions the right channel, -1 (hard left) to 1 (hard
// right).
func (i *Instance) SetBalanceRight(value float32, sendCallback bool) {
	debug.Checkf(value >= -1 && value <= 1, "balance right %v in range", value)
	fixed := clamp(value, -1, 1)
	if i.balanceR.Load() == fixed {
		return
	}
	i.balanceR.Store(fixed)
	if sendCallback {
		i.eng.Callback(engine.ActionParameterValueChanged, i.id, param.IndexBalanceRight, 0, fixed, "")
	}
}

// SetPanning stores the mono pan position, -1 to 1. The value is kept and
// reported for hosts that place the plugin themselves; the processing path
// does not apply it.
func (i *Instance) SetPanning(value float32, sendCallback bool) {
	debug.Checkf(value >= -1 && value <= 1, "panning %v in range", value)
	fixed := clamp(value, -1, 1)
	if i.panning.Load() == fixed {
		return
	}
	i.panning.Store(fixed)
	if sendCallback {
		i.eng.Callback(engine.ActionParameterValueChanged, i.id, param.IndexPanning, 0, fixed, "")
	}
}

// SetCtrlChannel selects the MIDI channel the instance listens to for
// control changes, 0-15, or -1 for none.
func (i *Instance) SetCtrlChannel(channel int8, sendCallback bool) {
	debug.Checkf(channel >= -1 && channel < 16, "control channel %d in range", channel)
	if channel < -1 {
		channel = -1
	} else if channel > 15 {
		channel = 15
	}
	if int8(i.ctrlChannel.Load()) == channel {
		return
	}
	i.ctrlChannel.Store(int32(channel))
	if sendCallback {
		i.eng.Callback(engine.ActionParameterValueChanged, i.id, param.IndexCtrlChannel, 0, float32(channel), "")
	}
}

// SetParameterValue sets one plugin parameter, clamped to its range, and
// returns the applied value.
func (i *Instance) SetParameterValue(index uint32, value float32, sendCallback bool) float32 {
	if !debug.Checkf(index < i.params.Count(), "parameter %d exists", index) {
		return value
	}
	fixed := i.params.FixedValue(index, value)
	i.proc.SetParameterValue(index, fixed)
	if i.params.SpecialAt(index) == param.SpecialLatency {
		i.RefreshLatency()
	}
	if sendCallback {
		i.eng.Callback(engine.ActionParameterValueChanged, i.id, int32(index), 0, fixed, "")
	}
	return fixed
}

// RefreshLatency re-reads the processor's latency and, when it changed,
// reports it to the engine client and resizes the history buffers. The
// host calls it itself when a latency parameter moves; applications call
// it after changes the host cannot see, such as a plugin-side reload.
func (i *Instance) RefreshLatency() uint32 {
	i.masterMu.Lock()
	defer i.masterMu.Unlock()

	lat := i.proc.Latency()
	if lat == i.latency.Load() {
		return lat
	}
	i.latency.Store(lat)
	i.client.SetLatency(lat)
	i.recreateLatencyBuffersLocked()
	debug.Debug("plugin %d latency now %d frames", i.id, lat)
	return lat
}

// SetParameterValueByRIndex sets a parameter addressed by its plugin-side
// index. Negative indices address the instance's own controls.
func (i *Instance) SetParameterValueByRIndex(rindex int32, value float32, sendCallback bool) float32 {
	switch rindex {
	case param.IndexNull:
		return value
	case param.IndexActive:
		debug.CheckErr(i.SetActive(value > 0.5, sendCallback), "set active by index")
		return value
	case param.IndexDryWet:
		i.SetDryWet(value, sendCallback)
		return i.dryWet.Load()
	case param.IndexVolume:
		i.SetVolume(value, sendCallback)
		return i.volume.Load()
	case param.IndexBalanceLeft:
		i.SetBalanceLeft(value, sendCallback)
		return i.balanceL.Load()
	case param.IndexBalanceRight:
		i.SetBalanceRight(value, sendCallback)
		return i.balanceR.Load()
	case param.IndexPanning:
		i.SetPanning(value, sendCallback)
		return i.panning.Load()
	case param.IndexCtrlChannel:
		i.SetCtrlChannel(int8(clamp(value, -1, 15)), sendCallback)
		return float32(i.ctrlChannel.Load())
	}

	for j := uint32(0); j < i.params.Count(); j++ {
		if i.params.DataAt(j).RIndex == rindex {
			return i.SetParameterValue(j, value, sendCallback)
		}
	}
	debug.Checkf(false, "parameter rindex %d exists", rindex)
	return value
}

// InternalParameterValue reads a value by plugin-side index, including the
// instance's own negative-indexed controls.
func (i *Instance) InternalParameterValue(rindex int32) float32 {
	switch rindex {
	case param.IndexNull:
		return 0
	case param.IndexActive:
		if i.active.Load() {
			return 1
		}
		return 0
	case param.IndexDryWet:
		return i.dryWet.Load()
	case param.IndexVolume:
		return i.volume.Load()
	case param.IndexBalanceLeft:
		return i.balanceL.Load()
	case param.IndexBalanceRight:
		return i.balanceR.Load()
	case param.IndexPanning:
		return i.panning.Load()
	case param.IndexCtrlChannel:
		return float32(i.ctrlChannel.Load())
	}
	if !debug.Checkf(rindex >= 0, "internal index %d known", rindex) {
		return 0
	}
	for j := uint32(0); j < i.params.Count(); j++ {
		if i.params.DataAt(j).RIndex == rindex {
			return i.proc.ParameterValue(j)
		}
	}
	return 0
}

// SetProgram selects a plugin program, or -1 for none.
func (i *Instance) SetProgram(index int32, sendCallback bool) error {
	if index < -1 || index >= int32(i.programs.Count()) {
		return fmt.Errorf("host: program %d out of range", index)
	}
	i.programs.SetCurrent(index)
	i.proc.SetProgram(index)
	if sendCallback {
		i.eng.Callback(engine.ActionProgramChanged, i.id, index, 0, 0, "")
	}
	return nil
}

// SetMidiProgram selects a MIDI program by list position, or -1 for none.
func (i *Instance) SetMidiProgram(index int32, sendCallback bool) error {
	if index < -1 || index >= int32(i.midiPrograms.Count()) {
		return fmt.Errorf("host: midi program %d out of range", index)
	}
	i.midiPrograms.SetCurrent(index)
	if index >= 0 {
		entry := i.midiPrograms.At(uint32(index))
		i.proc.SetMidiProgram(entry.Bank, entry.Program)
	}
	if sendCallback {
		i.eng.Callback(engine.ActionMidiProgramChanged, i.id, index, 0, 0, "")
	}
	return nil
}

// SetMidiProgramByBank selects the MIDI program matching a bank and
// program pair.
func (i *Instance) SetMidiProgramByBank(bank, prog uint32, sendCallback bool) error {
	index := i.midiPrograms.Find(bank, prog)
	if index < 0 {
		return fmt.Errorf("host: no midi program for bank %d program %d", bank, prog)
	}
	return i.SetMidiProgram(index, sendCallback)
}

// SetCustomData stores a typed key/value pair, replacing any entry with
// the same type and key. Plugins use it for settings that live outside the
// parameter list.
func (i *Instance) SetCustomData(dtype, key, value string) error {
	cd := state.CustomData{Type: dtype, Key: key, Value: value}
	if !cd.Valid() {
		return fmt.Errorf("host: custom data needs a type and a key")
	}
	i.customMu.Lock()
	defer i.customMu.Unlock()
	for j := range i.custom {
		if i.custom[j].Type == dtype && i.custom[j].Key == key {
			i.custom[j].Value = value
			return nil
		}
	}
	i.custom = append(i.custom, cd)
	return nil
}

// CustomData looks up a stored value by type and key.
func (i *Instance) CustomData(dtype, key string) (string, bool) {
	i.customMu.Lock()
	defer i.customMu.Unlock()
	for j := range i.custom {
		if i.custom[j].Type == dtype && i.custom[j].Key == key {
			return i.custom[j].Value, true
		}
	}
	return "", false
}

// CustomDataCount returns the number of stored entries.
func (i *Instance) CustomDataCount() int {
	i.customMu.Lock()
	defer i.customMu.Unlock()
	return len(i.custom)
}

// CustomDataAt returns a copy of the entry at index.
func (i *Instance) CustomDataAt(index int) (state.CustomData, bool) {
	i.customMu.Lock()
	defer i.customMu.Unlock()
	if index < 0 || index >= len(i.custom) {
		return state.CustomData{}, false
	}
	return i.custom[index], true
}

// InjectNote queues a note for the next processing block. Velocity 0 is a
// note-off. The call may briefly wait for the queue but never blocks
// processing; a full queue drops the note.
func (i *Instance) InjectNote(channel, note, velocity uint8, sendCallback bool) bool {
	n := event.ExternalNote{Channel: int8(channel), Note: note, Velo: velocity}
	if !debug.Checkf(n.Valid(), "note ch=%d n=%d valid", channel, note) {
		return false
	}
	if !i.extNotes.Append(n) {
		debug.Warn("plugin %d dropped injected note %d (queue full)", i.id, note)
		return false
	}
	if sendCallback {
		action := engine.ActionNoteOn
		if velocity == 0 {
			action = engine.ActionNoteOff
		}
		i.eng.Callback(action, i.id, int32(channel), int32(note), float32(velocity), "")
	}
	return true
}

// InjectMessage queues a wire-format MIDI message. Only note messages are
// carried; everything else reports false.
func (i *Instance) InjectMessage(msg gomidi.Message) bool {
	return i.extNotes.AppendMessage(msg)
}

// SetNeedsReset asks the processing path to flush latency buffers and
// release hanging notes at the start of its next block.
func (i *Instance) SetNeedsReset() {
	i.needsReset.Store(true)
}

// ID returns the engine-assigned plugin ID.
func (i *Instance) ID() uint32 { return i.id }

// Name returns the instance name shown to the user.
func (i *Instance) Name() string { return i.name }

// Filename returns the path of the library the plugin was loaded from, or
// an empty string for built-ins.
func (i *Instance) Filename() string { return i.filename }

// IconName returns the icon hint for UIs.
func (i *Instance) IconName() string { return i.iconName }

// Identifier returns the stable ID used to match saved settings to this
// instance.
func (i *Instance) Identifier() string { return i.identifier }

// Hints returns the plugin's capability flags.
func (i *Instance) Hints() plugin.Hints { return i.hints }

// ExtraHints returns flags derived from the port layout.
func (i *Instance) ExtraHints() plugin.ExtraHints { return i.extra }

// Options returns the negotiated behavior flags.
func (i *Instance) Options() plugin.Options { return i.options }

// IsActive reports whether the instance is processing.
func (i *Instance) IsActive() bool { return i.active.Load() }

// IsEnabled reports whether the instance has been loaded and not torn
// down.
func (i *Instance) IsEnabled() bool { return i.enabled.Load() }

// Latency returns the plugin's current latency in frames.
func (i *Instance) Latency() uint32 { return i.latency.Load() }

// CtrlChannel returns the control channel, or -1 for none.
func (i *Instance) CtrlChannel() int8 { return int8(i.ctrlChannel.Load()) }

// DryWet returns the processed/unprocessed mix.
func (i *Instance) DryWet() float32 { return i.dryWet.Load() }

// Volume returns the output gain.
func (i *Instance) Volume() float32 { return i.volume.Load() }

// BalanceLeft returns the left channel position.
func (i *Instance) BalanceLeft() float32 { return i.balanceL.Load() }

// BalanceRight returns the right channel position.
func (i *Instance) BalanceRight() float32 { return i.balanceR.Load() }

// Panning returns the stored pan position.
func (i *Instance) Panning() float32 { return i.panning.Load() }

// AudioInCount returns the number of audio input ports.
func (i *Instance) AudioInCount() uint32 { return i.audioIn.Count() }

// AudioOutCount returns the number of audio output ports.
func (i *Instance) AudioOutCount() uint32 { return i.audioOut.Count() }

// CVInCount returns the number of CV input ports.
func (i *Instance) CVInCount() uint32 { return i.cvIn.Count() }

// ParameterCount returns the number of exposed parameters.
func (i *Instance) ParameterCount() uint32 { return i.params.Count() }

// ParameterValue reads one parameter from the processor.
func (i *Instance) ParameterValue(index uint32) float32 {
	if !debug.Checkf(index < i.params.Count(), "parameter %d exists", index) {
		return 0
	}
	return i.proc.ParameterValue(index)
}

// ParameterData returns the descriptor of one parameter. Callers must
// treat it as read-only.
func (i *Instance) ParameterData(index uint32) *param.Data { return i.params.DataAt(index) }

// ParameterRanges returns the range of one parameter. Callers must treat
// it as read-only.
func (i *Instance) ParameterRanges(index uint32) *param.Ranges { return i.params.RangesAt(index) }

// ProgramCount returns the number of plugin programs.
func (i *Instance) ProgramCount() uint32 { return i.programs.Count() }

// CurrentProgram returns the selected program, or -1.
func (i *Instance) CurrentProgram() int32 { return i.programs.Current() }

// ProgramName returns the name of one program.
func (i *Instance) ProgramName(index uint32) (string, bool) { return i.programs.Name(index) }

// MidiProgramCount returns the number of MIDI programs.
func (i *Instance) MidiProgramCount() uint32 { return i.midiPrograms.Count() }

// CurrentMidiProgram returns the selected MIDI program, or -1.
func (i *Instance) CurrentMidiProgram() int32 { return i.midiPrograms.Current() }

// MidiProgramAt returns a copy of one MIDI program entry.
func (i *Instance) MidiProgramAt(index uint32) (program.MIDIProgram, bool) {
	if p := i.midiPrograms.At(index); p != nil {
		return *p, true
	}
	return program.MIDIProgram{}, false
}

// MidiOutEvents returns the event output queue, or nil when the plugin has
// no event output. The engine side reads it after each block.
func (i *Instance) MidiOutEvents() *midi.EventQueue {
	if i.events.Out == nil {
		return nil
	}
	return i.events.Out.Events()
}

// Notifier returns the report notifier for OSC target control.
func (i *Instance) Notifier() *osc.Notifier { return i.notifier }
