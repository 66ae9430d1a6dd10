package host

import (
	"errors"
	"fmt"
	"io"

	"github.com/justyntemme/plughost/pkg/framework/debug"
	"github.com/justyntemme/plughost/pkg/framework/param"
	"github.com/justyntemme/plughost/pkg/framework/state"
	"github.com/justyntemme/plughost/pkg/plugin"
)

// Snapshot captures everything needed to restore the instance later:
// identity, mix settings, program selection, parameter values and
// mappings, custom data, and the chunk for plugins that keep opaque
// state. Processing skips blocks while the snapshot is taken.
func (i *Instance) Snapshot() (*state.Snapshot, error) {
	i.masterMu.Lock()
	defer i.masterMu.Unlock()

	if i.closed.Load() {
		return nil, errors.New("host: instance is closed")
	}

	desc := i.plug.Descriptor()
	s := state.NewSnapshot()
	s.Name = i.name
	s.Label = desc.Label
	s.Binary = i.filename
	s.Identifier = i.identifier
	s.UniqueID = desc.UniqueID

	s.Active = i.active.Load()
	s.DryWet = i.dryWet.Load()
	s.Volume = i.volume.Load()
	s.BalanceLeft = i.balanceL.Load()
	s.BalanceRight = i.balanceR.Load()
	s.Panning = i.panning.Load()
	s.CtrlChannel = int8(i.ctrlChannel.Load())
	s.Options = uint32(i.options)

	s.CurrentProgramIndex = i.programs.Current()
	if name, ok := i.programs.CurrentName(); ok {
		s.CurrentProgramName = name
	}
	if cur := i.midiPrograms.Current(); cur >= 0 {
		if p := i.midiPrograms.At(uint32(cur)); p != nil {
			s.CurrentMidiBank = int32(p.Bank)
			s.CurrentMidiProgram = int32(p.Program)
		}
	}

	for j := uint32(0); j < i.params.Count(); j++ {
		d := i.params.DataAt(j)
		s.Parameters = append(s.Parameters, state.Parameter{
			Index:       d.Index,
			Name:        d.Name,
			Symbol:      d.Symbol,
			Value:       i.proc.ParameterValue(j),
			MidiChannel: d.MidiChannel,
			MidiCC:      d.MidiCC,
		})
	}

	i.customMu.Lock()
	s.CustomData = append(s.CustomData, i.custom...)
	i.customMu.Unlock()

	if i.options&plugin.OptionUseChunks != 0 {
		if cp, ok := i.proc.(plugin.ChunkProvider); ok {
			chunk, err := cp.Chunk()
			if err != nil {
				debug.Warn("plugin %d chunk not saved: %v", i.id, err)
			} else {
				s.Chunk = chunk
			}
		}
	}

	return s, nil
}

// Apply restores a snapshot onto the instance: custom data first, then
// program selections, parameter values and mappings, the chunk, and the
// mix settings; activation state last. Saved parameters are matched by
// symbol where one exists, by index otherwise; entries that no longer
// match anything are reported and skipped.
func (i *Instance) Apply(s *state.Snapshot) error {
	if s == nil {
		return errors.New("host: nil snapshot")
	}

	i.masterMu.Lock()

	if i.closed.Load() {
		i.masterMu.Unlock()
		return errors.New("host: instance is closed")
	}

	// Force-stereo changes the port layout and cannot be applied to a
	// built instance; every other option flag follows the snapshot.
	if s.Options != 0 {
		keep := i.options & plugin.OptionForceStereo
		i.options = (plugin.Options(s.Options) &^ plugin.OptionForceStereo) | keep
	}

	i.customMu.Lock()
	for _, cd := range s.CustomData {
		if !cd.Valid() {
			continue
		}
		i.applyCustomDataLocked(cd)
	}
	i.customMu.Unlock()

	i.applyProgramLocked(s)
	i.applyMidiProgramLocked(s)
	i.applyParametersLocked(s)

	if len(s.Chunk) > 0 && i.options&plugin.OptionUseChunks != 0 {
		if cp, ok := i.proc.(plugin.ChunkProvider); ok {
			if err := cp.SetChunk(s.Chunk); err != nil {
				debug.Warn("plugin %d chunk not restored: %v", i.id, err)
			}
		} else {
			debug.Warn("plugin %d has a saved chunk but takes none", i.id)
		}
	}

	i.SetDryWet(s.DryWet, true)
	i.SetVolume(s.Volume, true)
	i.SetBalanceLeft(s.BalanceLeft, true)
	i.SetBalanceRight(s.BalanceRight, true)
	i.SetPanning(s.Panning, true)
	i.SetCtrlChannel(s.CtrlChannel, true)

	i.masterMu.Unlock()

	// Restored values may have moved the plugin's declared latency.
	i.RefreshLatency()

	if s.Active != i.active.Load() {
		return i.SetActive(s.Active, true)
	}
	return nil
}

func (i *Instance) applyCustomDataLocked(cd state.CustomData) {
	for j := range i.custom {
		if i.custom[j].Type == cd.Type && i.custom[j].Key == cd.Key {
			i.custom[j].Value = cd.Value
			return
		}
	}
	i.custom = append(i.custom, cd)
}

func (i *Instance) applyProgramLocked(s *state.Snapshot) {
	index := s.CurrentProgramIndex
	if index < 0 || i.programs.Count() == 0 {
		return
	}
	if index >= int32(i.programs.Count()) {
		debug.Warn("plugin %d saved program %d out of range", i.id, index)
		return
	}
	// Program lists shift between versions; trust the name over the index
	// when they disagree.
	if s.CurrentProgramName != "" {
		if name, ok := i.programs.Name(uint32(index)); ok && name != s.CurrentProgramName {
			found := int32(-1)
			for j := uint32(0); j < i.programs.Count(); j++ {
				if n, ok := i.programs.Name(j); ok && n == s.CurrentProgramName {
					found = int32(j)
					break
				}
			}
			if found >= 0 {
				index = found
			} else {
				debug.Warn("plugin %d program %q not found, using index %d",
					i.id, s.CurrentProgramName, index)
			}
		}
	}
	i.programs.SetCurrent(index)
	i.proc.SetProgram(index)
}

func (i *Instance) applyMidiProgramLocked(s *state.Snapshot) {
	if s.CurrentMidiBank < 0 || s.CurrentMidiProgram < 0 {
		return
	}
	index := i.midiPrograms.Find(uint32(s.CurrentMidiBank), uint32(s.CurrentMidiProgram))
	if index < 0 {
		debug.Warn("plugin %d saved midi program %d:%d not found",
			i.id, s.CurrentMidiBank, s.CurrentMidiProgram)
		return
	}
	i.midiPrograms.SetCurrent(index)
	if p := i.midiPrograms.At(uint32(index)); p != nil {
		i.proc.SetMidiProgram(p.Bank, p.Program)
	}
}

func (i *Instance) applyParametersLocked(s *state.Snapshot) {
	for k := range s.Parameters {
		sp := &s.Parameters[k]
		index := i.findParameterLocked(sp)
		if index < 0 {
			debug.Warn("plugin %d saved parameter %q (index %d) not found",
				i.id, sp.Name, sp.Index)
			continue
		}
		j := uint32(index)
		i.proc.SetParameterValue(j, i.params.FixedValue(j, sp.Value))

		d := i.params.DataAt(j)
		d.MidiChannel = sp.MidiChannel
		if sp.MidiCC == 0 {
			d.MidiCC = param.MidiCCNone
		} else {
			d.MidiCC = sp.MidiCC
		}
	}
}

func (i *Instance) findParameterLocked(sp *state.Parameter) int32 {
	if sp.Symbol != "" {
		for j := uint32(0); j < i.params.Count(); j++ {
			if i.params.DataAt(j).Symbol == sp.Symbol {
				return int32(j)
			}
		}
	}
	if sp.Index >= 0 && sp.Index < int32(i.params.Count()) {
		return sp.Index
	}
	return -1
}

// SaveState writes the instance's state record to w.
func (i *Instance) SaveState(w io.Writer) error {
	s, err := i.Snapshot()
	if err != nil {
		return err
	}
	return state.Write(w, s)
}

// LoadState reads a state record from r and applies it. A record whose
// checksum does not match is applied anyway after a warning; the check
// guards against silent corruption, not against use.
func (i *Instance) LoadState(r io.Reader) error {
	s, err := state.Read(r)
	if err != nil {
		if !errors.Is(err, state.ErrChecksumMismatch) || s == nil {
			return fmt.Errorf("host: load state: %w", err)
		}
		debug.Warn("plugin %d state checksum mismatch, loading anyway", i.id)
	}
	return i.Apply(s)
}
