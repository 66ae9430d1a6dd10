package host

import (
	"testing"

	"github.com/justyntemme/plughost/pkg/engine"
	"github.com/justyntemme/plughost/pkg/framework/param"
	"github.com/justyntemme/plughost/pkg/midi"
	"github.com/justyntemme/plughost/pkg/plugin"
)

// latencyProcessor mirrors its first parameter into the latency it
// declares, the way pitch shifters and lookahead limiters do.
type latencyProcessor struct {
	testProcessor
}

func (p *latencyProcessor) SetParameterValue(index uint32, value float32) {
	p.testProcessor.SetParameterValue(index, value)
	p.mu.Lock()
	p.latency = uint32(value)
	p.mu.Unlock()
}

func (p *latencyProcessor) Latency() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latency
}

func (p *latencyProcessor) setLatency(frames uint32) {
	p.mu.Lock()
	p.latency = frames
	p.mu.Unlock()
}

func TestProcessDisabledReportsOnce(t *testing.T) {
	eng := engine.NewMemEngine(48000, 64)
	log := &callLog{}
	eng.SetCallback(log.record)
	tp := &testPlugin{desc: effectDescriptor()}
	inst, err := New(eng, 1, tp, Settings{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer inst.Close()

	isDebug := func(c call) bool { return c.action == engine.ActionDebug }

	// Not reloaded yet, so the instance is disabled. Every block ships
	// silence but only the first one reports.
	in := makeBuffers(2, 8)
	out := makeBuffers(2, 8)
	for k := 0; k < 3; k++ {
		fillBuffers(out, 1)
		if inst.ProcessSingle(in, out, nil, 8, 0) {
			t.Fatal("Expected disabled block to be refused")
		}
		if out[0][0] != 0 || out[1][7] != 0 {
			t.Fatal("Expected silence from disabled block")
		}
	}
	if n := log.count(isDebug); n != 1 {
		t.Fatalf("Expected one debug report for the disabled episode, got %d", n)
	}

	// Enabled but inactive is a quiet skip, not a surprise.
	if err := inst.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if inst.ProcessSingle(in, out, nil, 8, 0) {
		t.Error("Expected inactive block to be refused")
	}
	if n := log.count(isDebug); n != 1 {
		t.Errorf("Expected no report for an inactive block, got %d", n)
	}

	if err := inst.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !inst.ProcessSingle(in, out, nil, 8, 0) {
		t.Error("Expected active block to process")
	}
	if err := inst.Deactivate(); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	// Closing starts a new disabled episode and the report re-arms.
	if err := inst.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if inst.ProcessSingle(in, out, nil, 8, 0) {
		t.Error("Expected block on a closed instance to be refused")
	}
	if n := log.count(isDebug); n != 2 {
		t.Errorf("Expected a second debug report after close, got %d", n)
	}
}

func TestProcessInjectedNotesFifo(t *testing.T) {
	inst, tp, _, log := newTestInstance(t, synthDescriptor(), Settings{})
	if err := inst.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	for _, n := range []uint8{60, 64, 67} {
		if !inst.InjectNote(0, n, 100, true) {
			t.Fatalf("InjectNote(%d) refused", n)
		}
	}
	if !inst.InjectNote(0, 60, 0, true) {
		t.Fatal("InjectNote off refused")
	}

	out := makeBuffers(2, 16)
	if !inst.ProcessSingle(nil, out, nil, 16, 0) {
		t.Fatal("Expected block to process")
	}

	got := tp.processor().snapshotEvents()
	want := []midi.Event{
		midi.NoteOn(0, 60, 100, 0),
		midi.NoteOn(0, 64, 100, 0),
		midi.NoteOn(0, 67, 100, 0),
		midi.NoteOff(0, 60, 0),
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d events, got %d: %v", len(want), len(got), got)
	}
	for k := range want {
		if got[k] != want[k] {
			t.Errorf("Event %d: expected %v, got %v", k, want[k], got[k])
		}
	}

	// Two notes still sounding, so the synth emits its steady level.
	if out[0][0] != 0.25 || out[1][15] != 0.25 {
		t.Errorf("Expected steady 0.25 output, got %v/%v", out[0][0], out[1][15])
	}

	on := log.count(func(c call) bool { return c.action == engine.ActionNoteOn })
	off := log.count(func(c call) bool { return c.action == engine.ActionNoteOff })
	if on != 3 || off != 1 {
		t.Errorf("Expected 3 note-on and 1 note-off callbacks, got %d/%d", on, off)
	}
}

func TestProcessInjectedNoteOverflow(t *testing.T) {
	inst, tp, _, _ := newTestInstance(t, synthDescriptor(), Settings{NotePool: 8})
	if err := inst.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	accepted := 0
	for n := uint8(0); n < 12; n++ {
		if inst.InjectNote(0, 40+n, 100, false) {
			accepted++
		}
	}
	if accepted != 8 {
		t.Fatalf("Expected pool-sized 8 notes accepted, got %d", accepted)
	}

	out := makeBuffers(2, 16)
	if !inst.ProcessSingle(nil, out, nil, 16, 0) {
		t.Fatal("Expected block to process")
	}
	proc := tp.processor()
	got := proc.snapshotEvents()
	if len(got) != 8 {
		t.Fatalf("Expected 8 delivered notes, got %d", len(got))
	}
	for k, e := range got {
		if e.Type != midi.EventTypeNoteOn || e.Data1 != 40+uint8(k) {
			t.Errorf("Event %d out of order: %v", k, e)
		}
	}

	// Draining recycled the pool, so a full batch fits again.
	for n := uint8(0); n < 8; n++ {
		if !inst.InjectNote(0, 60+n, 100, false) {
			t.Fatalf("InjectNote(%d) refused after drain", 60+n)
		}
	}
	if !inst.ProcessSingle(nil, out, nil, 16, 0) {
		t.Fatal("Expected second block to process")
	}
	if n := len(proc.snapshotEvents()); n != 16 {
		t.Errorf("Expected 16 delivered notes total, got %d", n)
	}
}

func TestProcessControlChangeRouting(t *testing.T) {
	desc := effectDescriptor()
	desc.MidiIn = true
	desc.Parameters[0].Data.MidiCC = 74
	inst, tp, _, log := newTestInstance(t, desc, Settings{})
	if err := inst.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	inQ := inst.events.In.Events()
	inQ.Add(midi.ControlChange(0, 74, 127, 0))
	inQ.Add(midi.ControlChange(0, midi.CCVolume, 50, 2))
	inQ.Add(midi.ControlChange(0, midi.CCSustain, 64, 4))

	in := makeBuffers(2, 8)
	out := makeBuffers(2, 8)
	if !inst.ProcessSingle(in, out, nil, 8, 0) {
		t.Fatal("Expected block to process")
	}

	// CC 74 lands in the mapped parameter at full range.
	proc := tp.processor()
	proc.mu.Lock()
	gain := proc.gain
	proc.mu.Unlock()
	if gain != 2.0 {
		t.Errorf("Expected mapped parameter at max 2, got %v", gain)
	}

	// CC 7 on the control channel is the instance's own volume.
	if inst.Volume() != 0.5 {
		t.Errorf("Expected volume 0.5 from CC value 50, got %v", inst.Volume())
	}

	// Unclaimed controls pass through to the plugin.
	events := proc.snapshotEvents()
	if len(events) != 1 || events[0].Data1 != midi.CCSustain {
		t.Errorf("Expected only the sustain CC forwarded, got %v", events)
	}

	// The routed changes come back as queued reports.
	log.waitFor(t, func(c call) bool {
		return c.action == engine.ActionParameterValueChanged && c.value1 == 0 && c.value3 == 2.0
	}, "mapped parameter report")
	log.waitFor(t, func(c call) bool {
		return c.action == engine.ActionParameterValueChanged && c.value1 == param.IndexVolume
	}, "volume report")
}

func TestProcessProgramChangeMapping(t *testing.T) {
	inst, tp, _, log := newTestInstance(t, synthDescriptor(),
		Settings{Options: DefaultOptions | plugin.OptionMapProgramChanges})
	if err := inst.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	inQ := inst.events.In.Events()
	inQ.Add(midi.ProgramChange(0, 5, 0))

	out := makeBuffers(2, 8)
	if !inst.ProcessSingle(nil, out, nil, 8, 0) {
		t.Fatal("Expected block to process")
	}
	if inst.CurrentMidiProgram() != 1 {
		t.Errorf("Expected midi program index 1, got %d", inst.CurrentMidiProgram())
	}
	proc := tp.processor()
	proc.mu.Lock()
	bank, prog := proc.bank, proc.midiProg
	proc.mu.Unlock()
	if bank != 0 || prog != 5 {
		t.Errorf("Expected processor told about 0:5, got %d:%d", bank, prog)
	}
	log.waitFor(t, func(c call) bool {
		return c.action == engine.ActionMidiProgramChanged && c.value1 == 1
	}, "midi program report")

	// Bank select retargets the next change; an unknown pair is ignored.
	inQ = inst.events.In.Events()
	inQ.Add(midi.ControlChange(0, 0, 1, 0))
	inQ.Add(midi.ProgramChange(0, 0, 1))
	if !inst.ProcessSingle(nil, out, nil, 8, 0) {
		t.Fatal("Expected block to process")
	}
	if inst.CurrentMidiProgram() != 1 {
		t.Errorf("Expected unknown bank 1 pair ignored, still got %d", inst.CurrentMidiProgram())
	}
}

func TestProcessDryWetVolume(t *testing.T) {
	inst, _, _, _ := newTestInstance(t, effectDescriptor(), Settings{})
	if err := inst.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	inst.SetParameterValue(0, 0, false) // silent plugin output
	inst.SetDryWet(0.25, false)
	inst.SetVolume(0.5, false)

	in := makeBuffers(2, 8)
	out := makeBuffers(2, 8)
	fillBuffers(in, 0.5)
	if !inst.ProcessSingle(in, out, nil, 8, 0) {
		t.Fatal("Expected block to process")
	}

	// out = (wet*0 + dry*0.5) * volume = 0.5*0.75*0.5
	want := float32(0.1875)
	for ch := range out {
		for k := range out[ch] {
			if out[ch][k] != want {
				t.Fatalf("Expected %v at [%d][%d], got %v", want, ch, k, out[ch][k])
			}
		}
	}
}

func TestProcessBalance(t *testing.T) {
	inst, _, _, _ := newTestInstance(t, effectDescriptor(), Settings{})
	if err := inst.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	// Hard left turned fully right: the left channel goes quiet and the
	// right carries both.
	inst.SetBalanceLeft(1, false)

	in := makeBuffers(2, 8)
	out := makeBuffers(2, 8)
	fillBuffers(in, 0.5)
	if !inst.ProcessSingle(in, out, nil, 8, 0) {
		t.Fatal("Expected block to process")
	}
	for k := range out[0] {
		if out[0][k] != 0 {
			t.Fatalf("Expected silent left channel, got %v at %d", out[0][k], k)
		}
		if out[1][k] != 1.0 {
			t.Fatalf("Expected summed right channel 1, got %v at %d", out[1][k], k)
		}
	}
}

func TestProcessNeedsReset(t *testing.T) {
	inst, tp, _, _ := newTestInstance(t, synthDescriptor(), Settings{})
	if err := inst.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	inst.InjectNote(0, 60, 100, false)
	out := makeBuffers(2, 8)
	if !inst.ProcessSingle(nil, out, nil, 8, 0) {
		t.Fatal("Expected block to process")
	}

	inst.SetNeedsReset()
	if !inst.ProcessSingle(nil, out, nil, 8, 0) {
		t.Fatal("Expected reset block to process")
	}

	soundOff, notesOff := 0, 0
	for _, e := range tp.processor().snapshotEvents() {
		if e.Type != midi.EventTypeControlChange {
			continue
		}
		switch e.Data1 {
		case midi.CCAllSoundOff:
			soundOff++
		case midi.CCAllNotesOff:
			notesOff++
		}
	}
	if soundOff != 16 || notesOff != 16 {
		t.Errorf("Expected all-sound-off and all-notes-off on every channel, got %d/%d",
			soundOff, notesOff)
	}
}

func TestRefreshLatency(t *testing.T) {
	eng := engine.NewMemEngine(48000, 64)
	tp := &testPlugin{
		desc:     effectDescriptor(),
		makeProc: func() plugin.Processor { return &latencyProcessor{} },
	}
	inst, err := New(eng, 1, tp, Settings{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { inst.Close() })
	if err := inst.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	proc := tp.proc.(*latencyProcessor)
	if inst.Latency() != 0 {
		t.Fatalf("Expected zero initial latency, got %d", inst.Latency())
	}

	proc.setLatency(300)
	if got := inst.RefreshLatency(); got != 300 {
		t.Fatalf("Expected refresh to report 300, got %d", got)
	}
	if inst.Latency() != 300 {
		t.Errorf("Expected instance latency 300, got %d", inst.Latency())
	}
	client := inst.client.(*engine.MemClient)
	if client.Latency() != 300 {
		t.Errorf("Expected client told about 300, got %d", client.Latency())
	}
	if len(inst.latencyBuffers) != 2 || len(inst.latencyBuffers[0]) != 300 {
		t.Errorf("Expected 2 history buffers of 300 frames, got %d x %d",
			len(inst.latencyBuffers), len(inst.latencyBuffers[0]))
	}

	// Unchanged latency leaves the buffers alone.
	before := &inst.latencyBuffers[0][0]
	if got := inst.RefreshLatency(); got != 300 {
		t.Errorf("Expected steady 300, got %d", got)
	}
	if before != &inst.latencyBuffers[0][0] {
		t.Error("Expected history buffers kept when latency is unchanged")
	}
}

func TestLatencyParameterTriggersRefresh(t *testing.T) {
	desc := effectDescriptor()
	desc.Parameters[0].Special = param.SpecialLatency
	desc.Parameters[0].Ranges = param.Ranges{Def: 0, Min: 0, Max: 1000, Step: 1}
	eng := engine.NewMemEngine(48000, 64)
	tp := &testPlugin{
		desc:     desc,
		makeProc: func() plugin.Processor { return &latencyProcessor{} },
	}
	inst, err := New(eng, 1, tp, Settings{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { inst.Close() })
	if err := inst.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	inst.SetParameterValue(0, 250, false)
	if inst.Latency() != 250 {
		t.Errorf("Expected latency picked up from the parameter, got %d", inst.Latency())
	}
	if len(inst.latencyBuffers) != 2 || len(inst.latencyBuffers[0]) != 250 {
		t.Errorf("Expected history buffers resized to 250, got %d x %d",
			len(inst.latencyBuffers), len(inst.latencyBuffers[0]))
	}
}
