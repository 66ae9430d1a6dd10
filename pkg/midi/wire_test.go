package midi

import (
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestFromMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  gomidi.Message
		want Event
	}{
		{"note on", gomidi.NoteOn(2, 60, 100), NoteOn(2, 60, 100, 42)},
		{"note off", gomidi.NoteOff(3, 61), NoteOff(3, 61, 42)},
		{"note on velocity zero becomes note off", gomidi.NoteOn(0, 62, 0), NoteOff(0, 62, 42)},
		{"control change", gomidi.ControlChange(1, CCSustain, 127), ControlChange(1, CCSustain, 127, 42)},
		{"program change", gomidi.ProgramChange(4, 9), ProgramChange(4, 9, 42)},
		{"channel pressure", gomidi.AfterTouch(0, 80), ChannelPressure(0, 80, 42)},
		{"poly pressure", gomidi.PolyAfterTouch(0, 60, 70), PolyPressure(0, 60, 70, 42)},
		{"pitch bend", gomidi.Pitchbend(6, -2000), PitchBend(6, -2000, 42)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromMessage(tt.msg, 42)
			if !ok {
				t.Fatalf("FromMessage rejected %v", tt.msg)
			}
			if got != tt.want {
				t.Errorf("FromMessage = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromMessageUnsupported(t *testing.T) {
	unsupported := []gomidi.Message{
		gomidi.TimingClock(),
		gomidi.Start(),
		gomidi.Stop(),
		gomidi.SysEx([]byte{0x01, 0x02}),
	}

	for _, msg := range unsupported {
		if _, ok := FromMessage(msg, 0); ok {
			t.Errorf("FromMessage accepted unsupported message %v", msg)
		}
	}
}

func TestToMessage(t *testing.T) {
	events := []Event{
		NoteOn(2, 60, 100, 0),
		NoteOff(3, 61, 0),
		ControlChange(1, CCVolume, 64, 0),
		ProgramChange(4, 9, 0),
		ChannelPressure(0, 80, 0),
		PolyPressure(0, 60, 70, 0),
		PitchBend(6, 1234, 0),
	}

	for _, e := range events {
		msg, ok := ToMessage(e)
		if !ok {
			t.Fatalf("ToMessage rejected %v", e)
		}
		// Offsets are block-local, so round-tripping re-binds to a new one.
		back, ok := FromMessage(msg, e.Offset)
		if !ok {
			t.Fatalf("FromMessage rejected round-tripped %v", e)
		}
		if back != e {
			t.Errorf("Round trip changed event: sent %v, got %v", e, back)
		}
	}
}

func TestToMessageUnknownType(t *testing.T) {
	if _, ok := ToMessage(Event{Type: EventType(99)}); ok {
		t.Error("ToMessage accepted an unknown event type")
	}
}
