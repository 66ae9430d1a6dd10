package midi

import (
	"math"
	"strings"
	"testing"
)

func TestEventConstructors(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		wantType EventType
		wantStr  string
	}{
		{"note on", NoteOn(2, 60, 100, 128), EventTypeNoteOn, "NoteOn{ch:2, note:60, vel:100, offset:128}"},
		{"note off", NoteOff(2, 60, 0), EventTypeNoteOff, "NoteOff{ch:2, note:60, offset:0}"},
		{"control change", ControlChange(0, CCVolume, 90, 64), EventTypeControlChange, "CC{ch:0, ctrl:7, val:90, offset:64}"},
		{"program change", ProgramChange(5, 12, 0), EventTypeProgramChange, "ProgramChange{ch:5, prog:12, offset:0}"},
		{"pitch bend", PitchBend(1, -4096, 32), EventTypePitchBend, "PitchBend{ch:1, val:-4096, offset:32}"},
		{"channel pressure", ChannelPressure(3, 77, 0), EventTypeChannelPressure, "ChannelPressure{ch:3, pressure:77, offset:0}"},
		{"poly pressure", PolyPressure(3, 64, 50, 0), EventTypePolyPressure, "PolyPressure{ch:3, note:64, pressure:50, offset:0}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.event.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", tt.event.Type, tt.wantType)
			}
			if got := tt.event.String(); got != tt.wantStr {
				t.Errorf("String() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestEventTypeString(t *testing.T) {
	if got := EventTypeNoteOn.String(); got != "NoteOn" {
		t.Errorf("Expected NoteOn, got %s", got)
	}
	if got := EventType(200).String(); got != "Unknown" {
		t.Errorf("Expected Unknown, got %s", got)
	}
}

func TestNormalizedBend(t *testing.T) {
	if v := PitchBend(0, 0, 0).NormalizedBend(); v != 0 {
		t.Errorf("Center bend should normalize to 0, got %f", v)
	}
	if v := PitchBend(0, -8192, 0).NormalizedBend(); v != -1.0 {
		t.Errorf("Full down bend should normalize to -1, got %f", v)
	}
	if v := PitchBend(0, 8191, 0).NormalizedBend(); v >= 1.0 || v < 0.999 {
		t.Errorf("Full up bend should normalize to just under 1, got %f", v)
	}
}

func TestNoteToFrequency(t *testing.T) {
	tests := []struct {
		note   uint8
		tuning float64
		want   float64
	}{
		{69, 440.0, 440.0},
		{69, 0, 440.0}, // zero tuning falls back to 440
		{57, 440.0, 220.0},
		{81, 440.0, 880.0},
		{69, 432.0, 432.0},
	}

	for _, tt := range tests {
		got := NoteToFrequency(tt.note, tt.tuning)
		if math.Abs(got-tt.want) > 0.01 {
			t.Errorf("NoteToFrequency(%d, %f) = %f, want %f", tt.note, tt.tuning, got, tt.want)
		}
	}

	// Middle C is roughly 261.63Hz.
	c4 := NoteToFrequency(60, 440.0)
	if math.Abs(c4-261.63) > 0.01 {
		t.Errorf("Middle C = %f, want 261.63", c4)
	}
}

func TestFrequencyToNote(t *testing.T) {
	if n := FrequencyToNote(440.0, 440.0); n != 69 {
		t.Errorf("440Hz should be note 69, got %d", n)
	}
	if n := FrequencyToNote(261.63, 440.0); n != 60 {
		t.Errorf("261.63Hz should be note 60, got %d", n)
	}
	if n := FrequencyToNote(1.0, 440.0); n != 0 {
		t.Errorf("Subsonic frequency should clamp to 0, got %d", n)
	}
	if n := FrequencyToNote(30000.0, 440.0); n != 127 {
		t.Errorf("Ultrasonic frequency should clamp to 127, got %d", n)
	}
}

func TestNoteNumberToName(t *testing.T) {
	tests := []struct {
		note uint8
		want string
	}{
		{60, "C4"},
		{69, "A4"},
		{0, "C-1"},
		{127, "G9"},
		{61, "C#4"},
	}

	for _, tt := range tests {
		if got := NoteNumberToName(tt.note); got != tt.want {
			t.Errorf("NoteNumberToName(%d) = %s, want %s", tt.note, got, tt.want)
		}
	}
}

func TestRoundTripNoteFrequency(t *testing.T) {
	for note := uint8(21); note <= 108; note++ {
		freq := NoteToFrequency(note, 440.0)
		back := FrequencyToNote(freq, 440.0)
		if back != note {
			t.Errorf("Note %d (%s) round-tripped to %d via %fHz",
				note, NoteNumberToName(note), back, freq)
		}
	}
}

func TestEventStringContainsOffset(t *testing.T) {
	e := NoteOn(0, 60, 100, 256)
	if !strings.Contains(e.String(), "offset:256") {
		t.Errorf("String() should include the sample offset: %s", e.String())
	}
}
