// Package midi defines the event representation the host routes between
// engine ports, injected notes and plugin processors, plus conversions to
// and from wire messages.
package midi

import (
	"fmt"
	"math"
)

type EventType uint8

const (
	EventTypeNoteOff EventType = iota
	EventTypeNoteOn
	EventTypePolyPressure
	EventTypeControlChange
	EventTypeProgramChange
	EventTypeChannelPressure
	EventTypePitchBend
)

func (t EventType) String() string {
	switch t {
	case EventTypeNoteOff:
		return "NoteOff"
	case EventTypeNoteOn:
		return "NoteOn"
	case EventTypePolyPressure:
		return "PolyPressure"
	case EventTypeControlChange:
		return "ControlChange"
	case EventTypeProgramChange:
		return "ProgramChange"
	case EventTypeChannelPressure:
		return "ChannelPressure"
	case EventTypePitchBend:
		return "PitchBend"
	default:
		return "Unknown"
	}
}

// Event is one routed event. It is a plain value rather than an interface
// so that building and queueing events on the audio path never touches the
// allocator. Data1/Data2 carry the type-specific bytes: note and velocity,
// controller and value, program, or pressure. Bend holds the pitch bend
// amount for EventTypePitchBend only.
type Event struct {
	Type    EventType
	Channel uint8
	Data1   uint8
	Data2   uint8
	Bend    int16 // -8192 to 8191, 0 is center
	Offset  int32 // sample offset within the current block
}

func NoteOn(channel, note, velocity uint8, offset int32) Event {
	return Event{Type: EventTypeNoteOn, Channel: channel, Data1: note, Data2: velocity, Offset: offset}
}

func NoteOff(channel, note uint8, offset int32) Event {
	return Event{Type: EventTypeNoteOff, Channel: channel, Data1: note, Offset: offset}
}

func ControlChange(channel, controller, value uint8, offset int32) Event {
	return Event{Type: EventTypeControlChange, Channel: channel, Data1: controller, Data2: value, Offset: offset}
}

func ProgramChange(channel, program uint8, offset int32) Event {
	return Event{Type: EventTypeProgramChange, Channel: channel, Data1: program, Offset: offset}
}

func PitchBend(channel uint8, value int16, offset int32) Event {
	return Event{Type: EventTypePitchBend, Channel: channel, Bend: value, Offset: offset}
}

func ChannelPressure(channel, pressure uint8, offset int32) Event {
	return Event{Type: EventTypeChannelPressure, Channel: channel, Data1: pressure, Offset: offset}
}

func PolyPressure(channel, note, pressure uint8, offset int32) Event {
	return Event{Type: EventTypePolyPressure, Channel: channel, Data1: note, Data2: pressure, Offset: offset}
}

func (e Event) String() string {
	switch e.Type {
	case EventTypeNoteOn:
		return fmt.Sprintf("NoteOn{ch:%d, note:%d, vel:%d, offset:%d}",
			e.Channel, e.Data1, e.Data2, e.Offset)
	case EventTypeNoteOff:
		return fmt.Sprintf("NoteOff{ch:%d, note:%d, offset:%d}",
			e.Channel, e.Data1, e.Offset)
	case EventTypeControlChange:
		return fmt.Sprintf("CC{ch:%d, ctrl:%d, val:%d, offset:%d}",
			e.Channel, e.Data1, e.Data2, e.Offset)
	case EventTypeProgramChange:
		return fmt.Sprintf("ProgramChange{ch:%d, prog:%d, offset:%d}",
			e.Channel, e.Data1, e.Offset)
	case EventTypePitchBend:
		return fmt.Sprintf("PitchBend{ch:%d, val:%d, offset:%d}",
			e.Channel, e.Bend, e.Offset)
	case EventTypeChannelPressure:
		return fmt.Sprintf("ChannelPressure{ch:%d, pressure:%d, offset:%d}",
			e.Channel, e.Data1, e.Offset)
	case EventTypePolyPressure:
		return fmt.Sprintf("PolyPressure{ch:%d, note:%d, pressure:%d, offset:%d}",
			e.Channel, e.Data1, e.Data2, e.Offset)
	default:
		return fmt.Sprintf("Event{type:%d, offset:%d}", e.Type, e.Offset)
	}
}

// NormalizedBend maps the pitch bend value to -1..1.
func (e Event) NormalizedBend() float64 {
	return float64(e.Bend) / 8192.0
}

const (
	CCModWheel    uint8 = 1
	CCBreath      uint8 = 2
	CCVolume      uint8 = 7
	CCBalance     uint8 = 8
	CCPan         uint8 = 10
	CCExpression  uint8 = 11
	CCBankSelectL uint8 = 32
	CCSustain     uint8 = 64
	CCAllSoundOff uint8 = 120
	CCResetAll    uint8 = 121
	CCAllNotesOff uint8 = 123
)

// NoteToFrequency converts a note number to Hz for the given A4 tuning.
// A tuning of 0 means standard 440Hz.
func NoteToFrequency(note uint8, tuningA4 float64) float64 {
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	return tuningA4 * math.Exp2((float64(note)-69.0)/12.0)
}

// FrequencyToNote converts Hz to the nearest note number, clamped to 0-127.
func FrequencyToNote(freq, tuningA4 float64) uint8 {
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	note := 69.0 + 12.0*math.Log2(freq/tuningA4)
	if note < 0 {
		return 0
	}
	if note > 127 {
		return 127
	}
	return uint8(note + 0.5)
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteNumberToName renders a note number as scientific pitch, e.g. 60 -> C4.
func NoteNumberToName(note uint8) string {
	octave := int(note/12) - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}
