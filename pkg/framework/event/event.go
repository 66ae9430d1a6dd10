// Package event carries work across the threads of a plugin instance:
// externally injected notes flowing into the processing path, and postponed
// reports flowing out of it. Both directions run over fixed pools so the
// processing side never allocates and never blocks.
package event

import "fmt"

// PostType tags a postponed report.
type PostType uint8

const (
	PostNull PostType = iota
	PostDebug
	PostParameterChange
	PostProgramChange
	PostMidiProgramChange
	PostNoteOn
	PostNoteOff
)

func (t PostType) String() string {
	switch t {
	case PostNull:
		return "Null"
	case PostDebug:
		return "Debug"
	case PostParameterChange:
		return "ParameterChange"
	case PostProgramChange:
		return "ProgramChange"
	case PostMidiProgramChange:
		return "MidiProgramChange"
	case PostNoteOn:
		return "NoteOn"
	case PostNoteOff:
		return "NoteOff"
	default:
		return "Unknown"
	}
}

// PostEvent is one report postponed from the processing path. The payload
// slots depend on the type:
//
//	ParameterChange:   Value1 parameter index (internal indexes are
//	                   negative), Value2 non-zero when the change originated
//	                   outside the processing path and must not echo back,
//	                   Value3 the new value
//	ProgramChange:     Value1 program index
//	MidiProgramChange: Value1 entry index
//	NoteOn:            Value1 channel, Value2 note, Value3 velocity
//	NoteOff:           Value1 channel, Value2 note
type PostEvent struct {
	Type   PostType
	Value1 int32
	Value2 int32
	Value3 float32
}

func (e PostEvent) String() string {
	return fmt.Sprintf("PostEvent{%s, %d, %d, %g}", e.Type, e.Value1, e.Value2, e.Value3)
}

// ExternalNote is a note injected from outside the audio path, waiting to
// be folded into a processing block.
type ExternalNote struct {
	Channel int8  // 0-15; negative marks the entry invalid
	Note    uint8 // 0-127
	Velo    uint8 // 0 turns the entry into a note-off
}

// Valid reports whether the note addresses a real channel and key.
func (n ExternalNote) Valid() bool {
	return n.Channel >= 0 && n.Channel < 16 && n.Note <= 127
}

// IsNoteOff reports whether the entry releases a note instead of starting
// one.
func (n ExternalNote) IsNoteOff() bool {
	return n.Velo == 0
}

func (n ExternalNote) String() string {
	if n.IsNoteOff() {
		return fmt.Sprintf("ExternalNote{off, ch:%d, note:%d}", n.Channel, n.Note)
	}
	return fmt.Sprintf("ExternalNote{on, ch:%d, note:%d, velo:%d}", n.Channel, n.Note, n.Velo)
}
