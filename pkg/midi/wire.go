package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// FromMessage converts a wire message into a block event at the given
// sample offset. It reports false for message kinds the host does not
// route, such as clock and sysex. A note-on with velocity zero arrives as
// a note-off, matching how instruments treat it.
func FromMessage(msg gomidi.Message, offset int32) (Event, bool) {
	var channel, d1, d2 uint8
	var bend int16

	switch {
	case msg.GetNoteStart(&channel, &d1, &d2):
		return NoteOn(channel, d1, d2, offset), true
	case msg.GetNoteEnd(&channel, &d1):
		return NoteOff(channel, d1, offset), true
	case msg.GetPolyAfterTouch(&channel, &d1, &d2):
		return PolyPressure(channel, d1, d2, offset), true
	case msg.GetControlChange(&channel, &d1, &d2):
		return ControlChange(channel, d1, d2, offset), true
	case msg.GetProgramChange(&channel, &d1):
		return ProgramChange(channel, d1, offset), true
	case msg.GetAfterTouch(&channel, &d1):
		return ChannelPressure(channel, d1, offset), true
	case msg.GetPitchBend(&channel, &bend, nil):
		return PitchBend(channel, bend, offset), true
	}
	return Event{}, false
}

// ToMessage converts a block event back into a wire message for sending to
// an external port. It reports false for events with no wire equivalent.
func ToMessage(e Event) (gomidi.Message, bool) {
	switch e.Type {
	case EventTypeNoteOn:
		return gomidi.NoteOn(e.Channel, e.Data1, e.Data2), true
	case EventTypeNoteOff:
		return gomidi.NoteOff(e.Channel, e.Data1), true
	case EventTypePolyPressure:
		return gomidi.PolyAfterTouch(e.Channel, e.Data1, e.Data2), true
	case EventTypeControlChange:
		return gomidi.ControlChange(e.Channel, e.Data1, e.Data2), true
	case EventTypeProgramChange:
		return gomidi.ProgramChange(e.Channel, e.Data1), true
	case EventTypeChannelPressure:
		return gomidi.AfterTouch(e.Channel, e.Data1), true
	case EventTypePitchBend:
		return gomidi.Pitchbend(e.Channel, e.Bend), true
	}
	return nil, false
}
