// Package engine defines what a plugin instance needs from the audio engine
// that hosts it: sample rate and buffer geometry, a client with ports, and a
// callback channel for reporting changes back to the application.
package engine

import (
	"github.com/google/uuid"

	"github.com/justyntemme/plughost/pkg/midi"
)

// Action identifies what an engine callback reports.
type Action int32

const (
	// ActionDebug carries diagnostic reports, such as processing while
	// disabled.
	ActionDebug Action = iota
	// ActionParameterValueChanged reports a parameter moving, including the
	// internal dry/wet, volume, balance and panning controls.
	ActionParameterValueChanged
	// ActionProgramChanged reports the current program index changing.
	ActionProgramChanged
	// ActionMidiProgramChanged reports the current MIDI program changing.
	ActionMidiProgramChanged
	// ActionNoteOn reports a note starting inside the processing path.
	ActionNoteOn
	// ActionNoteOff reports a note ending inside the processing path.
	ActionNoteOff
	// ActionUpdate asks the application to refresh its view of the plugin.
	ActionUpdate
	// ActionReloadParameters asks the application to re-read parameter info.
	ActionReloadParameters
	// ActionReloadPrograms asks the application to re-read program info.
	ActionReloadPrograms
	// ActionReloadAll asks the application to re-read everything.
	ActionReloadAll
)

func (a Action) String() string {
	switch a {
	case ActionDebug:
		return "Debug"
	case ActionParameterValueChanged:
		return "ParameterValueChanged"
	case ActionProgramChanged:
		return "ProgramChanged"
	case ActionMidiProgramChanged:
		return "MidiProgramChanged"
	case ActionNoteOn:
		return "NoteOn"
	case ActionNoteOff:
		return "NoteOff"
	case ActionUpdate:
		return "Update"
	case ActionReloadParameters:
		return "ReloadParameters"
	case ActionReloadPrograms:
		return "ReloadPrograms"
	case ActionReloadAll:
		return "ReloadAll"
	default:
		return "Unknown"
	}
}

// CallbackFunc receives engine callbacks. The value slots mean different
// things per action; unused slots are zero. Callbacks arrive on maintenance
// goroutines, never on the audio path.
type CallbackFunc func(action Action, pluginID uint32, value1, value2 int32, value3 float32, name string)

// Engine is the host-side view of an audio engine.
type Engine interface {
	// SampleRate returns the engine sample rate in Hz.
	SampleRate() float64
	// BufferSize returns the maximum frames per processing block.
	BufferSize() uint32
	// IsOffline reports whether the engine renders faster than real time.
	// Offline processing may block where real-time processing must not.
	IsOffline() bool
	// Callback dispatches a report to the application.
	Callback(action Action, pluginID uint32, value1, value2 int32, value3 float32, name string)
	// NewClient registers a named client owning ports.
	NewClient(name string) (Client, error)
}

// Client is one engine client. A plugin instance owns at most one and
// closes it at destruction.
type Client interface {
	ID() uuid.UUID
	Name() string

	Activate() error
	Deactivate() error
	IsActive() bool

	// SetLatency reports the owning plugin's latency to the engine.
	SetLatency(frames uint32)

	AddAudioPort(name string, isInput bool) (AudioPort, error)
	AddCVPort(name string, isInput bool) (CVPort, error)
	AddEventPort(name string, isInput bool) (EventPort, error)

	Close() error
}

// AudioPort is a mono stream of samples owned by a client.
type AudioPort interface {
	Name() string
	IsInput() bool
	// InitBuffer prepares the port buffer for a block of the given length.
	InitBuffer(frames uint32)
	// Buffer returns the current block's samples. Only valid between
	// InitBuffer and the end of the block.
	Buffer() []float32
	Close() error
}

// CVPort carries control voltage samples. It behaves like an audio port but
// feeds parameter modulation instead of the signal chain.
type CVPort interface {
	AudioPort
	// SetRange declares the voltage range the port produces or expects.
	SetRange(min, max float32)
}

// EventPort carries routed events for one block.
type EventPort interface {
	Name() string
	IsInput() bool
	// InitBuffer clears the port's event queue for a new block.
	InitBuffer()
	// Events returns the port's queue. The processing path fills input
	// queues before the plugin runs and drains output queues after.
	Events() *midi.EventQueue
	Close() error
}
