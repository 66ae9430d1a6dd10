// Package plugin defines the contract a hosted processor implements and
// the descriptor it publishes so the host can build ports, parameters and
// programs around it.
package plugin

import (
	"github.com/justyntemme/plughost/pkg/framework/process"
)

// Hints describe capabilities of a plugin as a whole.
type Hints uint32

const (
	// HintRTSafe marks a plugin safe to run with hard processing deadlines.
	HintRTSafe Hints = 1 << iota
	// HintIsSynth marks a generator that turns events into audio.
	HintIsSynth
	// HintCanDryWet lets the host blend processed and dry signal.
	HintCanDryWet
	// HintCanVolume lets the host scale the output level.
	HintCanVolume
	// HintCanBalance lets the host apply stereo balance.
	HintCanBalance
	// HintCanPanning lets the host apply panning.
	HintCanPanning
	// HintNeedsFixedBuffers forces processing in even engine-sized blocks.
	HintNeedsFixedBuffers
	// HintUsesMultiPrograms marks separate program state per MIDI channel.
	HintUsesMultiPrograms
)

// Options toggle per-instance host behavior. They are negotiated at load
// time and fixed while the instance is active.
type Options uint32

const (
	// OptionFixedBuffers processes whole engine blocks without slicing.
	OptionFixedBuffers Options = 1 << iota
	// OptionForceStereo pairs mono plugins up to stereo.
	OptionForceStereo
	// OptionMapProgramChanges routes MIDI program changes to programs.
	OptionMapProgramChanges
	// OptionUseChunks saves state as an opaque blob instead of parameters.
	OptionUseChunks
	// OptionSendControlChanges forwards control changes to the plugin.
	OptionSendControlChanges
	// OptionSendChannelPressure forwards channel pressure events.
	OptionSendChannelPressure
	// OptionSendNoteAftertouch forwards polyphonic aftertouch events.
	OptionSendNoteAftertouch
	// OptionSendPitchbend forwards pitch bend events.
	OptionSendPitchbend
	// OptionSendAllSoundOff sends all-sound-off when notes are cut.
	OptionSendAllSoundOff
)

// ExtraHints describe what the host discovered about an instance after
// wiring it up, as opposed to what the plugin claims about itself.
type ExtraHints uint32

const (
	// ExtraHintHasMidiIn is set when the instance has a MIDI input port.
	ExtraHintHasMidiIn ExtraHints = 0x01
	// ExtraHintHasMidiOut is set when the instance has a MIDI output port.
	ExtraHintHasMidiOut ExtraHints = 0x02
	// ExtraHintCanRunRack is set when the instance fits a stereo rack slot.
	ExtraHintCanRunRack ExtraHints = 0x04
)

// Plugin publishes a descriptor and creates processors for it.
type Plugin interface {
	// Descriptor returns the plugin's static description.
	Descriptor() *Descriptor

	// CreateProcessor creates a fresh instance of the audio processor.
	CreateProcessor() Processor
}

// Processor is one running instance of a plugin. The host calls
// Initialize and SetActive from the control side; Process runs on the
// audio path and must not allocate or block.
type Processor interface {
	// Initialize prepares the processor for the engine format.
	Initialize(sampleRate float64, maxFrames uint32) error

	// SetActive is called away from the audio path when processing starts
	// or stops.
	SetActive(active bool) error

	// Process renders one block.
	Process(b *process.Block)

	// ParameterValue returns the current value of a parameter.
	ParameterValue(index uint32) float32

	// SetParameterValue sets a parameter to an already-clamped value.
	SetParameterValue(index uint32, value float32)

	// SetProgram switches to a program, -1 for none.
	SetProgram(index int32)

	// SetMidiProgram switches to a bank/program pair.
	SetMidiProgram(bank, program uint32)

	// Latency returns the processing delay in frames.
	Latency() uint32
}

// ChunkProvider is implemented by processors that persist raw state blobs
// instead of, or in addition to, parameter values.
type ChunkProvider interface {
	Chunk() ([]byte, error)
	SetChunk(data []byte) error
}

// BaseProcessor supplies no-op defaults for everything but Process so
// simple plugins only implement what they need.
type BaseProcessor struct{}

func (BaseProcessor) Initialize(sampleRate float64, maxFrames uint32) error { return nil }
func (BaseProcessor) SetActive(active bool) error                           { return nil }
func (BaseProcessor) ParameterValue(index uint32) float32                   { return 0 }
func (BaseProcessor) SetParameterValue(index uint32, value float32)         {}
func (BaseProcessor) SetProgram(index int32)                                {}
func (BaseProcessor) SetMidiProgram(bank, program uint32)                   {}
func (BaseProcessor) Latency() uint32                                       { return 0 }
