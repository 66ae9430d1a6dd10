// Package process carries the per-block state handed to a plugin
// processor: buffer views, the block's event list, and the report hook
// back to the host. Block storage is reused across calls; nothing here
// allocates on the audio path.
package process

import (
	"github.com/justyntemme/plughost/pkg/framework/event"
	"github.com/justyntemme/plughost/pkg/midi"
)

// Block is one processing quantum. In, Out and CV are channel-major buffer
// views rebound by the host for every call and valid only during it.
// Events holds the block's routed events in sample-offset order.
// TimeOffset is the block's position inside the engine cycle when the host
// processes a cycle in slices.
type Block struct {
	In  [][]float32
	Out [][]float32
	CV  [][]float32

	Frames     uint32
	TimeOffset uint32
	SampleRate float64

	Events *midi.EventQueue

	// OutEvents collects events the processor emits during the block. The
	// host drains it into the event output port afterwards.
	OutEvents *midi.EventQueue

	// Postpone queues a report to the maintenance side. Processors use
	// Report, which tolerates a nil hook.
	Postpone func(event.PostEvent) bool

	workBuffer []float32
}

// NewBlock creates a block that can carry up to maxFrames frames and a
// full event list in each direction.
func NewBlock(maxFrames uint32) *Block {
	if maxFrames == 0 {
		maxFrames = 512
	}
	return &Block{
		Events:     midi.NewEventQueue(midi.MaxBlockEvents),
		OutEvents:  midi.NewEventQueue(midi.MaxBlockEvents),
		workBuffer: make([]float32, maxFrames),
	}
}

// NumInputChannels returns the number of input channels.
func (b *Block) NumInputChannels() int {
	return len(b.In)
}

// NumOutputChannels returns the number of output channels.
func (b *Block) NumOutputChannels() int {
	return len(b.Out)
}

// WorkBuffer returns the pre-allocated scratch buffer sized to the current
// block, shared by whoever holds the block.
func (b *Block) WorkBuffer() []float32 {
	return b.workBuffer[:b.Frames]
}

// Clear zeroes the output buffers.
func (b *Block) Clear() {
	for ch := range b.Out {
		buf := b.Out[ch]
		for i := range buf {
			buf[i] = 0
		}
	}
}

// PassThrough copies input to output for bypass. Outputs without a
// matching input are left alone; the host zeroes buffers at block start.
func (b *Block) PassThrough() {
	n := len(b.In)
	if len(b.Out) < n {
		n = len(b.Out)
	}
	for ch := 0; ch < n; ch++ {
		copy(b.Out[ch], b.In[ch])
	}
}

// Report queues a report to the maintenance side, tolerating a detached
// hook. Processors call this for parameter moves and similar changes that
// must reach the application without blocking audio.
func (b *Block) Report(e event.PostEvent) bool {
	if b.Postpone == nil {
		return false
	}
	return b.Postpone(e)
}

// Emit appends an event to the block's output list. It reports false when
// the list is full or the block has no output list.
func (b *Block) Emit(e midi.Event) bool {
	if b.OutEvents == nil {
		return false
	}
	return b.OutEvents.Add(e)
}
