// Package port holds the engine-port tables of a plugin instance: audio
// lists per direction, the CV input list, and the event port pair. Tables
// follow a strict life cycle: the control side creates and clears them
// while processing is detached, and the processing path only initializes
// buffers at block starts.
package port

import (
	"github.com/justyntemme/plughost/pkg/engine"
	"github.com/justyntemme/plughost/pkg/framework/debug"
)

// Audio is one audio port entry. RIndex is the channel's position inside
// the plugin, which may differ from the table position when channels are
// remapped.
type Audio struct {
	Port   engine.AudioPort
	RIndex uint32
}

// AudioList is a table of audio ports in one direction.
type AudioList struct {
	ports []Audio
}

// Create allocates entries for count ports. The table must be empty and
// the count positive.
func (l *AudioList) Create(count uint32) bool {
	if !debug.Check(len(l.ports) == 0, "audio port table empty before create") {
		return false
	}
	if !debug.Checkf(count > 0, "audio port count %d positive", count) {
		return false
	}
	l.ports = make([]Audio, count)
	return true
}

// Clear closes every port and releases the table.
func (l *AudioList) Clear() {
	for i := range l.ports {
		if p := l.ports[i].Port; p != nil {
			debug.CheckErr(p.Close(), "close audio port")
			l.ports[i].Port = nil
		}
	}
	l.ports = nil
}

// InitBuffers prepares every port for a block of frames.
func (l *AudioList) InitBuffers(frames uint32) {
	for i := range l.ports {
		if p := l.ports[i].Port; p != nil {
			p.InitBuffer(frames)
		}
	}
}

// Count reports the table size.
func (l *AudioList) Count() uint32 {
	return uint32(len(l.ports))
}

// At returns the entry at index, or nil when out of range.
func (l *AudioList) At(index uint32) *Audio {
	if !debug.Checkf(index < l.Count(), "audio port index %d within %d", index, l.Count()) {
		return nil
	}
	return &l.ports[index]
}

// Set binds a port into the entry at index.
func (l *AudioList) Set(index uint32, p engine.AudioPort, rindex uint32) bool {
	if !debug.Checkf(index < l.Count(), "audio port index %d within %d", index, l.Count()) {
		return false
	}
	l.ports[index] = Audio{Port: p, RIndex: rindex}
	return true
}

// Buffer returns the block buffer of the port at index, or nil when the
// entry is unbound or out of range.
func (l *AudioList) Buffer(index uint32) []float32 {
	if index >= l.Count() {
		return nil
	}
	if p := l.ports[index].Port; p != nil {
		return p.Buffer()
	}
	return nil
}

// CV is one control-voltage input entry. Param is the host-side parameter
// the voltage modulates; negative means unassigned.
type CV struct {
	Port   engine.CVPort
	RIndex uint32
	Param  int32
}

// CVList is a table of CV inputs.
type CVList struct {
	ports []CV
}

// Create allocates entries for count ports. The table must be empty and
// the count positive.
func (l *CVList) Create(count uint32) bool {
	if !debug.Check(len(l.ports) == 0, "cv port table empty before create") {
		return false
	}
	if !debug.Checkf(count > 0, "cv port count %d positive", count) {
		return false
	}
	l.ports = make([]CV, count)
	for i := range l.ports {
		l.ports[i].Param = -1
	}
	return true
}

// Clear closes every port and releases the table.
func (l *CVList) Clear() {
	for i := range l.ports {
		if p := l.ports[i].Port; p != nil {
			debug.CheckErr(p.Close(), "close cv port")
			l.ports[i].Port = nil
		}
	}
	l.ports = nil
}

// InitBuffers prepares every port for a block of frames.
func (l *CVList) InitBuffers(frames uint32) {
	for i := range l.ports {
		if p := l.ports[i].Port; p != nil {
			p.InitBuffer(frames)
		}
	}
}

// Count reports the table size.
func (l *CVList) Count() uint32 {
	return uint32(len(l.ports))
}

// At returns the entry at index, or nil when out of range.
func (l *CVList) At(index uint32) *CV {
	if !debug.Checkf(index < l.Count(), "cv port index %d within %d", index, l.Count()) {
		return nil
	}
	return &l.ports[index]
}

// Set binds a port into the entry at index.
func (l *CVList) Set(index uint32, p engine.CVPort, rindex uint32, paramIndex int32) bool {
	if !debug.Checkf(index < l.Count(), "cv port index %d within %d", index, l.Count()) {
		return false
	}
	l.ports[index] = CV{Port: p, RIndex: rindex, Param: paramIndex}
	return true
}

// EventPair owns the event input and output ports. Either side may be nil
// when the plugin has no events in that direction.
type EventPair struct {
	In  engine.EventPort
	Out engine.EventPort
}

// Clear closes whichever ports exist.
func (p *EventPair) Clear() {
	if p.In != nil {
		debug.CheckErr(p.In.Close(), "close event input")
		p.In = nil
	}
	if p.Out != nil {
		debug.CheckErr(p.Out.Close(), "close event output")
		p.Out = nil
	}
}

// InitBuffers clears both event queues for a new block.
func (p *EventPair) InitBuffers() {
	if p.In != nil {
		p.In.InitBuffer()
	}
	if p.Out != nil {
		p.Out.InitBuffer()
	}
}
