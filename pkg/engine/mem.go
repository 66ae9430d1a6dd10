package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/justyntemme/plughost/pkg/framework/debug"
	"github.com/justyntemme/plughost/pkg/midi"
)

var (
	ErrClientActive = errors.New("engine: client is active")
	ErrClientClosed = errors.New("engine: client is closed")
)

const (
	defaultSampleRate = 48000.0
	defaultBufferSize = 512
)

// MemEngine is a self-contained engine for standalone hosts and tests. It
// owns no device; the application drives processing and the engine supplies
// buffers, clients and callback dispatch.
type MemEngine struct {
	sampleRate float64
	bufferSize uint32
	offline    atomic.Bool

	mu      sync.Mutex
	cb      CallbackFunc
	clients map[uuid.UUID]*MemClient
}

// NewMemEngine creates an engine with the given geometry. Zero values fall
// back to 48000Hz and 512 frames.
func NewMemEngine(sampleRate float64, bufferSize uint32) *MemEngine {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	if bufferSize == 0 {
		bufferSize = defaultBufferSize
	}
	return &MemEngine{
		sampleRate: sampleRate,
		bufferSize: bufferSize,
		clients:    make(map[uuid.UUID]*MemClient),
	}
}

func (e *MemEngine) SampleRate() float64 { return e.sampleRate }
func (e *MemEngine) BufferSize() uint32  { return e.bufferSize }
func (e *MemEngine) IsOffline() bool     { return e.offline.Load() }

// SetOffline switches between real-time and offline rendering. Plugins
// processed offline may block instead of dropping work.
func (e *MemEngine) SetOffline(offline bool) {
	e.offline.Store(offline)
}

// SetCallback installs the application callback. Passing nil silences
// dispatch.
func (e *MemEngine) SetCallback(fn CallbackFunc) {
	e.mu.Lock()
	e.cb = fn
	e.mu.Unlock()
}

// Callback dispatches a report to the application callback, if any. The
// callback runs without engine locks held so it may call back into the
// engine.
func (e *MemEngine) Callback(action Action, pluginID uint32, value1, value2 int32, value3 float32, name string) {
	e.mu.Lock()
	fn := e.cb
	e.mu.Unlock()
	if fn != nil {
		fn(action, pluginID, value1, value2, value3, name)
	}
}

// NewClient registers a client. The name must be non-empty.
func (e *MemEngine) NewClient(name string) (Client, error) {
	if name == "" {
		return nil, errors.New("engine: client name is empty")
	}
	c := &MemClient{
		id:     uuid.New(),
		name:   name,
		engine: e,
	}
	e.mu.Lock()
	e.clients[c.id] = c
	e.mu.Unlock()
	debug.Debug("engine: client %q registered (%s)", name, c.id)
	return c, nil
}

// ClientCount reports how many clients are registered.
func (e *MemEngine) ClientCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.clients)
}

func (e *MemEngine) removeClient(id uuid.UUID) {
	e.mu.Lock()
	delete(e.clients, id)
	e.mu.Unlock()
}

// MemClient implements Client against a MemEngine.
type MemClient struct {
	id     uuid.UUID
	name   string
	engine *MemEngine

	active  atomic.Bool
	latency atomic.Uint32

	mu     sync.Mutex
	ports  []clientPort
	closed bool
}

func (c *MemClient) ID() uuid.UUID { return c.id }
func (c *MemClient) Name() string  { return c.name }

func (c *MemClient) Activate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	if !c.active.CompareAndSwap(false, true) {
		return fmt.Errorf("engine: client %q already active", c.name)
	}
	return nil
}

func (c *MemClient) Deactivate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	if !c.active.CompareAndSwap(true, false) {
		return fmt.Errorf("engine: client %q not active", c.name)
	}
	return nil
}

func (c *MemClient) IsActive() bool { return c.active.Load() }

func (c *MemClient) SetLatency(frames uint32) {
	c.latency.Store(frames)
}

// Latency reports the last latency the owning plugin declared.
func (c *MemClient) Latency() uint32 {
	return c.latency.Load()
}

func (c *MemClient) addPort(p clientPort) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	if c.active.Load() {
		return ErrClientActive
	}
	for _, existing := range c.ports {
		if existing.Name() == p.Name() && existing.IsInput() == p.IsInput() {
			return fmt.Errorf("engine: client %q already has port %q", c.name, p.Name())
		}
	}
	c.ports = append(c.ports, p)
	return nil
}

func (c *MemClient) AddAudioPort(name string, isInput bool) (AudioPort, error) {
	p := newMemAudioPort(name, isInput, c.engine.bufferSize)
	if err := c.addPort(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *MemClient) AddCVPort(name string, isInput bool) (CVPort, error) {
	p := &memCVPort{memAudioPort: *newMemAudioPort(name, isInput, c.engine.bufferSize)}
	if err := c.addPort(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *MemClient) AddEventPort(name string, isInput bool) (EventPort, error) {
	p := &memEventPort{
		name:  name,
		input: isInput,
		queue: midi.NewEventQueue(midi.MaxBlockEvents),
	}
	if err := c.addPort(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Close deactivates the client if needed and closes every port. Closing a
// closed client is a no-op.
func (c *MemClient) Close() error {
	c.active.Store(false)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	ports := c.ports
	c.ports = nil
	c.mu.Unlock()

	for _, p := range ports {
		debug.CheckErr(p.Close(), "engine: close port")
	}
	c.engine.removeClient(c.id)
	return nil
}

// clientPort is the common shape of the concrete port types.
type clientPort interface {
	Name() string
	IsInput() bool
	Close() error
}

// memAudioPort is unsynchronized: InitBuffer and Buffer run on the
// processing path, and ports close only after the client deactivates.
type memAudioPort struct {
	name  string
	input bool

	buf  []float32
	view []float32
}

func newMemAudioPort(name string, isInput bool, bufferSize uint32) *memAudioPort {
	return &memAudioPort{
		name:  name,
		input: isInput,
		buf:   make([]float32, bufferSize),
	}
}

func (p *memAudioPort) Name() string  { return p.name }
func (p *memAudioPort) IsInput() bool { return p.input }

func (p *memAudioPort) InitBuffer(frames uint32) {
	if !debug.Checkf(int(frames) <= len(p.buf), "port %q: %d frames within buffer size %d", p.name, frames, len(p.buf)) {
		frames = uint32(len(p.buf))
	}
	p.view = p.buf[:frames]
	for i := range p.view {
		p.view[i] = 0
	}
}

func (p *memAudioPort) Buffer() []float32 { return p.view }

func (p *memAudioPort) Close() error {
	p.view = nil
	return nil
}

type memCVPort struct {
	memAudioPort
	min, max float32
}

func (p *memCVPort) SetRange(min, max float32) {
	p.min, p.max = min, max
}

// Range reports the declared voltage range, defaulting to 0..1 when unset.
func (p *memCVPort) Range() (float32, float32) {
	if p.min == 0 && p.max == 0 {
		return 0, 1
	}
	return p.min, p.max
}

type memEventPort struct {
	name  string
	input bool
	queue *midi.EventQueue
}

func (p *memEventPort) Name() string  { return p.name }
func (p *memEventPort) IsInput() bool { return p.input }

func (p *memEventPort) InitBuffer() {
	p.queue.Clear()
}

func (p *memEventPort) Events() *midi.EventQueue { return p.queue }

func (p *memEventPort) Close() error { return nil }
