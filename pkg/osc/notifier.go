// Package osc delivers postponed processing reports to the application:
// every report becomes an engine callback, and when a target is set the
// same reports go out as OSC messages for external UIs.
package osc

import (
	"fmt"
	"sync"
	"time"

	goosc "github.com/hypebeast/go-osc/osc"

	"github.com/justyntemme/plughost/pkg/engine"
	"github.com/justyntemme/plughost/pkg/framework/debug"
	"github.com/justyntemme/plughost/pkg/framework/event"
)

// DefaultInterval is how often the notifier polls for published reports.
const DefaultInterval = 50 * time.Millisecond

// Notifier is the maintenance-side consumer of a plugin's report queue.
// It runs one goroutine between Start and Stop, draining the queue on a
// fixed cadence and translating each report into an engine callback and,
// when a target is set, an OSC message under /plughost/<id>/.
type Notifier struct {
	eng      engine.Engine
	pluginID uint32
	queue    *event.PostQueue

	interval time.Duration
	prefix   string

	mu     sync.Mutex
	client *goosc.Client

	run  sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewNotifier creates a notifier for one plugin's report queue.
func NewNotifier(eng engine.Engine, pluginID uint32, queue *event.PostQueue) *Notifier {
	return &Notifier{
		eng:      eng,
		pluginID: pluginID,
		queue:    queue,
		interval: DefaultInterval,
		prefix:   fmt.Sprintf("/plughost/%d", pluginID),
	}
}

// SetInterval changes the polling cadence. Only effective before Start.
func (n *Notifier) SetInterval(d time.Duration) {
	if d > 0 {
		n.interval = d
	}
}

// SetTarget points OSC output at a UDP host and port. Reports flow to the
// engine callback regardless of a target.
func (n *Notifier) SetTarget(host string, port int) {
	n.mu.Lock()
	n.client = goosc.NewClient(host, port)
	n.mu.Unlock()
	debug.Info("osc target %s:%d for plugin %d", host, port, n.pluginID)
}

// ClearTarget stops OSC output.
func (n *Notifier) ClearTarget() {
	n.mu.Lock()
	n.client = nil
	n.mu.Unlock()
}

// Start launches the drain loop. Starting a running notifier is an error.
func (n *Notifier) Start() error {
	n.run.Lock()
	defer n.run.Unlock()
	if n.stop != nil {
		return fmt.Errorf("osc: notifier already running")
	}
	n.stop = make(chan struct{})
	n.done = make(chan struct{})
	go n.loop(n.stop, n.done)
	return nil
}

// Stop ends the drain loop after a final flush. Stopping a stopped
// notifier does nothing.
func (n *Notifier) Stop() {
	n.run.Lock()
	defer n.run.Unlock()
	if n.stop == nil {
		return
	}
	close(n.stop)
	<-n.done
	n.stop = nil
	n.done = nil
}

func (n *Notifier) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			n.flush()
			return
		case <-ticker.C:
			n.flush()
		}
	}
}

func (n *Notifier) flush() {
	n.queue.DrainEach(n.dispatch)
	if dropped := n.queue.TakeDropped(); dropped > 0 {
		debug.Warn("plugin %d dropped %d reports", n.pluginID, dropped)
	}
}

func (n *Notifier) dispatch(e event.PostEvent) {
	switch e.Type {
	case event.PostDebug:
		n.eng.Callback(engine.ActionDebug, n.pluginID, e.Value1, e.Value2, e.Value3, "")

	case event.PostParameterChange:
		// A non-zero Value2 means the change originated outside the
		// processing path; the application already knows and must not hear
		// its own change echoed back.
		if e.Value2 == 0 {
			n.eng.Callback(engine.ActionParameterValueChanged, n.pluginID, e.Value1, 0, e.Value3, "")
		}
		n.send("/param", e.Value1, e.Value3)

	case event.PostProgramChange:
		n.eng.Callback(engine.ActionProgramChanged, n.pluginID, e.Value1, 0, 0, "")
		n.send("/program", e.Value1)

	case event.PostMidiProgramChange:
		n.eng.Callback(engine.ActionMidiProgramChanged, n.pluginID, e.Value1, 0, 0, "")
		n.send("/midi_program", e.Value1)

	case event.PostNoteOn:
		n.eng.Callback(engine.ActionNoteOn, n.pluginID, e.Value1, e.Value2, e.Value3, "")
		n.send("/note_on", e.Value1, e.Value2, int32(e.Value3))

	case event.PostNoteOff:
		n.eng.Callback(engine.ActionNoteOff, n.pluginID, e.Value1, e.Value2, 0, "")
		n.send("/note_off", e.Value1, e.Value2)
	}
}

func (n *Notifier) send(path string, args ...interface{}) {
	n.mu.Lock()
	client := n.client
	n.mu.Unlock()
	if client == nil {
		return
	}

	msg := goosc.NewMessage(n.prefix + path)
	for _, a := range args {
		msg.Append(a)
	}
	if err := client.Send(msg); err != nil {
		debug.Warn("osc send %s%s: %v", n.prefix, path, err)
	}
}
