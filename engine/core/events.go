package core

import (
	"sync"

	"github.com/spaghettifunk/chiaro/engine/containers"
)

// EventContext carries a small fixed payload with a fired event.
type EventContext struct {
	Data struct {
		I32 [4]int32
		U32 [4]uint32
		F32 [4]float32
		C   [4]string
	}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Keyboard key pressed.
	/* Context usage:
	 * string key = data.data.c[0];
	 */
	EVENT_CODE_KEY_PRESSED SystemEventCode = 0x02

	// Keyboard key released.
	/* Context usage:
	 * string key = data.data.c[0];
	 */
	EVENT_CODE_KEY_RELEASED SystemEventCode = 0x03

	// Resized/resolution changed from the presenter.
	/* Context usage:
	 * i32 width = data.data.i32[0];
	 * i32 height = data.data.i32[1];
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	// Renderer tunables file changed on disk and was re-parsed.
	EVENT_CODE_CONFIG_RELOADED SystemEventCode = 0x10

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listener interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type queuedEvent struct {
	code    SystemEventCode
	sender  interface{}
	context EventContext
}

const postedQueueSize = 256

// EventBus dispatches events to registered listeners. Fire dispatches
// synchronously on the calling goroutine. Post enqueues from any goroutine;
// the owner drains posted events on its own loop with DrainPosted, which is
// how presenter and watcher goroutines hand work to the frame thread.
type EventBus struct {
	registered map[SystemEventCode][]*registeredEvent

	mu     sync.Mutex
	posted *containers.RingQueue[queuedEvent]
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[SystemEventCode][]*registeredEvent),
		posted:     containers.NewRingQueue[queuedEvent](postedQueueSize),
	}
}

// Register adds a listener for the given code. Duplicate listener
// registrations for the same code are rejected.
func (eb *EventBus) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	for _, e := range eb.registered[code] {
		if e.listener == listener {
			LogWarn("event listener already registered for code %#x", int(code))
			return false
		}
	}
	eb.registered[code] = append(eb.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// Unregister removes a previously registered listener for the given code.
func (eb *EventBus) Unregister(code SystemEventCode, listener interface{}) bool {
	events := eb.registered[code]
	for i, e := range events {
		if e.listener == listener {
			eb.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// Fire sends an event to listeners of the given code. If a handler returns
// true the event is considered handled and is not passed to later listeners.
func (eb *EventBus) Fire(code SystemEventCode, sender interface{}, context EventContext) bool {
	for _, e := range eb.registered[code] {
		if e.callback(code, sender, e.listener, context) {
			return true
		}
	}
	return false
}

// Post enqueues an event from any goroutine. Events are dropped with a
// warning when the queue is full rather than blocking the sender.
func (eb *EventBus) Post(code SystemEventCode, sender interface{}, context EventContext) {
	eb.mu.Lock()
	err := eb.posted.Enqueue(queuedEvent{code: code, sender: sender, context: context})
	eb.mu.Unlock()
	if err != nil {
		LogWarn("event queue full, dropping event %#x", int(code))
	}
}

// DrainPosted fires all posted events on the calling goroutine.
func (eb *EventBus) DrainPosted() {
	for {
		eb.mu.Lock()
		ev, err := eb.posted.Dequeue()
		eb.mu.Unlock()
		if err != nil {
			return
		}
		eb.Fire(ev.code, ev.sender, ev.context)
	}
}
