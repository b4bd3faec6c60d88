package core

import (
	"sync"
	"testing"
)

func TestEventBusFire(t *testing.T) {
	eb := NewEventBus()
	listener := &struct{ name string }{"game"}
	sender := &struct{ name string }{"renderer"}

	var got []int32
	ok := eb.Register(EVENT_CODE_RESIZED, listener, func(code SystemEventCode, s, l interface{}, data EventContext) bool {
		if code != EVENT_CODE_RESIZED || s != sender || l != listener {
			t.Errorf("handler got code %#x sender %v listener %v", int(code), s, l)
		}
		got = append(got, data.Data.I32[0], data.Data.I32[1])
		return true
	})
	if !ok {
		t.Fatalf("registration failed")
	}

	var ctx EventContext
	ctx.Data.I32[0] = 320
	ctx.Data.I32[1] = 200
	if !eb.Fire(EVENT_CODE_RESIZED, sender, ctx) {
		t.Errorf("a handled event should report true")
	}
	if len(got) != 2 || got[0] != 320 || got[1] != 200 {
		t.Errorf("payload = %v, want [320 200]", got)
	}

	if eb.Fire(EVENT_CODE_APPLICATION_QUIT, sender, EventContext{}) {
		t.Errorf("firing a code with no listeners should report false")
	}
}

func TestEventBusHandledStopsPropagation(t *testing.T) {
	eb := NewEventBus()
	first := "first"
	second := "second"

	calls := []string{}
	eb.Register(EVENT_CODE_KEY_PRESSED, first, func(code SystemEventCode, s, l interface{}, data EventContext) bool {
		calls = append(calls, "first")
		return true
	})
	eb.Register(EVENT_CODE_KEY_PRESSED, second, func(code SystemEventCode, s, l interface{}, data EventContext) bool {
		calls = append(calls, "second")
		return false
	})

	eb.Fire(EVENT_CODE_KEY_PRESSED, nil, EventContext{})
	if len(calls) != 1 || calls[0] != "first" {
		t.Errorf("calls = %v, want the handled event to stop at the first listener", calls)
	}

	// An unhandled pass reaches everyone, in registration order.
	eb.Unregister(EVENT_CODE_KEY_PRESSED, first)
	eb.Register(EVENT_CODE_KEY_PRESSED, first, func(code SystemEventCode, s, l interface{}, data EventContext) bool {
		calls = append(calls, "first")
		return false
	})

	calls = calls[:0]
	eb.Fire(EVENT_CODE_KEY_PRESSED, nil, EventContext{})
	if len(calls) != 2 || calls[0] != "second" || calls[1] != "first" {
		t.Errorf("calls = %v, want both listeners in registration order", calls)
	}
}

func TestEventBusDuplicateRegistration(t *testing.T) {
	eb := NewEventBus()
	listener := "app"
	handler := func(code SystemEventCode, s, l interface{}, data EventContext) bool { return false }

	if !eb.Register(EVENT_CODE_APPLICATION_QUIT, listener, handler) {
		t.Fatalf("first registration failed")
	}
	if eb.Register(EVENT_CODE_APPLICATION_QUIT, listener, handler) {
		t.Errorf("duplicate registration should be rejected")
	}
	// The same listener may still subscribe to another code.
	if !eb.Register(EVENT_CODE_KEY_PRESSED, listener, handler) {
		t.Errorf("same listener on another code should register")
	}
}

func TestEventBusUnregister(t *testing.T) {
	eb := NewEventBus()
	listener := "app"

	fired := 0
	eb.Register(EVENT_CODE_CONFIG_RELOADED, listener, func(code SystemEventCode, s, l interface{}, data EventContext) bool {
		fired++
		return true
	})
	if !eb.Unregister(EVENT_CODE_CONFIG_RELOADED, listener) {
		t.Errorf("unregistering a present listener should report true")
	}
	if eb.Unregister(EVENT_CODE_CONFIG_RELOADED, listener) {
		t.Errorf("unregistering twice should report false")
	}

	eb.Fire(EVENT_CODE_CONFIG_RELOADED, nil, EventContext{})
	if fired != 0 {
		t.Errorf("unregistered listener still fired %d times", fired)
	}
}

func TestEventBusPostDrain(t *testing.T) {
	eb := NewEventBus()

	var got []int32
	eb.Register(EVENT_CODE_KEY_PRESSED, "game", func(code SystemEventCode, s, l interface{}, data EventContext) bool {
		got = append(got, data.Data.I32[0])
		return true
	})

	// Posting happens off the frame goroutine; draining happens on it.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int32(1); i <= 3; i++ {
			var ctx EventContext
			ctx.Data.I32[0] = i
			eb.Post(EVENT_CODE_KEY_PRESSED, nil, ctx)
		}
	}()
	wg.Wait()

	if len(got) != 0 {
		t.Fatalf("posted events must not fire before the drain")
	}
	eb.DrainPosted()
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("drained payloads = %v, want [1 2 3] in post order", got)
	}

	// A drained queue is empty; draining again is a no-op.
	eb.DrainPosted()
	if len(got) != 3 {
		t.Errorf("second drain refired events")
	}
}

func TestEventBusPostDropsWhenFull(t *testing.T) {
	eb := NewEventBus()

	seen := 0
	eb.Register(EVENT_CODE_KEY_PRESSED, "game", func(code SystemEventCode, s, l interface{}, data EventContext) bool {
		seen++
		return true
	})

	for i := 0; i < postedQueueSize+10; i++ {
		eb.Post(EVENT_CODE_KEY_PRESSED, nil, EventContext{})
	}
	eb.DrainPosted()
	if seen != postedQueueSize {
		t.Errorf("drained %d events, want the queue capacity %d with the overflow dropped", seen, postedQueueSize)
	}
}
