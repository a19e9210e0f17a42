package identity

import (
	"sync"
)

const observerBuffer = 16

// Subscription is an active session observer.
type Subscription struct {
	cancel func()
	done   chan struct{}
}

// Cancel stops delivery. It is safe to call more than once.
func (s *Subscription) Cancel() { s.cancel() }

// Done is closed once the subscription is cancelled or replaced by a newer
// observer for the same client.
func (s *Subscription) Done() <-chan struct{} { return s.done }

type observer struct {
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func (o *observer) stop() {
	o.once.Do(func() { close(o.done) })
}

// observers holds at most one observer per client. Each observer has its own
// goroutine so callbacks for one client run one at a time, in publish order.
type observers struct {
	mu   sync.Mutex
	subs map[string]*observer
	// dropped is called when an observer's buffer is full.
	dropped func(clientID string, ev Event)
}

func newObservers(dropped func(string, Event)) *observers {
	return &observers{
		subs:    make(map[string]*observer),
		dropped: dropped,
	}
}

func (h *observers) subscribe(clientID string, callback func(Event)) *Subscription {
	o := &observer{
		events: make(chan Event, observerBuffer),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if old, ok := h.subs[clientID]; ok {
		old.stop()
	}
	h.subs[clientID] = o
	h.mu.Unlock()

	go func() {
		for {
			select {
			case <-o.done:
				return
			case ev := <-o.events:
				callback(ev)
			}
		}
	}()

	return &Subscription{
		done: o.done,
		cancel: func() {
			h.mu.Lock()
			if h.subs[clientID] == o {
				delete(h.subs, clientID)
			}
			h.mu.Unlock()
			o.stop()
		},
	}
}

func (h *observers) publish(clientID string, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	o, ok := h.subs[clientID]
	if !ok {
		return
	}
	select {
	case o.events <- ev:
	default:
		if h.dropped != nil {
			h.dropped(clientID, ev)
		}
	}
}

func (h *observers) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
