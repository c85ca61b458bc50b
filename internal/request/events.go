package request

import "sync"

// EventType distinguishes the events a Request can emit. Only the fields
// spec.md calls out as observed by consumers — credentials and status — get
// a change event; there is no generic property-change mechanism.
type EventType string

const (
	// CredentialChanged fires whenever a Credentials setter is called,
	// including the implicit access_token rewrite performed by a
	// refresh-then-replay.
	CredentialChanged EventType = "credential_changed"
	// StatusChanged fires on every state-machine transition.
	StatusChanged EventType = "status_changed"
	// Finished fires exactly once per Execute on the channel Execute
	// returned, after status/result have reached their terminal values.
	// Subscribers receive it only for an Execute that was not superseded
	// by a newer one.
	Finished EventType = "finished"
)

// Event is the single notification type delivered over a Request's event
// channel.
type Event struct {
	Type   EventType
	Field  string // set for CredentialChanged
	Status Status // set for StatusChanged and Finished
}

// hub is an in-process register/unregister/broadcast dispatcher, the same
// shape as a WebSocket hub's client registry with the network layer removed:
// a mutex guards the subscriber set and serializes delivery so a slow or
// absent subscriber cannot corrupt it.
type hub struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
}

func newHub() *hub {
	return &hub{subscribers: make(map[chan Event]struct{})}
}

// subscribe returns a buffered channel that receives every future event.
// Callers that don't want to miss CredentialChanged/StatusChanged events
// must subscribe before calling Execute.
func (h *hub) subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// publish delivers ev to every current subscriber, dropping it for a
// subscriber whose buffer is full rather than blocking the Request's own
// state machine goroutine.
func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
