package store

import (
	"context"
	"sync"
	"time"
)

// Change event types published after a successful write.
const (
	EventApplicationCreated = "EVENT_APPLICATION_CREATED"
	EventApplicationUpdated = "EVENT_APPLICATION_UPDATED"
	EventApplicationDeleted = "EVENT_APPLICATION_DELETED"
)

// Change describes one committed write.
type Change struct {
	Type          string    `json:"type"`
	UserID        string    `json:"userId"`
	ApplicationID string    `json:"applicationId"`
	Fields        []string  `json:"fields,omitempty"`
	At            time.Time `json:"at"`
}

// Notifier fans change events out to the listeners of one user.
type Notifier interface {
	Publish(ctx context.Context, change Change) error
	Listen(ctx context.Context, userID string) (Listener, error)
}

// Listener receives change events until Close. Deliveries may be coalesced:
// a listener that has not drained C sees one pending event, not all of them.
type Listener interface {
	C() <-chan Change
	Close() error
}

// MemoryNotifier is an in-process Notifier.
type MemoryNotifier struct {
	mu        sync.Mutex
	listeners map[string]map[*memoryListener]struct{}
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{listeners: make(map[string]map[*memoryListener]struct{})}
}

func (n *MemoryNotifier) Publish(_ context.Context, change Change) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for l := range n.listeners[change.UserID] {
		offer(l.ch, change)
	}
	return nil
}

func (n *MemoryNotifier) Listen(_ context.Context, userID string) (Listener, error) {
	l := &memoryListener{n: n, userID: userID, ch: make(chan Change, 1)}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.listeners[userID] == nil {
		n.listeners[userID] = make(map[*memoryListener]struct{})
	}
	n.listeners[userID][l] = struct{}{}
	return l, nil
}

// Listeners returns the number of open listeners for userID.
func (n *MemoryNotifier) Listeners(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners[userID])
}

type memoryListener struct {
	n      *MemoryNotifier
	userID string
	ch     chan Change
	closed bool
}

func (l *memoryListener) C() <-chan Change { return l.ch }

func (l *memoryListener) Close() error {
	l.n.mu.Lock()
	defer l.n.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	delete(l.n.listeners[l.userID], l)
	if len(l.n.listeners[l.userID]) == 0 {
		delete(l.n.listeners, l.userID)
	}
	close(l.ch)
	return nil
}

// offer delivers change without blocking, replacing a pending event.
func offer(ch chan Change, change Change) {
	select {
	case ch <- change:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- change:
	default:
	}
}
