package broadcast

import (
	"context"
	"sync"

	"github.com/rcoppens/tableminer/internal/core/domain"
)

const defaultBuffer = 64

// Hub is the process-wide progress fan-out. One writer (the running
// extraction) publishes; any number of observers subscribe. Publish never
// blocks: when an observer's buffer is full the event is dropped for that
// observer only.
type Hub struct {
	buffer int
	onDrop func()

	mu   sync.RWMutex
	subs map[chan domain.ProgressEvent]struct{}
}

type Option func(*Hub)

// WithDropCounter registers a callback invoked once per event dropped for a
// slow observer.
func WithDropCounter(fn func()) Option {
	return func(h *Hub) { h.onDrop = fn }
}

func NewHub(buffer int, opts ...Option) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	h := &Hub{
		buffer: buffer,
		subs:   make(map[chan domain.ProgressEvent]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish delivers the event to every currently subscribed observer in
// publish order.
func (h *Hub) Publish(event domain.ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- event:
		default:
			if h.onDrop != nil {
				h.onDrop()
			}
		}
	}
}

// Subscribe registers an observer. The returned channel yields events
// published after this call; it is closed when cancel runs or the context
// ends. cancel is idempotent.
func (h *Hub) Subscribe(ctx context.Context) (<-chan domain.ProgressEvent, func()) {
	ch := make(chan domain.ProgressEvent, h.buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() { h.remove(ch) }
	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}
	return ch, cancel
}

// SubscriberCount returns the number of currently connected observers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(ch chan domain.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[ch]; !ok {
		return
	}
	delete(h.subs, ch)
	// Safe: Publish holds the read lock while sending, so nobody can be
	// mid-send on ch once the write lock is held.
	close(ch)
}
