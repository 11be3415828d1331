package core

import (
	"context"
	"sync"
	"time"

	"gainjar/core/events"
)

// EventRecord is a committed event together with its position in the chain.
type EventRecord struct {
	Height    uint64
	TxHash    string
	Index     int
	Timestamp time.Time
	Type      string
	Attrs     map[string]string
}

// EventSink persists committed events, for example into an explorer index.
type EventSink interface {
	IndexEvents(ctx context.Context, records []EventRecord) error
}

// txBuffer collects events emitted while a transaction executes. They are
// published only after the transaction commits.
type txBuffer struct {
	events []events.Event
}

func (b *txBuffer) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	b.events = append(b.events, evt)
}

func (b *txBuffer) drain() []events.Event {
	out := b.events
	b.events = nil
	return out
}

func (b *txBuffer) reset() { b.events = nil }

type eventHub struct {
	mu   sync.Mutex
	next int
	subs map[int]chan EventRecord
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[int]chan EventRecord)}
}

func (h *eventHub) subscribe(buffer int) (<-chan EventRecord, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan EventRecord, buffer)
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// publish never blocks; a subscriber that falls behind misses records.
func (h *eventHub) publish(record EventRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- record:
		default:
		}
	}
}
