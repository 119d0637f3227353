// Package progress broadcasts pipeline snapshots to observers.
package progress

import (
	"log/slog"
	"sync"

	"ContentGenesis/internal/domain"
)

// Subscriber receives every published snapshot.
type Subscriber func(domain.PipelineState)

type subscription struct {
	id uint64
	fn Subscriber
}

// Bus delivers snapshots synchronously, in registration order. The
// subscriber list is guarded so observers may attach and detach while a run
// is publishing.
type Bus struct {
	mu     sync.Mutex
	subs   []subscription
	nextID uint64
	logger *slog.Logger
}

// NewBus creates an empty bus. logger may be nil.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers fn and returns its disposer. Calling the disposer more
// than once is a no-op.
func (b *Bus) Subscribe(fn Subscriber) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish hands the same snapshot to every current subscriber. A panicking
// subscriber is recovered and does not prevent delivery to the others.
func (b *Bus) Publish(state domain.PipelineState) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		b.deliver(s, state)
	}
}

func (b *Bus) deliver(s subscription, state domain.PipelineState) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.Error("subscriber panicked", "subscriber", s.id, "panic", r)
		}
	}()
	s.fn(state)
}

// Len returns the number of registered subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
