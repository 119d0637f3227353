// Package logbuf keeps the most recent pipeline log lines in memory.
package logbuf

import (
	"sync"

	"ContentGenesis/internal/domain"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 100

// Buffer is a fixed-size circular buffer of log entries. Oldest entries are
// overwritten once the buffer is full. Safe for concurrent use.
type Buffer struct {
	mu    sync.Mutex
	buf   []domain.LogEntry
	size  int
	head  int // next write position
	count int
}

// New creates a buffer holding at most capacity entries.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		buf:  make([]domain.LogEntry, capacity),
		size: capacity,
	}
}

// Append adds an entry, evicting the oldest if full.
func (b *Buffer) Append(e domain.LogEntry) {
	b.mu.Lock()
	b.buf[b.head] = e
	b.head = (b.head + 1) % b.size
	if b.count < b.size {
		b.count++
	}
	b.mu.Unlock()
}

// Snapshot returns a copy of all entries, oldest first.
func (b *Buffer) Snapshot() []domain.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]domain.LogEntry, b.count)
	if b.count < b.size {
		copy(result, b.buf[:b.count])
	} else {
		n := copy(result, b.buf[b.head:])
		copy(result[n:], b.buf[:b.head])
	}
	return result
}

// Reset drops every entry.
func (b *Buffer) Reset() {
	b.mu.Lock()
	clear(b.buf)
	b.head = 0
	b.count = 0
	b.mu.Unlock()
}

// Len returns the number of buffered entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return b.size
}
