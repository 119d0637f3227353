package logbuf

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentGenesis/internal/domain"
)

func entry(i int) domain.LogEntry {
	return domain.LogEntry{Message: fmt.Sprintf("line %d", i), Level: domain.LevelInfo}
}

func messages(entries []domain.LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

func TestBufferBelowCapacity(t *testing.T) {
	t.Parallel()

	b := New(5)
	for i := 0; i < 3; i++ {
		b.Append(entry(i))
	}

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []string{"line 0", "line 1", "line 2"}, messages(b.Snapshot()))
}

func TestBufferEvictsOldest(t *testing.T) {
	t.Parallel()

	b := New(4)
	for i := 0; i < 11; i++ {
		b.Append(entry(i))
	}

	snap := b.Snapshot()
	require.Len(t, snap, 4)
	assert.Equal(t, []string{"line 7", "line 8", "line 9", "line 10"}, messages(snap))
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	b := New(2)
	b.Append(entry(0))
	snap := b.Snapshot()
	snap[0].Message = "mutated"

	assert.Equal(t, "line 0", b.Snapshot()[0].Message)
}

func TestEmptyAndReset(t *testing.T) {
	t.Parallel()

	b := New(0)
	assert.Equal(t, DefaultCapacity, b.Cap())
	assert.Empty(t, b.Snapshot())

	b.Append(entry(1))
	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Snapshot())
}

func TestConcurrentAppend(t *testing.T) {
	t.Parallel()

	b := New(50)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.Append(entry(i))
				_ = b.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, b.Len())
}
