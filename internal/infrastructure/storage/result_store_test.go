package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentGenesis/internal/domain"
)

func openStore(t *testing.T, dsn string) *SQLResultStore {
	t.Helper()
	db, err := OpenDB("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLResultStore(context.Background(), db, "sqlite")
	require.NoError(t, err)
	return store
}

func TestSetGetHas(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "results.db"))
	ctx := context.Background()

	has, err := store.Has(ctx, "net.tcp")
	require.NoError(t, err)
	assert.False(t, has)

	_, ok, err := store.Get(ctx, "net.tcp")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 3, 4, 5, 6, 7, 890, time.UTC)
	want := domain.GenerationResult{
		ItemID:       "net.tcp",
		Content:      "# TCP",
		Sources:      []string{"https://a", "https://b"},
		ProviderUsed: domain.ProviderA,
		GeneratedAt:  at,
	}
	require.NoError(t, store.Set(ctx, want))

	has, err = store.Has(ctx, "net.tcp")
	require.NoError(t, err)
	assert.True(t, has)

	got, ok, err := store.Get(ctx, "net.tcp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.ItemID, got.ItemID)
	assert.Equal(t, want.Content, got.Content)
	assert.Equal(t, want.Sources, got.Sources)
	assert.Equal(t, want.ProviderUsed, got.ProviderUsed)
	assert.True(t, want.GeneratedAt.Equal(got.GeneratedAt))
}

func TestSetLastWriteWins(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "results.db"))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, domain.GenerationResult{ItemID: "x", Content: "one", ProviderUsed: domain.ProviderLocal}))
	require.NoError(t, store.Set(ctx, domain.GenerationResult{ItemID: "x", Content: "two", ProviderUsed: domain.ProviderB}))

	got, ok, err := store.Get(ctx, "x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "two", got.Content)
	assert.Equal(t, domain.ProviderB, got.ProviderUsed)
	assert.Empty(t, got.Sources)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestResultsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	ctx := context.Background()

	db, err := OpenDB("sqlite", path)
	require.NoError(t, err)
	store, err := NewSQLResultStore(ctx, db, "sqlite")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, domain.GenerationResult{ItemID: "kept", Content: "c", ProviderUsed: domain.ProviderA}))
	require.NoError(t, db.Close())

	reopened := openStore(t, path)
	has, err := reopened.Has(ctx, "kept")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestSetRejectsEmptyID(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "results.db"))

	err := store.Set(context.Background(), domain.GenerationResult{})
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestClosedDatabaseIsPersistenceError(t *testing.T) {
	db, err := OpenDB("sqlite", filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	store, err := NewSQLResultStore(context.Background(), db, "sqlite")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = store.Has(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrPersistence)
	err = store.Set(context.Background(), domain.GenerationResult{ItemID: "x"})
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestInMemoryDSN(t *testing.T) {
	store := openStore(t, ":memory:")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, domain.GenerationResult{ItemID: "m", Content: "c", ProviderUsed: domain.ProviderA}))
	has, err := store.Has(ctx, "m")
	require.NoError(t, err)
	assert.True(t, has)
}
