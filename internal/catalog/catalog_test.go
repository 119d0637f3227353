package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentGenesis/internal/domain"
)

func ids(items []domain.ContentItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestParseFlattensDepthFirst(t *testing.T) {
	t.Parallel()

	raw := []byte(`
tracks:
  - id: a
    children:
      - id: a.1
        children:
          - id: a.1.x
            title: X
            keyPoints: [one, two]
          - id: a.1.y
      - id: a.2
  - id: b
    children:
      - id: b.1
`)
	idx, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, 4, idx.Total())
	assert.Equal(t, []string{"a.1.x", "a.1.y", "a.2", "b.1"}, ids(idx.Items()))

	item, ok := idx.Lookup("a.1.x")
	require.True(t, ok)
	assert.Equal(t, "X", item.Title)
	assert.Equal(t, []string{"one", "two"}, item.KeyPoints)
}

func TestOrderIsStableAcrossLoads(t *testing.T) {
	t.Parallel()

	first, err := Default()
	require.NoError(t, err)
	second, err := Default()
	require.NoError(t, err)

	assert.Equal(t, ids(first.Items()), ids(second.Items()))
	assert.Greater(t, first.Total(), 5)
	assert.Equal(t, "foundations.binary.bits", first.Items()[0].ID)
}

func TestRejectsDuplicateAndEmptyIDs(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("tracks:\n  - id: a\n    children:\n      - id: x\n      - id: x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repeated")

	_, err = Parse([]byte("tracks:\n  - title: nameless\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no id")
}

func TestItemsReturnsCopy(t *testing.T) {
	t.Parallel()

	idx := NewIndex([]domain.ContentItem{{ID: "one"}, {ID: "two"}})
	items := idx.Items()
	items[0].ID = "changed"

	assert.Equal(t, []string{"one", "two"}, ids(idx.Items()))
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "curriculum.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracks:\n  - id: solo\n    title: Solo\n"), 0o600))

	idx, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, ids(idx.Items()))

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
