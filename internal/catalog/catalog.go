// Package catalog flattens the curriculum tree into the ordered list of items
// the Genesis pipeline walks.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ContentGenesis/internal/domain"
)

//go:embed curriculum.yaml
var defaultCurriculum []byte

// Node is one entry of the curriculum tree. Nodes without children are items.
type Node struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	KeyPoints   []string `yaml:"keyPoints"`
	Children    []Node   `yaml:"children"`
}

// Tree is the document root.
type Tree struct {
	Tracks []Node `yaml:"tracks"`
}

// Index is the read-only, flattened view of a curriculum.
type Index struct {
	items []domain.ContentItem
}

// Default builds the index from the embedded curriculum.
func Default() (*Index, error) {
	return Parse(defaultCurriculum)
}

// Load builds the index from a YAML file, or the embedded curriculum when path is empty.
func Load(path string) (*Index, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read curriculum %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a curriculum document and flattens it.
func Parse(raw []byte) (*Index, error) {
	var tree Tree
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("decode curriculum: %w", err)
	}
	return FromTree(tree)
}

// FromTree flattens tree leaves in pre-order, rejecting empty or repeated ids.
func FromTree(tree Tree) (*Index, error) {
	idx := &Index{}
	seen := map[string]struct{}{}
	for _, track := range tree.Tracks {
		if err := idx.walk(track, seen); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func (idx *Index) walk(n Node, seen map[string]struct{}) error {
	if len(n.Children) > 0 {
		for _, child := range n.Children {
			if err := idx.walk(child, seen); err != nil {
				return err
			}
		}
		return nil
	}

	id := strings.TrimSpace(n.ID)
	if id == "" {
		return fmt.Errorf("curriculum item %q has no id", n.Title)
	}
	if _, dup := seen[id]; dup {
		return fmt.Errorf("curriculum item id %s is repeated", id)
	}
	seen[id] = struct{}{}

	keyPoints := make([]string, len(n.KeyPoints))
	copy(keyPoints, n.KeyPoints)
	idx.items = append(idx.items, domain.ContentItem{
		ID:          id,
		Title:       n.Title,
		Description: n.Description,
		KeyPoints:   keyPoints,
	})
	return nil
}

// Items returns a copy of the flattened items in walk order.
func (idx *Index) Items() []domain.ContentItem {
	out := make([]domain.ContentItem, len(idx.items))
	copy(out, idx.items)
	return out
}

// Total returns the number of items.
func (idx *Index) Total() int {
	return len(idx.items)
}

// Lookup finds an item by id.
func (idx *Index) Lookup(id string) (domain.ContentItem, bool) {
	for _, item := range idx.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.ContentItem{}, false
}

// NewIndex wraps an already flat list, mostly for tests and tooling.
func NewIndex(items []domain.ContentItem) *Index {
	out := make([]domain.ContentItem, len(items))
	copy(out, items)
	return &Index{items: out}
}
