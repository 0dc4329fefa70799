// Package catalog holds the fixed, ordered list of artifacts shown on the landing page.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

var (
	// ErrMissingID is returned when an item has an empty identifier.
	ErrMissingID = errors.New("catalog: item without id")
	// ErrDuplicateID is returned when two items share an identifier.
	ErrDuplicateID = errors.New("catalog: duplicate item id")
	// ErrMissingName is returned when an item has no display name.
	ErrMissingName = errors.New("catalog: item without name")
)

// Item is a single catalog record. Items are read-only once loaded.
type Item struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Latin  string `yaml:"latin"`
	Image  string `yaml:"image"`
	Origin string `yaml:"origin"`
	Year   int    `yaml:"year"`
}

type catalogFile struct {
	Items []Item `yaml:"items"`
}

// Catalog is an immutable ordered sequence of items.
type Catalog struct {
	items []Item
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the catalog embedded in the binary. It is parsed on first use.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(embeddedCatalog)
	})
	return defaultCat, defaultErr
}

// LoadFile reads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse yaml: %w", err)
	}
	return New(f.Items)
}

// New builds a catalog from items, checking only their structural shape.
func New(items []Item) (*Catalog, error) {
	seen := make(map[string]struct{}, len(items))
	cp := make([]Item, 0, len(items))
	for i, it := range items {
		it.ID = strings.TrimSpace(it.ID)
		if it.ID == "" {
			return nil, fmt.Errorf("%w at position %d", ErrMissingID, i)
		}
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, it.ID)
		}
		if strings.TrimSpace(it.Name) == "" {
			return nil, fmt.Errorf("%w: %q", ErrMissingName, it.ID)
		}
		seen[it.ID] = struct{}{}
		cp = append(cp, it)
	}
	return &Catalog{items: cp}, nil
}

// Len reports the number of items.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Items returns a copy of all items in presentation order.
func (c *Catalog) Items() []Item {
	if c == nil {
		return []Item{}
	}
	cp := make([]Item, len(c.items))
	copy(cp, c.items)
	return cp
}

// Slice returns a copy of items[start:end], with both bounds clamped to the catalog.
func (c *Catalog) Slice(start, end int) []Item {
	n := c.Len()
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start >= end {
		return []Item{}
	}
	cp := make([]Item, end-start)
	copy(cp, c.items[start:end])
	return cp
}
