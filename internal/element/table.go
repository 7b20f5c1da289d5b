// Package element keeps the host's table of UI element geometry.
package element

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/frudas24/qaagent/internal/geom"
)

// ErrNotFound reports an element id with no registered geometry.
var ErrNotFound = errors.New("element not found")

// Entry is one registered element.
type Entry struct {
	ID   string    `json:"id"`
	Rect geom.Rect `json:"rect"`
}

// Table maps element ids to their current on-screen rectangle.
type Table struct {
	mu    sync.RWMutex
	rects map[string]geom.Rect
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{rects: make(map[string]geom.Rect)}
}

// Set registers or replaces the geometry of id.
func (t *Table) Set(id string, r geom.Rect) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("element id is empty")
	}
	r = geom.Normalize(r)
	if r.Empty() {
		return fmt.Errorf("element %q has an empty rectangle", id)
	}
	t.mu.Lock()
	t.rects[id] = r
	t.mu.Unlock()
	return nil
}

// Remove forgets id and reports whether it was present.
func (t *Table) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rects[id]; !ok {
		return false
	}
	delete(t.rects, id)
	return true
}

// Resolve returns the current rectangle of id.
func (t *Table) Resolve(_ context.Context, id string) (geom.Rect, error) {
	t.mu.RLock()
	r, ok := t.rects[id]
	t.mu.RUnlock()
	if !ok {
		return geom.Rect{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, nil
}

// Entries returns a snapshot sorted by id.
func (t *Table) Entries() []Entry {
	t.mu.RLock()
	out := make([]Entry, 0, len(t.rects))
	for id, r := range t.rects {
		out = append(out, Entry{ID: id, Rect: r})
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
