package element

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Load replaces the table contents with the entries stored at path.
// A missing file leaves the table empty.
func (t *Table) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	next := NewTable()
	for _, e := range entries {
		if err := next.Set(e.ID, e.Rect); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	t.mu.Lock()
	t.rects = next.rects
	t.mu.Unlock()
	return nil
}

// Save writes the table to path, creating parent directories as needed.
func (t *Table) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(t.Entries(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
