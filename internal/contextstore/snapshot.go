package contextstore

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SaveFile writes every user window to path as indented JSON so the store
// survives restarts.
func (s *Store) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	snapshot := make(map[string][]Exchange)
	s.mu.Lock()
	users := make(map[string]*userWindow, len(s.users))
	for id, w := range s.users {
		users[id] = w
	}
	s.mu.Unlock()
	for id, w := range users {
		w.mu.Lock()
		es := make([]Exchange, len(w.exchanges))
		copy(es, w.exchanges)
		w.mu.Unlock()
		snapshot[id] = es
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot)
}

// LoadFile restores windows from a snapshot written by SaveFile. A missing
// or empty file leaves the store untouched; windows longer than the
// capacity are trimmed to the newest entries.
func (s *Store) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)

	var snapshot map[string][]Exchange
	if err := json.NewDecoder(f).Decode(&snapshot); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode snapshot: %w", err)
	}
	for id, es := range snapshot {
		if len(es) > s.capacity {
			es = es[len(es)-s.capacity:]
		}
		w := s.window(id)
		w.mu.Lock()
		w.exchanges = es
		w.mu.Unlock()
	}
	return nil
}
