// Package prefs handles pingdeck view-state persistence.
//
// Filter selections, table layout, and the theme are stored as JSON
// values under fixed string keys in ~/.config/pingdeck/state.json. The
// store never raises to the caller: missing or corrupt data falls back
// to the caller's default, and write failures leave the in-memory value
// as the fallback of record. Persistence problems are not user-
// actionable, so they are absorbed here.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Keys for the durable view-state entries. The names are fixed; values
// stored under them must survive verbatim across restarts.
const (
	KeyStatusFilter     = "statusFilter"
	KeyEnvFilter        = "envFilter"
	KeyColumnWidths     = "dashboardTableColumnWidths"
	KeyColumnVisibility = "dashboardTableColumnVisibility"
	KeyTheme            = "theme"
)

const defaultStatePath = "~/.config/pingdeck/state.json"

// Store is a durable key-value store for view state. All methods are
// safe for concurrent use.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]json.RawMessage
}

// DefaultPath returns the default state file path.
func DefaultPath() string {
	return defaultStatePath
}

// Open reads the state file at path (empty uses the default) and
// returns a ready store. Any read or parse problem yields an empty
// store rather than an error.
func Open(path string) *Store {
	s := &Store{values: make(map[string]json.RawMessage)}

	resolved, err := resolvePath(path)
	if err != nil {
		return s
	}
	s.path = resolved

	data, err := os.ReadFile(resolved)
	if err != nil {
		return s // Missing file or unreadable storage: start fresh
	}
	var values map[string]json.RawMessage
	if err := json.Unmarshal(data, &values); err != nil {
		return s // Corrupt file: fall back to defaults
	}
	if values != nil {
		// A file holding literal "null" parses into a nil map; keep the
		// empty one so Save always has a live map to write into.
		s.values = values
	}
	return s
}

// Load decodes the value stored under key into dest. It returns false
// and leaves dest untouched when the key is absent or the stored value
// does not parse; callers pre-populate dest with their default.
func (s *Store) Load(key string, dest any) bool {
	s.mu.Lock()
	raw, ok := s.values[key]
	s.mu.Unlock()

	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

// Save stores value under key. The in-memory copy is updated first and
// unconditionally; mirroring to disk is best-effort and failures are
// silently ignored.
func (s *Store) Save(key string, value any) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.values[key] = encoded
	data, err := json.MarshalIndent(s.values, "", "  ")
	path := s.path
	s.mu.Unlock()

	if err != nil || path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0o644)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultStatePath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
