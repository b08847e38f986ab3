// Package prefs persists local display preferences.
//
// The preferences file (~/.local/state/fileconverter/prefs.json) is
// independent of the service configuration. Writes are serialized through
// a lock file so concurrent fc processes do not lose updates.
package prefs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Prefs represents the persisted preferences file.
type Prefs struct {
	DarkMode bool `json:"dark_mode"`
}

// Store manages the preferences file with locking.
type Store struct {
	dir string
}

// NewStore creates a preferences store using the given directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) prefsPath() string {
	return filepath.Join(s.dir, "prefs.json")
}

func (s *Store) lockPath() string {
	return filepath.Join(s.dir, "prefs.lock")
}

// Load reads preferences from disk. A missing file yields the defaults.
func (s *Store) Load() (Prefs, error) {
	data, err := os.ReadFile(s.prefsPath())
	if os.IsNotExist(err) {
		return Prefs{}, nil
	}
	if err != nil {
		return Prefs{}, fmt.Errorf("read prefs file: %w", err)
	}

	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return Prefs{}, fmt.Errorf("unmarshal prefs: %w", err)
	}
	return p, nil
}

// Save writes preferences to disk.
func (s *Store) Save(p Prefs) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if existing, err := os.ReadFile(s.prefsPath()); err == nil {
		if bytes.Equal(existing, data) {
			return nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read prefs file: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.dir, filepath.Base(s.prefsPath())+".tmp")
	if err != nil {
		return fmt.Errorf("create temp prefs file: %w", err)
	}
	name := tmpFile.Name()
	_, err = tmpFile.Write(data)
	if err1 := tmpFile.Close(); err1 != nil && err == nil {
		err = err1
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("write temp prefs file: %w", err)
	}

	if err := os.Rename(name, s.prefsPath()); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename prefs file: %w", err)
	}
	return nil
}

// Update reads, modifies, and writes preferences under an exclusive lock.
func (s *Store) Update(fn func(p *Prefs) error) (Prefs, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Prefs{}, fmt.Errorf("create prefs dir: %w", err)
	}

	lockFile, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return Prefs{}, fmt.Errorf("open lock file: %w", err)
	}
	defer lockFile.Close()

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		return Prefs{}, fmt.Errorf("acquire lock: %w", err)
	}
	defer syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)

	p, err := s.Load()
	if err != nil {
		return Prefs{}, err
	}
	if err := fn(&p); err != nil {
		return Prefs{}, err
	}
	if err := s.Save(p); err != nil {
		return Prefs{}, err
	}
	return p, nil
}

// SetDarkMode persists the theme preference.
func (s *Store) SetDarkMode(dark bool) (Prefs, error) {
	return s.Update(func(p *Prefs) error {
		p.DarkMode = dark
		return nil
	})
}

// ToggleDarkMode flips the theme preference.
func (s *Store) ToggleDarkMode() (Prefs, error) {
	return s.Update(func(p *Prefs) error {
		p.DarkMode = !p.DarkMode
		return nil
	})
}
