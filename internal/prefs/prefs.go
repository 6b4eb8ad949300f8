// Package prefs persists small client preferences (theme, push token,
// seen notification ids) as a JSON file keyed by string. Writes go
// through a temp file + rename like the token file store, so a crash
// never corrupts the preference file.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// Well-known preference keys.
const (
	KeyTheme             = "theme"
	KeyPushToken         = "push_token"
	KeySeenNotifications = "seen_notifications"
)

// Store is a string-keyed preference store backed by one JSON file.
// Safe for concurrent use within a process.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a Store at the given path, creating parent directories if
// needed.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	return &Store{path: path}, nil
}

// Get returns the value for key, or ok=false when absent.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return "", false, err
	}
	value, ok = data[key]
	return value, ok, nil
}

// Set stores the value for key.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	data[key] = value
	return s.save(data)
}

// Remove deletes the key. Removing an absent key is not an error.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return s.save(data)
}

// Theme returns the stored theme preference, or ok=false when unset.
func (s *Store) Theme() (string, bool, error) {
	return s.Get(KeyTheme)
}

// SetTheme stores the theme preference.
func (s *Store) SetTheme(theme string) error {
	return s.Set(KeyTheme, theme)
}

// PushToken returns the stored push-notification token.
func (s *Store) PushToken() (string, bool, error) {
	return s.Get(KeyPushToken)
}

// SetPushToken stores the push-notification token.
func (s *Store) SetPushToken(token string) error {
	return s.Set(KeyPushToken, token)
}

// SeenNotifications returns the ids of notifications already shown.
func (s *Store) SeenNotifications() ([]string, error) {
	value, ok, err := s.Get(KeySeenNotifications)
	if err != nil || !ok {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal([]byte(value), &ids); err != nil {
		return nil, fmt.Errorf("corrupt seen-notification list: %w", err)
	}
	return ids, nil
}

// MarkNotificationSeen records a notification id as shown. Already-seen
// ids are kept once.
func (s *Store) MarkNotificationSeen(id string) error {
	ids, err := s.SeenNotifications()
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}

	encoded, err := json.Marshal(append(ids, id))
	if err != nil {
		return err
	}
	return s.Set(KeySeenNotifications, string(encoded))
}

// load reads the preference file. A missing file is an empty store.
func (s *Store) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	data := map[string]string{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("corrupt preference file %s: %w", s.path, err)
	}
	return data, nil
}

// save atomically replaces the preference file.
func (s *Store) save(data map[string]string) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	defer func() { _ = tmp.Close() }()

	if _, err := tmp.Write(encoded); err != nil {
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, s.path)
}
