// Package session persists the logged-in user between invocations.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// User is the logged-in FlowTrack user.
type User struct {
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	EmailAddress string `json:"emailAddress"`
}

// DisplayName returns the first name, falling back to the email address.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.FirstName) != "" {
		return u.FirstName
	}
	return u.EmailAddress
}

// Store reads and writes the session file.
type Store struct {
	path string
}

// NewStore returns a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the stored user, or nil if nobody is logged in.
func (s *Store) Load() (*User, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("invalid session file: %w", err)
	}
	if u.EmailAddress == "" {
		return nil, fmt.Errorf("invalid session file: missing emailAddress")
	}
	return &u, nil
}

// Save writes the user with mode 0600, creating the parent directory.
func (s *Store) Save(u User) error {
	if strings.TrimSpace(u.EmailAddress) == "" {
		return fmt.Errorf("email address required")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Clear removes the session. It reports whether a session existed.
func (s *Store) Clear() (bool, error) {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
