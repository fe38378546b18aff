package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// SessionKey is the well-known key the session is stored under.
const SessionKey = "hazard_session"

const sessionFile = "session.json"

// Session is the client-side cache of a login. The server re-verifies the token on
// every call, so clearing it is enough to log out locally.
type Session struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Role        string    `json:"role"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionStore persists one Session as JSON under SessionKey in <dir>/session.json.
type SessionStore struct {
	path   string
	logger *logrus.Logger
}

func NewSessionStore(dir string, logger *logrus.Logger) *SessionStore {
	return &SessionStore{path: filepath.Join(dir, sessionFile), logger: logger}
}

// DefaultDir is the per-user config directory for the CLI.
func DefaultDir() string {
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "hazardctl")
	}
	return ".hazardctl"
}

func (s *SessionStore) Path() string { return s.path }

// Load returns the stored session, or nil when none is stored. Unparsable content is
// removed and treated as no session.
func (s *SessionStore) Load() (*Session, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc map[string]*Session
	if err := json.Unmarshal(b, &doc); err != nil || doc[SessionKey] == nil || doc[SessionKey].AccessToken == "" {
		if s.logger != nil {
			s.logger.WithField("path", s.path).Warn("discarding corrupt session")
		}
		_ = os.Remove(s.path)
		return nil, nil
	}
	return doc[SessionKey], nil
}

func (s *SessionStore) Save(sess *Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(map[string]*Session{SessionKey: sess}, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Clear removes the stored session. Clearing an empty store is not an error.
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
