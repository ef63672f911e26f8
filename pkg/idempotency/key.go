// Package idempotency issues the keys sent in the Idempotency-Key header of
// appointment creation requests.
package idempotency

import (
	"sync"

	"github.com/google/uuid"
)

// Header is the request header carrying the key.
const Header = "Idempotency-Key"

// MaxLength is the longest key the backend accepts.
const MaxLength = 36

// NewKey returns a random UUID in its 36 character canonical form.
func NewKey() string {
	return uuid.NewString()
}

// Submission holds the key of one user action. Every retry or duplicate submit
// of the same action reuses the key so the backend can collapse them.
type Submission struct {
	mu  sync.Mutex
	key string
}

// NewSubmission starts a submission with a fresh key.
func NewSubmission() *Submission {
	return &Submission{key: NewKey()}
}

// Key returns the key of the current user action.
func (s *Submission) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == "" {
		s.key = NewKey()
	}
	return s.key
}

// Renew starts a new user action and returns its key. Call it once the
// previous action has succeeded or the user changed the form.
func (s *Submission) Renew() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = NewKey()
	return s.key
}
