// Package prefs persists the user's temperature unit preference: a single
// boolean, Fahrenheit when true. Absent means the default (Fahrenheit)
// applies.
package prefs

import (
	"context"
	"sync"
)

// key is the one storage key this service uses. The value is the literal
// string "true" or "false".
const key = "fahrenheit"

// Store persists the unit preference. Get returns ok=false when no
// preference has ever been saved; Set persists synchronously.
type Store interface {
	Get(ctx context.Context) (fahrenheit bool, ok bool, err error)
	Set(ctx context.Context, fahrenheit bool) error
}

// InMemoryStore implements Store with process-local state. The preference is
// lost on restart; use FileStore or MemcachedStore to survive one.
type InMemoryStore struct {
	mu    sync.Mutex
	set   bool
	value bool
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Get returns the stored preference, or ok=false when never set.
func (s *InMemoryStore) Get(ctx context.Context) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return false, false, nil
	}
	return s.value, true, nil
}

// Set stores the preference.
func (s *InMemoryStore) Set(ctx context.Context, fahrenheit bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = true
	s.value = fahrenheit
	return nil
}

// encode maps the boolean onto its wire form.
func encode(fahrenheit bool) string {
	if fahrenheit {
		return "true"
	}
	return "false"
}

// decode parses the wire form. Anything other than the two known strings is
// reported as not-ok so the default applies.
func decode(s string) (value bool, ok bool) {
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}
