// Package session holds the credential token for the current process and
// decides whether protected operations may be attempted at all.
//
// Authorize is a local, synchronous check of token presence. It is not an
// authentication check: expiry is only discovered when the remote authority
// rejects a call, at which point the caller clears the session.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/contactbook/internal/common"
)

// Slot is the persistent key/value storage a Session writes its token to.
// metadata.Repository satisfies it.
type Slot interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// Session owns the credential token. It is safe for concurrent use.
// A Session created with a nil Slot keeps the token in memory only.
type Session struct {
	mu    sync.RWMutex
	token string
	slot  Slot
}

func New(slot Slot) *Session {
	return &Session{slot: slot}
}

// Token returns the stored token, or ok=false if there is none.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Authorize reports whether a token is present. It never fails.
func (s *Session) Authorize() bool {
	_, ok := s.Token()
	return ok
}

// SetToken stores token in memory and persists it to the slot.
// The in-memory token is set even when persisting fails.
func (s *Session) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if s.slot == nil {
		return nil
	}
	if err := s.slot.Set(ctx, common.TokenKey, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

// Clear drops the token from memory and from the slot.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if s.slot == nil {
		return nil
	}
	if err := s.slot.Delete(ctx, common.TokenKey); err != nil {
		return fmt.Errorf("forget token: %w", err)
	}
	return nil
}

// Restore loads a token persisted by a previous run. A restored token may be
// stale; it stays attached until a call fails authentication.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	if s.slot == nil {
		return false, nil
	}
	token, ok, err := s.slot.Get(ctx, common.TokenKey)
	if err != nil {
		return false, fmt.Errorf("restore token: %w", err)
	}
	if !ok || token == "" {
		return false, nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return true, nil
}
