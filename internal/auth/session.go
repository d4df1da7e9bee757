// Package auth is the session/capability boundary. The hosted service owns
// authentication; this package only tracks the current session, exposes the
// admin flag, and provides the single credential-refresh path the fetch
// orchestrator retries through.
package auth

import (
	"context"
	"fmt"
	"sync"

	"caddvault/internal/domain"
	"caddvault/internal/eventbus"
)

// RefreshFunc re-validates credentials against the auth provider and returns
// the resulting session. It is called at startup and whenever an operation
// fails with an authorization error.
type RefreshFunc func(ctx context.Context) (domain.Session, error)

// Sessions exposes the current session and the refresh path.
type Sessions interface {
	Current() domain.Session
	IsAdmin() bool
	Refresh(ctx context.Context) error
}

// Service is the concrete session holder. The session can change
// asynchronously (expiry, login, logout); changes are announced on the bus.
type Service struct {
	mu      sync.RWMutex
	session domain.Session
	refresh RefreshFunc
	bus     eventbus.EventBus
}

// NewService creates a session service. refresh may be nil for anonymous or
// demo use; Refresh then keeps the current session.
func NewService(bus eventbus.EventBus, refresh RefreshFunc, initial domain.Session) *Service {
	return &Service{
		session: initial,
		refresh: refresh,
		bus:     bus,
	}
}

// Current returns the current session.
func (s *Service) Current() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// IsAdmin reports whether the current session carries the admin capability.
func (s *Service) IsAdmin() bool {
	return s.Current().IsAdmin
}

// Refresh re-validates credentials and replaces the session. On failure the
// previous session is kept and the error returned.
func (s *Service) Refresh(ctx context.Context) error {
	if s.refresh == nil {
		return nil
	}
	session, err := s.refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh credentials: %w", err)
	}
	s.Set(session)
	return nil
}

// Set replaces the session (login/logout) and announces the change.
func (s *Service) Set(session domain.Session) {
	s.mu.Lock()
	changed := s.session != session
	s.session = session
	s.mu.Unlock()

	if changed && s.bus != nil {
		s.bus.Publish(eventbus.SessionChangedEvent{Session: session})
	}
}

// SignOut clears the session.
func (s *Service) SignOut() {
	s.Set(domain.Session{})
}

// Ensure Service implements the Sessions interface
var _ Sessions = (*Service)(nil)
