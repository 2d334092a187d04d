package access

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	}
	return "invalid"
}

var ErrInvalidTransition = errors.New("invalid session transition")

// Session tracks one principal through
// unauthenticated -> authenticating -> authenticated(role) -> unauthenticated.
// It only holds a read reference to the user id; the token lives with the
// identity provider.
type Session struct {
	mu     sync.RWMutex
	state  State
	userID uuid.UUID
	role   Role
	token  string
}

func NewSession() *Session {
	return &Session{}
}

// Begin moves an unauthenticated session into authenticating.
func (s *Session) Begin(userID uuid.UUID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnauthenticated {
		return ErrInvalidTransition
	}
	s.state = StateAuthenticating
	s.userID = userID
	s.token = token
	return nil
}

// Authenticate completes authentication with the role from the user profile.
func (s *Session) Authenticate(role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAuthenticating {
		return ErrInvalidTransition
	}
	if !role.Valid() {
		role = RoleUnknown
	}
	s.state = StateAuthenticated
	s.role = role
	return nil
}

// FailProfile completes authentication without a role: every role-scoped
// surface is denied but logout remains possible.
func (s *Session) FailProfile() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAuthenticating {
		return ErrInvalidTransition
	}
	s.state = StateAuthenticated
	s.role = RoleUnknown
	return nil
}

// Abort drops a session whose identity could not be resolved at all.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// ChangeRole applies a role observed on a later profile fetch.
func (s *Session) ChangeRole(role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAuthenticated {
		return ErrInvalidTransition
	}
	if !role.Valid() {
		role = RoleUnknown
	}
	s.role = role
	return nil
}

func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.state = StateUnauthenticated
	s.userID = uuid.Nil
	s.role = RoleUnknown
	s.token = ""
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Role() Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) UserID() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}
