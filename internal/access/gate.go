package access

import (
	"context"

	"github.com/google/uuid"
)

// Decision is the observable outcome of gating a surface.
type Decision int

const (
	Loading Decision = iota
	Granted
	Denied
	Unauthenticated
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	case Unauthenticated:
		return "unauthenticated"
	}
	return "invalid"
}

const LoginPath = "/login"

// Resolve grants when current is one of required, or when required is empty
// (any authenticated principal).
func Resolve(required []Role, current Role) Decision {
	if len(required) == 0 {
		return Granted
	}
	if current == RoleUnknown {
		return Denied
	}
	for _, r := range required {
		if r == current {
			return Granted
		}
	}
	return Denied
}

// Outcome pairs a decision with the redirect target, if any.
type Outcome struct {
	Decision Decision
	Redirect string
}

// Gate evaluates a session against the required roles. Denied principals go
// to their own landing view; unauthenticated ones go to the login surface.
func Gate(s *Session, required ...Role) Outcome {
	if s == nil {
		return Outcome{Decision: Unauthenticated, Redirect: LoginPath}
	}

	switch s.State() {
	case StateUnauthenticated:
		return Outcome{Decision: Unauthenticated, Redirect: LoginPath}
	case StateAuthenticating:
		return Outcome{Decision: Loading}
	case StateAuthenticated:
		role := s.Role()
		if Resolve(required, role) == Granted {
			return Outcome{Decision: Granted}
		}
		return Outcome{Decision: Denied, Redirect: LandingPath(role)}
	}
	return Outcome{Decision: Unauthenticated, Redirect: LoginPath}
}

// Principal is the read-only identity view handed to services.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) IsStaff() bool { return p.Role.IsStaff() }

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// SessionFrom returns the request session, or nil when none was resolved.
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// PrincipalFrom returns the authenticated principal, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	s := SessionFrom(ctx)
	if s == nil || s.State() != StateAuthenticated {
		return Principal{}, false
	}
	return Principal{UserID: s.UserID(), Role: s.Role()}, true
}
