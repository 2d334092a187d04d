// Package access holds the role model and the per-session authorization state
// machine. Every protected surface and mutation is gated through Resolve/Gate.
package access

import (
	"errors"
	"strings"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCajero   Role = "cajero"
	RoleCocinero Role = "cocinero"
	RoleMesero   Role = "mesero"
	RoleUsuario  Role = "usuario"

	// RoleUnknown marks an authenticated principal whose profile could not be
	// fetched. It never matches a role-scoped requirement.
	RoleUnknown Role = ""
)

var ErrUnknownRole = errors.New("unknown role")

// Roles lists every assignable role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleCajero, RoleCocinero, RoleMesero, RoleUsuario}
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return RoleUnknown, ErrUnknownRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCajero, RoleCocinero, RoleMesero, RoleUsuario:
		return true
	case RoleUnknown:
		return false
	}
	return false
}

// IsStaff reports whether the role works the order pipeline.
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleCajero, RoleCocinero, RoleMesero:
		return true
	case RoleUsuario, RoleUnknown:
		return false
	}
	return false
}

// LandingPath is where a principal is sent after login or after a denied request.
func LandingPath(r Role) string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleCajero:
		return "/cajero"
	case RoleCocinero:
		return "/cocinero"
	case RoleMesero:
		return "/mesero"
	case RoleUsuario:
		return "/usuario"
	case RoleUnknown:
		return "/"
	}
	return "/"
}

func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}
