package domain

import (
	"fmt"
	"strings"
)

// Role is supplied by the identity collaborator.
type Role string

const (
	RoleClient   Role = "CLIENT"
	RoleUser     Role = "USER"
	RoleProvider Role = "PROVIDER"
	RoleSeller   Role = "SELLER"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole normalizes and validates a role name.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	switch r {
	case RoleClient, RoleUser, RoleProvider, RoleSeller, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
}

// IsRequester is true for CLIENT and USER.
func (r Role) IsRequester() bool {
	return r == RoleClient || r == RoleUser
}

// IsStaff is true for PROVIDER, SELLER and ADMIN.
func (r Role) IsStaff() bool {
	return r == RoleProvider || r == RoleSeller || r == RoleAdmin
}

// Actor is the identity performing an operation. It is always passed
// explicitly, never looked up from ambient session state.
type Actor struct {
	UserID string
	Role   Role
}

// CanActOn checks record-level access: requesters only touch their own
// appointments, providers and sellers only those of their subjects,
// admins everything.
func (a Actor) CanActOn(appt *Appointment) bool {
	switch {
	case a.Role == RoleAdmin:
		return true
	case a.Role.IsStaff():
		return appt.ProviderID == a.UserID
	case a.Role.IsRequester():
		return appt.ClientID == a.UserID
	}
	return false
}

// SystemActor performs housekeeping such as expiring stale completions.
var SystemActor = Actor{UserID: "system", Role: RoleAdmin}
