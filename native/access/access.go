package access

import "errors"

const (
	// RoleAdmin is held by the deploying principal and grants full control
	// over treasury, season lifecycle, reveals and role management.
	RoleAdmin = "ROLE_ADMIN"
	// RoleKeeper is grantable by an admin and authorises price changes and
	// reveals, but not treasury, season or placeholder control.
	RoleKeeper = "ROLE_KEEPER"
)

// ErrUnauthorized is returned when the caller lacks the role a mutating
// operation requires.
var ErrUnauthorized = errors.New("access: caller lacks required role")

// RoleView exposes role membership checks. The state manager satisfies it.
type RoleView interface {
	HasRole(role string, addr []byte) bool
}

// RequireAdmin rejects callers without the admin role. A nil view denies
// everything so a miswired engine fails closed.
func RequireAdmin(view RoleView, caller [20]byte) error {
	if view == nil || !view.HasRole(RoleAdmin, caller[:]) {
		return ErrUnauthorized
	}
	return nil
}

// RequireAdminOrKeeper rejects callers holding neither the admin nor the
// keeper role.
func RequireAdminOrKeeper(view RoleView, caller [20]byte) error {
	if view == nil {
		return ErrUnauthorized
	}
	if view.HasRole(RoleAdmin, caller[:]) || view.HasRole(RoleKeeper, caller[:]) {
		return nil
	}
	return ErrUnauthorized
}
