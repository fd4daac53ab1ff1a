// Package access implements the vault's role registry.
//
// Roles live in the roles mapping slot as boolean words keyed by
// role + NUL + principal, so registry state obeys the same storage layout
// discipline as every other field. This package only reads and writes the
// registry; authorization decisions (who may grant, who may call what) are
// enforced by the vault entry points so that every privileged operation
// re-validates roles inside its own transaction.
package access

import (
	"github.com/roach88/strongbox/internal/layout"
	"github.com/roach88/strongbox/internal/store"
)

// Role identifies a named role.
type Role string

const (
	// DefaultAdminRole administers every role, including itself.
	DefaultAdminRole Role = "DEFAULT_ADMIN_ROLE"

	// UpgraderRole authorizes logic replacement.
	UpgraderRole Role = "UPGRADER_ROLE"

	// PauserRole authorizes pausing and unpausing deposits.
	PauserRole Role = "PAUSER_ROLE"
)

// AdminOf returns the role that administers grants and revocations of role.
// Every role, the admin role included, is administered by DefaultAdminRole.
func AdminOf(role Role) Role {
	return DefaultAdminRole
}

// Has reports whether principal holds role.
func Has(tx *store.Tx, role Role, principal string) (bool, error) {
	w, err := tx.MapWord(layout.SlotRoles, key(role, principal))
	if err != nil {
		return false, err
	}
	return w.Bool(), nil
}

// Grant marks principal as holding role. Idempotent.
func Grant(tx *store.Tx, role Role, principal string) error {
	return tx.SetMapWord(layout.SlotRoles, key(role, principal), layout.WordFromBool(true))
}

// Revoke clears principal's membership of role. Idempotent.
func Revoke(tx *store.Tx, role Role, principal string) error {
	return tx.SetMapWord(layout.SlotRoles, key(role, principal), layout.WordFromBool(false))
}

// key builds the registry key. NUL cannot appear in a role name, so the
// encoding is unambiguous.
func key(role Role, principal string) string {
	return string(role) + "\x00" + principal
}
