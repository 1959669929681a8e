// Package permission holds the static role→permission table and resolves a
// user's effective permission set from role membership.
package permission

// Role names are a fixed, platform-defined set referenced by name only.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// Permission names checked by the authorization layer.
const (
	ViewUsers   = "users:view"
	ManageUsers = "users:manage"
)

// Catalog is an immutable role→permission table, built once at startup and
// passed by reference to whoever resolves permissions. It is never mutated
// after construction.
type Catalog struct {
	byRole map[string][]string
}

// NewCatalog copies table into an immutable Catalog.
func NewCatalog(table map[string][]string) *Catalog {
	byRole := make(map[string][]string, len(table))
	for role, perms := range table {
		cp := make([]string, len(perms))
		copy(cp, perms)
		byRole[role] = cp
	}
	return &Catalog{byRole: byRole}
}

// DefaultCatalog returns the platform's built-in table.
func DefaultCatalog() *Catalog {
	return NewCatalog(map[string][]string{
		RoleAdmin: {ViewUsers, ManageUsers},
		RoleUser:  {ViewUsers},
	})
}

// ForRoles resolves the deduplicated union of permissions for the given
// roles. Unknown role names contribute nothing; they are not an error so
// roles can exist in the store before being wired to permissions. Order
// follows first appearance and is not significant.
func (c *Catalog) ForRoles(roles []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 4)
	for _, role := range roles {
		for _, perm := range c.byRole[role] {
			if _, ok := seen[perm]; ok {
				continue
			}
			seen[perm] = struct{}{}
			out = append(out, perm)
		}
	}
	return out
}

// ForRole resolves a single role's permission list.
func (c *Catalog) ForRole(role string) []string {
	return c.ForRoles([]string{role})
}
