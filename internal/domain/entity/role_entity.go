package entity

// Role represents an authorization role.
// Membership checks are plain set lookups; admin does not imply reporter.
type Role string

const (
	RoleReporter Role = "reporter"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleReporter || r == RoleAdmin
}

// RoleSet is an allowed-role set. An empty set admits any authenticated role.
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Allows reports whether role is a member of the set.
func (s RoleSet) Allows(role Role) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[role]
	return ok
}
