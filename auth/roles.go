package auth

import "strings"

// Role is a caseworker access role. Roles are totally ordered by Level.
type Role string

const (
	RoleUser         Role = "user"
	RoleSocialWorker Role = "social_worker"
	RoleSupervisor   Role = "supervisor"
	RoleAdmin        Role = "admin"
)

// roleOrder lists roles from least to most privileged. A role's index is its level.
var roleOrder = []Role{
	RoleUser,
	RoleSocialWorker,
	RoleSupervisor,
	RoleAdmin,
}

// Level returns the rank of the role in the hierarchy.
// Unrecognized roles rank lowest.
func (r Role) Level() int {
	for i, known := range roleOrder {
		if known == r {
			return i
		}
	}
	return 0
}

// Known reports whether r is one of the defined roles.
func (r Role) Known() bool {
	for _, known := range roleOrder {
		if known == r {
			return true
		}
	}
	return false
}

// Satisfies reports whether r is at or above the required role.
func (r Role) Satisfies(required Role) bool {
	return r.Level() >= required.Level()
}

func (r Role) String() string {
	return string(r)
}

// ParseRole normalizes a stored role string. Empty or unrecognized values
// resolve to fallback.
func ParseRole(s string, fallback Role) Role {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if role.Known() {
		return role
	}
	return fallback
}
