package auth

// Role gates access to the results API: viewers read snapshots and reports,
// operators may also trigger pipeline runs, admins may do anything.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// roleOrder lists roles weakest first; a role satisfies any requirement at
// or below its own position.
var roleOrder = []Role{RoleViewer, RoleOperator, RoleAdmin}

// NormalizeRole validates a role claim, rejecting anything outside the
// known set.
func NormalizeRole(value string) (Role, bool) {
	for _, role := range roleOrder {
		if Role(value) == role {
			return role, true
		}
	}
	return "", false
}

// RoleAtLeast reports whether role satisfies the required role.
func RoleAtLeast(role, required Role) bool {
	rank := -1
	for i, r := range roleOrder {
		if r == required {
			rank = i
		}
	}
	if rank < 0 {
		return false
	}
	for i, r := range roleOrder {
		if r == role {
			return i >= rank
		}
	}
	return false
}
