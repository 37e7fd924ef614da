package tenancy

// UserRole is the user's role
type UserRole = string

const (
	// RoleGuest is an guest role (ie. view)
	RoleGuest UserRole = "guest"
	// RoleMember us a member (i.e. view, edit)
	RoleMember UserRole = "member"
	// RoleAdmin is an admin role (i.e. view, edit, create)
	RoleAdmin UserRole = "admin"
	// RoleOwner is an admin role (i.e. view, edit, create, delete)
	RoleOwner UserRole = "owner"
)

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleGuest, RoleMember, RoleAdmin, RoleOwner:
		return true
	default:
		return false
	}
}

// RoleIsAtLeast checks if a role meets the minimum required level
func RoleIsAtLeast(r, minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleGuest:  0,
		RoleMember: 1,
		RoleAdmin:  2,
		RoleOwner:  3,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}

// RoleCanRead checks if the role can view resources
func RoleCanRead(r UserRole) bool {
	return IsValidRole(r)
}

// RoleCanEdit checks if the role can edit resources
func RoleCanEdit(r UserRole) bool {
	return RoleIsAtLeast(r, RoleMember)
}

// RoleCanCreate checks if the role can create resources
func RoleCanCreate(r UserRole) bool {
	return RoleIsAtLeast(r, RoleAdmin)
}

// RoleCanDelete checks if the role can delete resources
func RoleCanDelete(r UserRole) bool {
	return RoleIsAtLeast(r, RoleOwner)
}
