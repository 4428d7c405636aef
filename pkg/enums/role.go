package enums

import "fmt"

// Role classifies an account for authorization decisions.
type Role string

const (
	RoleIndividual Role = "individual"
	RoleCompany    Role = "company"
	RoleEmployee   Role = "employee"
	RoleAdmin      Role = "admin"
)

var validRoles = []Role{
	RoleIndividual,
	RoleCompany,
	RoleEmployee,
	RoleAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role grants access to the back office.
func (r Role) IsStaff() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
