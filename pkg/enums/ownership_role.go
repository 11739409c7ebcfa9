package enums

import "fmt"

// OwnershipRole distinguishes full owners from caretakers on a pet record.
type OwnershipRole string

const (
	OwnershipRoleOwner     OwnershipRole = "owner"
	OwnershipRoleCaretaker OwnershipRole = "caretaker"
)

var validOwnershipRoles = []OwnershipRole{
	OwnershipRoleOwner,
	OwnershipRoleCaretaker,
}

// String implements fmt.Stringer.
func (o OwnershipRole) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OwnershipRole.
func (o OwnershipRole) IsValid() bool {
	for _, candidate := range validOwnershipRoles {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOwnershipRole converts raw input into an OwnershipRole.
func ParseOwnershipRole(value string) (OwnershipRole, error) {
	for _, candidate := range validOwnershipRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ownership role %q", value)
}
