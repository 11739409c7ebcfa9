package enums

import "fmt"

// PetStatus tracks the lost-pet state machine. Active pets can be reported
// lost; lost pets can only be marked found again.
type PetStatus string

const (
	PetStatusActive PetStatus = "active"
	PetStatusLost   PetStatus = "lost"
)

var validPetStatuses = []PetStatus{
	PetStatusActive,
	PetStatusLost,
}

// IsValid reports whether the value is a known PetStatus.
func (p PetStatus) IsValid() bool {
	for _, candidate := range validPetStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePetStatus converts raw strings into PetStatus.
func ParsePetStatus(value string) (PetStatus, error) {
	for _, candidate := range validPetStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pet status %q", value)
}
