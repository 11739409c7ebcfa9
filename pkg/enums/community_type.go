package enums

import "fmt"

// CommunityType distinguishes seeded species communities from lazily created
// breed communities.
type CommunityType string

const (
	CommunityTypeSpecies CommunityType = "species"
	CommunityTypeBreed   CommunityType = "breed"
)

var validCommunityTypes = []CommunityType{
	CommunityTypeSpecies,
	CommunityTypeBreed,
}

// IsValid reports whether the value is a known CommunityType.
func (c CommunityType) IsValid() bool {
	for _, candidate := range validCommunityTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCommunityType converts raw strings into CommunityType.
func ParseCommunityType(value string) (CommunityType, error) {
	for _, candidate := range validCommunityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid community type %q", value)
}
