package enums

import "fmt"

// PostType categorizes community feed posts.
type PostType string

const (
	PostTypeGeneral  PostType = "general"
	PostTypeQuestion PostType = "question"
	PostTypeTip      PostType = "tip"
	PostTypePhoto    PostType = "photo"
	PostTypeAlert    PostType = "alert"
)

var validPostTypes = []PostType{
	PostTypeGeneral,
	PostTypeQuestion,
	PostTypeTip,
	PostTypePhoto,
	PostTypeAlert,
}

// IsValid reports whether the value is a known PostType.
func (p PostType) IsValid() bool {
	for _, candidate := range validPostTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePostType converts raw strings into PostType.
func ParsePostType(value string) (PostType, error) {
	for _, candidate := range validPostTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid post type %q", value)
}
