package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/pkg/enums"
)

// Community groups users by species or breed. Species communities are seeded
// by migration; breed communities are created lazily on first registration of
// the breed, keyed by the unique slug so concurrent creates collapse to one row.
type Community struct {
	ID          uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	Slug        string              `gorm:"column:slug;not null;uniqueIndex"`
	Type        enums.CommunityType `gorm:"column:type;type:community_type;not null"`
	Species     string              `gorm:"column:species;not null"`
	Breed       *string             `gorm:"column:breed"`
	Description *string             `gorm:"column:description"`
	MemberCount int                 `gorm:"column:member_count;not null;default:0"`
	PostCount   int                 `gorm:"column:post_count;not null;default:0"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
