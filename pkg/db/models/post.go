package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/pkg/enums"
)

// Post is a community-scoped feed entry. Likes are counted at read time from
// post_likes; is_reported mirrors whether any open report exists.
type Post struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CommunityID uuid.UUID      `gorm:"column:community_id;type:uuid;not null;index"`
	UserID      uuid.UUID      `gorm:"column:user_id;type:uuid;not null"`
	Content     string         `gorm:"column:content;not null"`
	Type        enums.PostType `gorm:"column:type;type:post_type;not null;default:'general'"`
	PhotoURL    *string        `gorm:"column:photo_url"`
	IsPinned    bool           `gorm:"column:is_pinned;not null;default:false"`
	IsReported  bool           `gorm:"column:is_reported;not null;default:false"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
