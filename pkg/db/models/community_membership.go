package models

import (
	"time"

	"github.com/google/uuid"
)

// CommunityMembership links a user with a community. IsAutoJoined marks rows
// derived from pet registration as opposed to manual joins.
type CommunityMembership struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CommunityID  uuid.UUID `gorm:"column:community_id;type:uuid;not null;uniqueIndex:ux_community_memberships_community_user"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_community_memberships_community_user"`
	IsAutoJoined bool      `gorm:"column:is_auto_joined;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
