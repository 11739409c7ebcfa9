package models

import (
	"time"

	"github.com/google/uuid"
)

// PostLike records one like per user per post.
type PostLike struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PostID    uuid.UUID `gorm:"column:post_id;type:uuid;not null;uniqueIndex:ux_post_likes_post_user"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_post_likes_post_user"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
