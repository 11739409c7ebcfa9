package posts

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
)

// PostDTO is the API projection of a community post.
type PostDTO struct {
	ID           uuid.UUID      `json:"id"`
	CommunityID  uuid.UUID      `json:"communityId"`
	UserID       uuid.UUID      `json:"userId"`
	Content      string         `json:"content"`
	Type         enums.PostType `json:"type"`
	PhotoURL     *string        `json:"photoUrl,omitempty"`
	IsPinned     bool           `json:"isPinned"`
	IsReported   bool           `json:"isReported"`
	LikeCount    int64          `json:"likeCount"`
	CommentCount int64          `json:"commentCount"`
	LikedByMe    bool           `json:"likedByMe"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// PostPage is one cursor page of a community feed.
type PostPage struct {
	Items      []PostDTO `json:"items"`
	NextCursor *string   `json:"nextCursor,omitempty"`
}

// CommentDTO is the API projection of a post comment.
type CommentDTO struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"postId"`
	UserID    uuid.UUID `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReportDTO is the moderation projection of a post report.
type ReportDTO struct {
	ID         uuid.UUID          `json:"id"`
	PostID     uuid.UUID          `json:"postId"`
	ReporterID uuid.UUID          `json:"reporterId"`
	Reason     string             `json:"reason"`
	Status     enums.ReportStatus `json:"status"`
	ResolvedAt *time.Time         `json:"resolvedAt,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
}

func postFromModel(post models.Post, likeCount, commentCount int64, likedByMe bool) PostDTO {
	return PostDTO{
		ID:           post.ID,
		CommunityID:  post.CommunityID,
		UserID:       post.UserID,
		Content:      post.Content,
		Type:         post.Type,
		PhotoURL:     post.PhotoURL,
		IsPinned:     post.IsPinned,
		IsReported:   post.IsReported,
		LikeCount:    likeCount,
		CommentCount: commentCount,
		LikedByMe:    likedByMe,
		CreatedAt:    post.CreatedAt,
	}
}

func commentFromModel(comment models.PostComment) CommentDTO {
	return CommentDTO{
		ID:        comment.ID,
		PostID:    comment.PostID,
		UserID:    comment.UserID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}

func reportFromModel(report models.PostReport) ReportDTO {
	return ReportDTO{
		ID:         report.ID,
		PostID:     report.PostID,
		ReporterID: report.ReporterID,
		Reason:     report.Reason,
		Status:     report.Status,
		ResolvedAt: report.ResolvedAt,
		CreatedAt:  report.CreatedAt,
	}
}
