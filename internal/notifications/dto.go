package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
)

// NotificationDTO is the API projection of an in-app notification.
type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	RelatedID *uuid.UUID             `json:"relatedId,omitempty"`
	ReadAt    *time.Time             `json:"readAt,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// NotificationPage is one cursor page of a user's notifications.
type NotificationPage struct {
	Items      []NotificationDTO `json:"items"`
	NextCursor *string           `json:"nextCursor,omitempty"`
	UnreadCount int64            `json:"unreadCount"`
}

// FromModel maps a persisted notification onto the DTO.
func FromModel(row models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        row.ID,
		Type:      row.Type,
		Title:     row.Title,
		Message:   row.Message,
		RelatedID: row.RelatedID,
		ReadAt:    row.ReadAt,
		CreatedAt: row.CreatedAt,
	}
}
