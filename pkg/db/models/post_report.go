package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/pkg/enums"
)

// PostReport is one user's report against a post. Many reports may reference
// one post; dismissal resolves the single report, never the post.
type PostReport struct {
	ID         uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PostID     uuid.UUID          `gorm:"column:post_id;type:uuid;not null;index"`
	ReporterID uuid.UUID          `gorm:"column:reporter_id;type:uuid;not null"`
	Reason     string             `gorm:"column:reason;not null"`
	Status     enums.ReportStatus `gorm:"column:status;type:report_status;not null;default:'open'"`
	ResolvedAt *time.Time         `gorm:"column:resolved_at;type:timestamptz"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}
