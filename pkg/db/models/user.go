package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/pkg/enums"
	"github.com/ruacmx/ruac-backend/pkg/types"
)

// User represents the canonical identity entity. Credentials live in the
// external session provider; this row carries profile and contact data only.
type User struct {
	ID           uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string                `gorm:"type:text;not null;uniqueIndex"`
	FirstName    string                `gorm:"column:first_name;not null"`
	LastName     string                `gorm:"column:last_name;not null"`
	Phone        *string               `gorm:"column:phone"`
	Role         enums.UserRole        `gorm:"column:role;type:user_role;not null;default:'tutor'"`
	City         *string               `gorm:"column:city"`
	LastLocation *types.GeographyPoint `gorm:"column:last_location;type:geography(Point,4326)"`
	IsActive     bool                  `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
