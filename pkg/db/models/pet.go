package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ruacmx/ruac-backend/pkg/enums"
	"github.com/ruacmx/ruac-backend/pkg/types"
)

// Pet is the registry's core record. UserID is the legacy creator column;
// current owners live in pet_ownerships and are resolved through the
// ownership package so legacy rows without ownership entries keep working.
type Pet struct {
	ID               uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	Name             string                `gorm:"column:name;not null"`
	Species          string                `gorm:"column:species;not null"`
	Breed            *string               `gorm:"column:breed"`
	Sex              *string               `gorm:"column:sex"`
	Color            *string               `gorm:"column:color"`
	BirthDate        *time.Time            `gorm:"column:birth_date;type:date"`
	Traits           pq.StringArray        `gorm:"column:traits;type:text[]"`
	MedicalNotes     *string               `gorm:"column:medical_notes"`
	Allergies        *string               `gorm:"column:allergies"`
	Address          *string               `gorm:"column:address"`
	City             *string               `gorm:"column:city"`
	PhotoURL         *string               `gorm:"column:photo_url"`
	Status           enums.PetStatus       `gorm:"column:status;type:pet_status;not null;default:'active'"`
	LastSeenLocation *types.GeographyPoint `gorm:"column:last_seen_location;type:geography(Point,4326)"`
	LastSeenAt       *time.Time            `gorm:"column:last_seen_at;type:timestamptz"`
	LostMessage      *string               `gorm:"column:lost_message"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
