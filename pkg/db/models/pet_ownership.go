package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/pkg/enums"
)

// PetOwnership links a user with a pet. Unique per (pet_id, user_id).
type PetOwnership struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PetID     uuid.UUID           `gorm:"column:pet_id;type:uuid;not null;uniqueIndex:ux_pet_ownerships_pet_user"`
	UserID    uuid.UUID           `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_pet_ownerships_pet_user"`
	Role      enums.OwnershipRole `gorm:"column:role;type:ownership_role;not null"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}
