package ownership

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
)

// OwnerDTO is a normalized owner record. FromLegacy marks entries synthesized
// from the pet's creator column when no ownership rows exist yet.
type OwnerDTO struct {
	UserID     uuid.UUID           `json:"userId"`
	Role       enums.OwnershipRole `json:"role"`
	Since      time.Time           `json:"since"`
	FromLegacy bool                `json:"fromLegacy,omitempty"`
}

// FromModel maps a persisted ownership row onto the DTO.
func FromModel(row models.PetOwnership) OwnerDTO {
	return OwnerDTO{
		UserID: row.UserID,
		Role:   row.Role,
		Since:  row.CreatedAt,
	}
}
