package lostpets

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/pkg/enums"
	"github.com/ruacmx/ruac-backend/pkg/types"
)

// AlertResultDTO summarizes a status transition and its fan-out.
type AlertResultDTO struct {
	PetID         uuid.UUID             `json:"petId"`
	Status        enums.PetStatus       `json:"status"`
	LastSeenAt    *time.Time            `json:"lastSeenAt,omitempty"`
	LastSeen      *types.GeographyPoint `json:"lastSeenLocation,omitempty"`
	LostMessage   *string               `json:"lostMessage,omitempty"`
	RadiusKm      float64               `json:"radiusKm"`
	NotifiedCount int                   `json:"notifiedCount"`
}

// alertEventData is the outbox payload for both alert event types.
type alertEventData struct {
	PetID    uuid.UUID             `json:"petId"`
	PetName  string                `json:"petName"`
	Species  string                `json:"species"`
	Status   enums.PetStatus       `json:"status"`
	Origin   *types.GeographyPoint `json:"origin,omitempty"`
	RadiusKm float64               `json:"radiusKm"`
	Message  *string               `json:"message,omitempty"`
	Notified int                   `json:"notified"`
}
