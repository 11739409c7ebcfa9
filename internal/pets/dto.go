package pets

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/internal/documents"
	"github.com/ruacmx/ruac-backend/internal/ownership"
	"github.com/ruacmx/ruac-backend/internal/users"
	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	"github.com/ruacmx/ruac-backend/pkg/types"
)

// PetDTO is the owner-facing projection. It carries the private fields that
// never leave the owner circle.
type PetDTO struct {
	ID               uuid.UUID                 `json:"id"`
	Name             string                    `json:"name"`
	Species          string                    `json:"species"`
	Breed            *string                   `json:"breed,omitempty"`
	Sex              *string                   `json:"sex,omitempty"`
	Color            *string                   `json:"color,omitempty"`
	BirthDate        *time.Time                `json:"birthDate,omitempty"`
	Traits           []string                  `json:"traits,omitempty"`
	MedicalNotes     *string                   `json:"medicalNotes,omitempty"`
	Allergies        *string                   `json:"allergies,omitempty"`
	Address          *string                   `json:"address,omitempty"`
	City             *string                   `json:"city,omitempty"`
	PhotoURL         string                    `json:"photoUrl"`
	Status           enums.PetStatus           `json:"status"`
	LastSeenLocation *types.GeographyPoint     `json:"lastSeenLocation,omitempty"`
	LastSeenAt       *time.Time                `json:"lastSeenAt,omitempty"`
	LostMessage      *string                   `json:"lostMessage,omitempty"`
	Owners           []ownership.OwnerDTO      `json:"owners,omitempty"`
	Documents        []documents.DocumentDTO   `json:"documents,omitempty"`
	CreatedAt        time.Time                 `json:"createdAt"`
	UpdatedAt        time.Time                 `json:"updatedAt"`
}

// PublicPetDTO is the anonymous projection. Medical notes, allergies and the
// home address never appear here; the tutor contact is attached only while the
// pet is lost so finders can reach someone.
type PublicPetDTO struct {
	ID               uuid.UUID             `json:"id"`
	Name             string                `json:"name"`
	Species          string                `json:"species"`
	Breed            *string               `json:"breed,omitempty"`
	Sex              *string               `json:"sex,omitempty"`
	Color            *string               `json:"color,omitempty"`
	BirthDate        *time.Time            `json:"birthDate,omitempty"`
	Traits           []string              `json:"traits,omitempty"`
	City             *string               `json:"city,omitempty"`
	PhotoURL         string                `json:"photoUrl"`
	Status           enums.PetStatus       `json:"status"`
	LastSeenLocation *types.GeographyPoint `json:"lastSeenLocation,omitempty"`
	LastSeenAt       *time.Time            `json:"lastSeenAt,omitempty"`
	LostMessage      *string               `json:"lostMessage,omitempty"`
	Tutor            *users.ContactDTO     `json:"tutor,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
}

// LostPetPage is one cursor page of the lost pet feed.
type LostPetPage struct {
	Items      []PublicPetDTO `json:"items"`
	NextCursor *string        `json:"nextCursor,omitempty"`
}

func (s *service) photoOrPlaceholder(pet *models.Pet) string {
	if pet.PhotoURL != nil && *pet.PhotoURL != "" {
		return *pet.PhotoURL
	}
	return s.mediaCfg.PlaceholderURL
}

func (s *service) ownerView(pet *models.Pet, owners []ownership.OwnerDTO, docs []documents.DocumentDTO) *PetDTO {
	return &PetDTO{
		ID:               pet.ID,
		Name:             pet.Name,
		Species:          pet.Species,
		Breed:            pet.Breed,
		Sex:              pet.Sex,
		Color:            pet.Color,
		BirthDate:        pet.BirthDate,
		Traits:           pet.Traits,
		MedicalNotes:     pet.MedicalNotes,
		Allergies:        pet.Allergies,
		Address:          pet.Address,
		City:             pet.City,
		PhotoURL:         s.photoOrPlaceholder(pet),
		Status:           pet.Status,
		LastSeenLocation: pet.LastSeenLocation,
		LastSeenAt:       pet.LastSeenAt,
		LostMessage:      pet.LostMessage,
		Owners:           owners,
		Documents:        docs,
		CreatedAt:        pet.CreatedAt,
		UpdatedAt:        pet.UpdatedAt,
	}
}

func (s *service) publicView(pet *models.Pet, tutor *users.ContactDTO) *PublicPetDTO {
	dto := &PublicPetDTO{
		ID:        pet.ID,
		Name:      pet.Name,
		Species:   pet.Species,
		Breed:     pet.Breed,
		Sex:       pet.Sex,
		Color:     pet.Color,
		BirthDate: pet.BirthDate,
		Traits:    pet.Traits,
		City:      pet.City,
		PhotoURL:  s.photoOrPlaceholder(pet),
		Status:    pet.Status,
		CreatedAt: pet.CreatedAt,
	}
	if pet.Status == enums.PetStatusLost {
		dto.LastSeenLocation = pet.LastSeenLocation
		dto.LastSeenAt = pet.LastSeenAt
		dto.LostMessage = pet.LostMessage
		dto.Tutor = tutor
	}
	return dto
}
