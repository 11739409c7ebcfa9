package communities

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
)

// CommunityDTO is the API projection of a community.
type CommunityDTO struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Type        enums.CommunityType `json:"type"`
	Species     string              `json:"species"`
	Breed       *string             `json:"breed,omitempty"`
	Description *string             `json:"description,omitempty"`
	MemberCount int                 `json:"memberCount"`
	PostCount   int                 `json:"postCount"`
	IsMember    bool                `json:"isMember"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// FromModel maps a persisted community onto the DTO.
func FromModel(community *models.Community, isMember bool) *CommunityDTO {
	if community == nil {
		return nil
	}
	return &CommunityDTO{
		ID:          community.ID,
		Name:        community.Name,
		Slug:        community.Slug,
		Type:        community.Type,
		Species:     community.Species,
		Breed:       community.Breed,
		Description: community.Description,
		MemberCount: community.MemberCount,
		PostCount:   community.PostCount,
		IsMember:    isMember,
		CreatedAt:   community.CreatedAt,
	}
}
