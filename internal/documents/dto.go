package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
)

// DocumentDTO is a registration artifact exposed to the pet's owners.
type DocumentDTO struct {
	ID                 uuid.UUID          `json:"id"`
	PetID              uuid.UUID          `json:"petId"`
	Type               enums.DocumentType `json:"type"`
	Title              string             `json:"title"`
	RegistrationNumber string             `json:"registrationNumber"`
	IssuedAt           time.Time          `json:"issuedAt"`
	VerifyURL          string             `json:"verifyUrl"`
}

// VerifiedPetDTO is the public pet summary returned by document verification.
type VerifiedPetDTO struct {
	Name     string          `json:"name"`
	Species  string          `json:"species"`
	Breed    *string         `json:"breed,omitempty"`
	Status   enums.PetStatus `json:"status"`
	PhotoURL string          `json:"photoUrl"`
}

// VerificationDTO is the anonymous verification result behind the QR link.
type VerificationDTO struct {
	RegistrationNumber string         `json:"registrationNumber"`
	IssuedAt           time.Time      `json:"issuedAt"`
	Valid              bool           `json:"valid"`
	Pet                VerifiedPetDTO `json:"pet"`
}

func (s *service) fromModel(doc models.Document) DocumentDTO {
	return DocumentDTO{
		ID:                 doc.ID,
		PetID:              doc.PetID,
		Type:               doc.DocumentType,
		Title:              doc.DocumentType.Title(),
		RegistrationNumber: doc.RegistrationNumber,
		IssuedAt:           doc.IssuedAt,
		VerifyURL:          s.registryCfg.VerifyURL(doc.RegistrationNumber),
	}
}
