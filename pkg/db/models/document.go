package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ruacmx/ruac-backend/pkg/enums"
)

// Document is an immutable registration artifact. The acta/credencial pair
// issued at pet creation shares one registration number; rows are only ever
// deleted together with their pet.
type Document struct {
	ID                 uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PetID              uuid.UUID          `gorm:"column:pet_id;type:uuid;not null;index"`
	DocumentType       enums.DocumentType `gorm:"column:document_type;type:document_type;not null;uniqueIndex:ux_documents_number_type"`
	RegistrationNumber string             `gorm:"column:registration_number;not null;uniqueIndex:ux_documents_number_type"`
	IssuedAt           time.Time          `gorm:"column:issued_at;type:timestamptz;not null"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
}
