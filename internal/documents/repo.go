package documents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
)

// Repository handles registration document persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to document operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts a document row inside the provided transaction.
func (r *Repository) CreateTx(tx *gorm.DB, doc *models.Document) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(doc).Error
}

// ListByPet returns a pet's documents ordered by type so the acta always
// precedes the credencial.
func (r *Repository) ListByPet(ctx context.Context, petID uuid.UUID) ([]models.Document, error) {
	var rows []models.Document
	if err := r.db.WithContext(ctx).
		Where("pet_id = ?", petID).
		Order("document_type ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByNumber returns all documents sharing a registration number.
func (r *Repository) FindByNumber(ctx context.Context, registrationNumber string) ([]models.Document, error) {
	var rows []models.Document
	if err := r.db.WithContext(ctx).
		Where("registration_number = ?", registrationNumber).
		Order("document_type ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteByPetTx removes every document for a pet inside the transaction.
// Documents never outlive their pet.
func (r *Repository) DeleteByPetTx(tx *gorm.DB, petID uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Where("pet_id = ?", petID).Delete(&models.Document{}).Error
}
