package ownership

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
)

// Repository handles pet ownership persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to ownership operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByPet returns all ownership rows for a pet ordered by creation.
func (r *Repository) ListByPet(ctx context.Context, petID uuid.UUID) ([]models.PetOwnership, error) {
	var rows []models.PetOwnership
	if err := r.db.WithContext(ctx).
		Where("pet_id = ?", petID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Find loads the ownership row for a (pet, user) pair.
func (r *Repository) Find(ctx context.Context, petID, userID uuid.UUID) (*models.PetOwnership, error) {
	var row models.PetOwnership
	if err := r.db.WithContext(ctx).
		Where("pet_id = ? AND user_id = ?", petID, userID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert inserts an ownership row, ignoring duplicates on (pet_id, user_id).
func (r *Repository) Upsert(ctx context.Context, petID, userID uuid.UUID, role enums.OwnershipRole) error {
	return r.UpsertTx(r.db.WithContext(ctx), petID, userID, role)
}

// UpsertTx inserts an ownership row inside the provided transaction.
func (r *Repository) UpsertTx(tx *gorm.DB, petID, userID uuid.UUID, role enums.OwnershipRole) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	row := models.PetOwnership{
		PetID:  petID,
		UserID: userID,
		Role:   role,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pet_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&row).Error
}

// Delete removes the ownership row for a (pet, user) pair.
func (r *Repository) Delete(ctx context.Context, petID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("pet_id = ? AND user_id = ?", petID, userID).
		Delete(&models.PetOwnership{}).Error
}

// DeleteByPetTx removes every ownership row for a pet inside the transaction.
func (r *Repository) DeleteByPetTx(tx *gorm.DB, petID uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Where("pet_id = ?", petID).Delete(&models.PetOwnership{}).Error
}

// CountWithRole counts ownership rows on a pet holding the given role.
func (r *Repository) CountWithRole(ctx context.Context, petID uuid.UUID, role enums.OwnershipRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PetOwnership{}).
		Where("pet_id = ? AND role = ?", petID, role).
		Count(&count).Error
	return count, err
}
