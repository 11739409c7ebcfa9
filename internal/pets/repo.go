package pets

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	"github.com/ruacmx/ruac-backend/pkg/pagination"
)

// Repository handles pet persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to pet operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts a pet inside the provided transaction.
func (r *Repository) CreateTx(tx *gorm.DB, pet *models.Pet) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(pet).Error
}

// FindByID loads a pet by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	var pet models.Pet
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&pet).Error; err != nil {
		return nil, err
	}
	return &pet, nil
}

// Update saves the provided pet.
func (r *Repository) Update(ctx context.Context, pet *models.Pet) error {
	if pet == nil {
		return fmt.Errorf("pet is required")
	}
	return r.db.WithContext(ctx).Save(pet).Error
}

// UpdateTx saves the pet inside the provided transaction.
func (r *Repository) UpdateTx(tx *gorm.DB, pet *models.Pet) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if pet == nil {
		return fmt.Errorf("pet is required")
	}
	return tx.Save(pet).Error
}

// UpdateStatusTx persists a status transition only while the stored status
// still matches expected. Returns false when another transaction moved the
// pet first, so concurrent transitions cannot both apply.
func (r *Repository) UpdateStatusTx(tx *gorm.DB, pet *models.Pet, expected enums.PetStatus) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	if pet == nil {
		return false, fmt.Errorf("pet is required")
	}
	res := tx.Model(&models.Pet{}).
		Where("id = ? AND status = ?", pet.ID, expected).
		Updates(map[string]any{
			"status":             pet.Status,
			"last_seen_location": pet.LastSeenLocation,
			"last_seen_at":       pet.LastSeenAt,
			"lost_message":       pet.LostMessage,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteTx removes the pet row inside the transaction.
func (r *Repository) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Where("id = ?", id).Delete(&models.Pet{}).Error
}

// ListByUser returns pets the user owns, through either the legacy creator
// column or an ownership row.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Pet, error) {
	return r.listByUser(r.db.WithContext(ctx), userID)
}

// ListByUserTx is ListByUser inside the provided transaction.
func (r *Repository) ListByUserTx(tx *gorm.DB, userID uuid.UUID) ([]models.Pet, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	return r.listByUser(tx, userID)
}

func (r *Repository) listByUser(db *gorm.DB, userID uuid.UUID) ([]models.Pet, error) {
	var rows []models.Pet
	ownedSub := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.PetOwnership{}).
		Select("pet_id").
		Where("user_id = ?", userID)
	if err := db.
		Where("user_id = ? OR id IN (?)", userID, ownedSub).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// LostFilters narrows the public lost pet feed.
type LostFilters struct {
	City    string
	Species string
	Query   string
}

// ListLost returns one cursor page of lost pets, most recently reported first.
func (r *Repository) ListLost(ctx context.Context, filters LostFilters, cursor *pagination.Cursor, limit int) ([]models.Pet, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.PetStatusLost)

	if city := strings.TrimSpace(filters.City); city != "" {
		query = query.Where("LOWER(city) = LOWER(?)", city)
	}
	if species := strings.TrimSpace(filters.Species); species != "" {
		query = query.Where("LOWER(species) = LOWER(?)", species)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(COALESCE(breed, '')) LIKE ? OR LOWER(COALESCE(lost_message, '')) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Pet
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
