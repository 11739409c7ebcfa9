package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/types"
)

// Repository handles user persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to user operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new user row.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads a user by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail loads a user by the unique email column.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves the provided user.
func (r *Repository) Update(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdateLastLocation stores the user's most recent device location. Alert
// fan-out ranges over these rows.
func (r *Repository) UpdateLastLocation(ctx context.Context, id uuid.UUID, point types.GeographyPoint) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_location", &point).Error
}

// ListActiveWithLocation returns active users that have reported a location
// within radiusKm of origin, excluding the given user. On postgres the radius
// is enforced with ST_DWithin so the scan stays bounded by the geography
// index; other drivers return every located candidate and the service applies
// the exact haversine cut.
func (r *Repository) ListActiveWithLocation(ctx context.Context, origin types.GeographyPoint, radiusKm float64, exclude uuid.UUID) ([]models.User, error) {
	var rows []models.User
	query := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("last_location IS NOT NULL")
	if r.db.Dialector.Name() == "postgres" && radiusKm > 0 {
		originEWKT, err := origin.Value()
		if err != nil {
			return nil, err
		}
		query = query.Where(
			"ST_DWithin(last_location, ST_GeogFromText(?), ?)",
			originEWKT, radiusKm*1000,
		)
	}
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
