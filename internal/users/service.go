package users

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
	"github.com/ruacmx/ruac-backend/pkg/types"
)

type userRepository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateLastLocation(ctx context.Context, id uuid.UUID, point types.GeographyPoint) error
	ListActiveWithLocation(ctx context.Context, origin types.GeographyPoint, radiusKm float64, exclude uuid.UUID) ([]models.User, error)
}

// Service exposes user profile operations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	GetContact(ctx context.Context, id uuid.UUID) (*ContactDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserDTO, error)
	UpdateLocation(ctx context.Context, id uuid.UUID, lat, lng float64) error
	FindNearby(ctx context.Context, origin types.GeographyPoint, radiusKm float64, exclude uuid.UUID, limit int) ([]NearbyUserDTO, error)
}

type service struct {
	repo userRepository
}

// NewService builds a user service with the provided repository.
func NewService(repo userRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

// UpdateUserInput captures the allowed profile fields for mutation.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	City      *string
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) GetContact(ctx context.Context, id uuid.UUID) (*ContactDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return ContactFromModel(user), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name cannot be empty")
		}
		user.FirstName = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name cannot be empty")
		}
		user.LastName = name
	}
	if input.Phone != nil {
		user.Phone = cloneStringPtr(input.Phone)
	}
	if input.City != nil {
		user.City = cloneStringPtr(input.City)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return FromModel(user), nil
}

func (s *service) UpdateLocation(ctx context.Context, id uuid.UUID, lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}
	if err := s.repo.UpdateLastLocation(ctx, id, types.GeographyPoint{Lat: lat, Lng: lng}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last location")
	}
	return nil
}

// FindNearby returns users within radiusKm of origin ordered nearest first,
// capped at limit. Every user in range is a candidate; the cap bounds a single
// fan-out, not who qualifies.
func (s *service) FindNearby(ctx context.Context, origin types.GeographyPoint, radiusKm float64, exclude uuid.UUID, limit int) ([]NearbyUserDTO, error) {
	if radiusKm <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "radius must be positive")
	}

	candidates, err := s.repo.ListActiveWithLocation(ctx, origin, radiusKm, exclude)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list located users")
	}

	nearby := make([]NearbyUserDTO, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.LastLocation == nil {
			continue
		}
		// exact cut on top of whatever bound the repository applied
		distance := origin.DistanceKm(*candidate.LastLocation)
		if distance > radiusKm {
			continue
		}
		nearby = append(nearby, NearbyUserDTO{
			UserID:     candidate.ID,
			DistanceKm: distance,
		})
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cpy := *value
	return &cpy
}
