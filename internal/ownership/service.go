package ownership

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
)

type ownershipRepository interface {
	ListByPet(ctx context.Context, petID uuid.UUID) ([]models.PetOwnership, error)
	Find(ctx context.Context, petID, userID uuid.UUID) (*models.PetOwnership, error)
	Upsert(ctx context.Context, petID, userID uuid.UUID, role enums.OwnershipRole) error
	Delete(ctx context.Context, petID, userID uuid.UUID) error
	CountWithRole(ctx context.Context, petID uuid.UUID, role enums.OwnershipRole) (int64, error)
}

type petFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service resolves and mutates who owns a pet. Pets registered before the
// ownership table existed only carry a creator column; the service folds both
// sources into one view.
type Service interface {
	Resolve(ctx context.Context, petID uuid.UUID) ([]OwnerDTO, error)
	IsOwner(ctx context.Context, pet *models.Pet, userID uuid.UUID) (bool, error)
	AddOwner(ctx context.Context, actorID, petID, targetUserID uuid.UUID, role enums.OwnershipRole) ([]OwnerDTO, error)
	RemoveOwner(ctx context.Context, actorID, petID, targetUserID uuid.UUID) error
}

type service struct {
	repo  ownershipRepository
	pets  petFinder
	users userFinder
}

// NewService builds an ownership service with the provided repositories.
func NewService(repo ownershipRepository, pets petFinder, users userFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ownership repository required")
	}
	if pets == nil {
		return nil, fmt.Errorf("pet repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo, pets: pets, users: users}, nil
}

func (s *service) loadPet(ctx context.Context, petID uuid.UUID) (*models.Pet, error) {
	pet, err := s.pets.FindByID(ctx, petID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pet")
	}
	return pet, nil
}

// Resolve returns the pet's owners. When the ownership table has no rows the
// legacy creator is synthesized as the sole owner so older registrations stay
// consistent with newer ones.
func (s *service) Resolve(ctx context.Context, petID uuid.UUID) ([]OwnerDTO, error) {
	pet, err := s.loadPet(ctx, petID)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ownerships")
	}

	if len(rows) == 0 {
		return []OwnerDTO{{
			UserID:     pet.UserID,
			Role:       enums.OwnershipRoleOwner,
			Since:      pet.CreatedAt,
			FromLegacy: true,
		}}, nil
	}

	owners := make([]OwnerDTO, 0, len(rows))
	for _, row := range rows {
		owners = append(owners, FromModel(row))
	}
	return owners, nil
}

// IsOwner reports whether userID may manage the pet. Both the legacy creator
// column and the ownership table grant access.
func (s *service) IsOwner(ctx context.Context, pet *models.Pet, userID uuid.UUID) (bool, error) {
	if pet == nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "pet is required")
	}
	if pet.UserID == userID {
		return true, nil
	}

	_, err := s.repo.Find(ctx, pet.ID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check ownership")
	}
	return true, nil
}

func (s *service) AddOwner(ctx context.Context, actorID, petID, targetUserID uuid.UUID, role enums.OwnershipRole) ([]OwnerDTO, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid ownership role")
	}

	pet, err := s.loadPet(ctx, petID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.IsOwner(ctx, pet, actorID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only owners can manage ownership")
	}

	if _, err := s.users.FindByID(ctx, targetUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "target user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load target user")
	}

	if err := s.repo.Upsert(ctx, petID, targetUserID, role); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ownership")
	}

	return s.Resolve(ctx, petID)
}

func (s *service) RemoveOwner(ctx context.Context, actorID, petID, targetUserID uuid.UUID) error {
	pet, err := s.loadPet(ctx, petID)
	if err != nil {
		return err
	}

	allowed, err := s.IsOwner(ctx, pet, actorID)
	if err != nil {
		return err
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only owners can manage ownership")
	}

	target, err := s.repo.Find(ctx, petID, targetUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The legacy creator has no row; removing them would orphan the pet.
			if pet.UserID == targetUserID {
				return pkgerrors.New(pkgerrors.CodeConflict, "cannot remove last owner")
			}
			return pkgerrors.New(pkgerrors.CodeNotFound, "ownership not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ownership")
	}

	if target.Role == enums.OwnershipRoleOwner {
		count, err := s.repo.CountWithRole(ctx, petID, enums.OwnershipRoleOwner)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count owners")
		}
		if count <= 1 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cannot remove last owner")
		}
	}

	if err := s.repo.Delete(ctx, petID, targetUserID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete ownership")
	}
	return nil
}
