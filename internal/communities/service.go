package communities

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/pkg/db"
	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
)

type communityRepository interface {
	List(ctx context.Context, communityType *enums.CommunityType) ([]models.Community, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Community, error)
	FindBySlug(ctx context.Context, slug string) (*models.Community, error)
	FindBySlugTx(tx *gorm.DB, slug string) (*models.Community, error)
	FindByIDsTx(tx *gorm.DB, ids []uuid.UUID) ([]models.Community, error)
	CreateTx(tx *gorm.DB, community *models.Community) error
	UpsertMembershipTx(tx *gorm.DB, communityID, userID uuid.UUID, autoJoined bool) (bool, error)
	FindMembership(ctx context.Context, communityID, userID uuid.UUID) (*models.CommunityMembership, error)
	DeleteMembershipTx(tx *gorm.DB, communityID, userID uuid.UUID) (bool, error)
	ListMembershipsByUser(ctx context.Context, userID uuid.UUID) ([]models.CommunityMembership, error)
	ListMembershipsByUserTx(tx *gorm.DB, userID uuid.UUID) ([]models.CommunityMembership, error)
	AdjustMemberCountTx(tx *gorm.DB, communityID uuid.UUID, delta int) error
	AdjustPostCountTx(tx *gorm.DB, communityID uuid.UUID, delta int) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages communities and memberships. Registration drives the
// auto-join flow; manual join/leave is layered on the same membership rows.
type Service interface {
	ResolveForPetTx(tx *gorm.DB, userID uuid.UUID, species string, breed *string) ([]models.Community, error)
	PruneAutoMembershipsTx(tx *gorm.DB, userID uuid.UUID, earnedSlugs map[string]struct{}) error
	List(ctx context.Context, userID uuid.UUID, typeFilter string) ([]CommunityDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]CommunityDTO, error)
	GetBySlug(ctx context.Context, userID uuid.UUID, slug string) (*CommunityDTO, error)
	Join(ctx context.Context, userID, communityID uuid.UUID) (*CommunityDTO, error)
	Leave(ctx context.Context, userID, communityID uuid.UUID) error
}

type service struct {
	repo communityRepository
	tx   txRunner
}

// NewService builds a community service with the provided repository.
func NewService(repo communityRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("community repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// CommunitiesForPet returns the slugs a pet entitles its tutor to. The mixed
// breed sentinel never yields a breed community.
func CommunitiesForPet(species string, breed *string) []string {
	slugs := make([]string, 0, 2)
	speciesSlug := Slugify(species)
	if speciesSlug != "" {
		slugs = append(slugs, speciesSlug)
	}
	if breed != nil && strings.TrimSpace(*breed) != "" && !IsMixedBreed(*breed) {
		breedSlug := Slugify(species + " " + *breed)
		if breedSlug != "" && breedSlug != speciesSlug {
			slugs = append(slugs, breedSlug)
		}
	}
	return slugs
}

// getOrCreateTx resolves the community for a slug, creating it when missing.
// Two concurrent registrations of the same new breed race on the unique slug;
// the loser rolls back to the savepoint and adopts the winner's row.
func (s *service) getOrCreateTx(tx *gorm.DB, candidate models.Community) (*models.Community, error) {
	existing, err := s.repo.FindBySlugTx(tx, candidate.Slug)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup community")
	}

	if err := tx.SavePoint("community_create").Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create community savepoint")
	}
	if err := s.repo.CreateTx(tx, &candidate); err != nil {
		if db.IsUniqueViolation(err, "") {
			if rollbackErr := tx.RollbackTo("community_create").Error; rollbackErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, rollbackErr, "rollback community savepoint")
			}
			existing, lookupErr := s.repo.FindBySlugTx(tx, candidate.Slug)
			if lookupErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lookupErr, "lookup community after conflict")
			}
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create community")
	}
	return &candidate, nil
}

// ResolveForPetTx ensures the species and breed communities for a pet exist
// and that the tutor is a member of both, all inside the caller's transaction.
func (s *service) ResolveForPetTx(tx *gorm.DB, userID uuid.UUID, species string, breed *string) ([]models.Community, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	species = strings.TrimSpace(species)
	if species == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "species is required")
	}

	candidates := []models.Community{{
		Name:    species,
		Slug:    Slugify(species),
		Type:    enums.CommunityTypeSpecies,
		Species: species,
	}}
	if breed != nil && strings.TrimSpace(*breed) != "" && !IsMixedBreed(*breed) {
		breedName := strings.TrimSpace(*breed)
		breedSlug := Slugify(species + " " + breedName)
		if breedSlug != candidates[0].Slug {
			candidates = append(candidates, models.Community{
				Name:    breedName,
				Slug:    breedSlug,
				Type:    enums.CommunityTypeBreed,
				Species: species,
				Breed:   &breedName,
			})
		}
	}

	resolved := make([]models.Community, 0, len(candidates))
	for _, candidate := range candidates {
		community, err := s.getOrCreateTx(tx, candidate)
		if err != nil {
			return nil, err
		}

		joined, err := s.repo.UpsertMembershipTx(tx, community.ID, userID, true)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create membership")
		}
		if joined {
			if err := s.repo.AdjustMemberCountTx(tx, community.ID, 1); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment member count")
			}
			community.MemberCount++
		}
		resolved = append(resolved, *community)
	}
	return resolved, nil
}

// PruneAutoMembershipsTx drops auto-joined memberships that no remaining pet
// entitles the user to. Manual joins are never pruned.
func (s *service) PruneAutoMembershipsTx(tx *gorm.DB, userID uuid.UUID, earnedSlugs map[string]struct{}) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	memberships, err := s.repo.ListMembershipsByUserTx(tx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list memberships")
	}

	autoJoined := make([]models.CommunityMembership, 0, len(memberships))
	ids := make([]uuid.UUID, 0, len(memberships))
	for _, membership := range memberships {
		if membership.IsAutoJoined {
			autoJoined = append(autoJoined, membership)
			ids = append(ids, membership.CommunityID)
		}
	}
	if len(autoJoined) == 0 {
		return nil
	}

	communities, err := s.repo.FindByIDsTx(tx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load communities")
	}
	slugsByID := make(map[uuid.UUID]string, len(communities))
	for _, community := range communities {
		slugsByID[community.ID] = community.Slug
	}

	for _, membership := range autoJoined {
		slug, ok := slugsByID[membership.CommunityID]
		if !ok {
			continue
		}
		if _, earned := earnedSlugs[slug]; earned {
			continue
		}
		removed, err := s.repo.DeleteMembershipTx(tx, membership.CommunityID, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete membership")
		}
		if removed {
			if err := s.repo.AdjustMemberCountTx(tx, membership.CommunityID, -1); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement member count")
			}
		}
	}
	return nil
}

func (s *service) membershipSet(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	if userID == uuid.Nil {
		return map[uuid.UUID]struct{}{}, nil
	}
	memberships, err := s.repo.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list memberships")
	}
	set := make(map[uuid.UUID]struct{}, len(memberships))
	for _, membership := range memberships {
		set[membership.CommunityID] = struct{}{}
	}
	return set, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, typeFilter string) ([]CommunityDTO, error) {
	var communityType *enums.CommunityType
	if strings.TrimSpace(typeFilter) != "" {
		parsed, err := enums.ParseCommunityType(typeFilter)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid community type")
		}
		communityType = &parsed
	}

	rows, err := s.repo.List(ctx, communityType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list communities")
	}

	joined, err := s.membershipSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	dtos := make([]CommunityDTO, 0, len(rows))
	for i := range rows {
		_, isMember := joined[rows[i].ID]
		dtos = append(dtos, *FromModel(&rows[i], isMember))
	}
	return dtos, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]CommunityDTO, error) {
	memberships, err := s.repo.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list memberships")
	}

	dtos := make([]CommunityDTO, 0, len(memberships))
	for _, membership := range memberships {
		community, err := s.repo.FindByID(ctx, membership.CommunityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load community")
		}
		dtos = append(dtos, *FromModel(community, true))
	}
	return dtos, nil
}

func (s *service) GetBySlug(ctx context.Context, userID uuid.UUID, slug string) (*CommunityDTO, error) {
	community, err := s.repo.FindBySlug(ctx, Slugify(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "community not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load community")
	}

	isMember := false
	if userID != uuid.Nil {
		if _, err := s.repo.FindMembership(ctx, community.ID, userID); err == nil {
			isMember = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
		}
	}
	return FromModel(community, isMember), nil
}

func (s *service) Join(ctx context.Context, userID, communityID uuid.UUID) (*CommunityDTO, error) {
	community, err := s.repo.FindByID(ctx, communityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "community not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load community")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		joined, err := s.repo.UpsertMembershipTx(tx, communityID, userID, false)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create membership")
		}
		if joined {
			if err := s.repo.AdjustMemberCountTx(tx, communityID, 1); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment member count")
			}
			community.MemberCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(community, true), nil
}

func (s *service) Leave(ctx context.Context, userID, communityID uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, communityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "community not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load community")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		removed, err := s.repo.DeleteMembershipTx(tx, communityID, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete membership")
		}
		if !removed {
			// leaving without a membership is a no-op
			return nil
		}
		return s.repo.AdjustMemberCountTx(tx, communityID, -1)
	})
}
