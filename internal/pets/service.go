package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/internal/communities"
	"github.com/ruacmx/ruac-backend/internal/documents"
	"github.com/ruacmx/ruac-backend/internal/ownership"
	"github.com/ruacmx/ruac-backend/internal/users"
	"github.com/ruacmx/ruac-backend/pkg/config"
	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
	"github.com/ruacmx/ruac-backend/pkg/pagination"
)

type petRepository interface {
	CreateTx(tx *gorm.DB, pet *models.Pet) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error)
	Update(ctx context.Context, pet *models.Pet) error
	UpdateTx(tx *gorm.DB, pet *models.Pet) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Pet, error)
	ListByUserTx(tx *gorm.DB, userID uuid.UUID) ([]models.Pet, error)
	ListLost(ctx context.Context, filters LostFilters, cursor *pagination.Cursor, limit int) ([]models.Pet, error)
}

type ownershipService interface {
	Resolve(ctx context.Context, petID uuid.UUID) ([]ownership.OwnerDTO, error)
	IsOwner(ctx context.Context, pet *models.Pet, userID uuid.UUID) (bool, error)
}

type ownershipWriter interface {
	UpsertTx(tx *gorm.DB, petID, userID uuid.UUID, role enums.OwnershipRole) error
	DeleteByPetTx(tx *gorm.DB, petID uuid.UUID) error
}

type documentIssuer interface {
	IssueTx(tx *gorm.DB, petID uuid.UUID) ([]models.Document, error)
	ListByPet(ctx context.Context, petID uuid.UUID) ([]documents.DocumentDTO, error)
	DeleteByPetTx(tx *gorm.DB, petID uuid.UUID) error
}

type communityResolver interface {
	ResolveForPetTx(tx *gorm.DB, userID uuid.UUID, species string, breed *string) ([]models.Community, error)
	PruneAutoMembershipsTx(tx *gorm.DB, userID uuid.UUID, earnedSlugs map[string]struct{}) error
}

type contactProvider interface {
	GetContact(ctx context.Context, id uuid.UUID) (*users.ContactDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the registration core. Creating a pet is one transaction that
// writes the pet, issues the acta/credencial pair, records ownership and
// auto-joins the tutor into the matching communities; a failure in any step
// leaves no trace of the others.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreatePetInput) (*PetDTO, error)
	GetOwnerView(ctx context.Context, viewerID, petID uuid.UUID) (*PetDTO, error)
	GetPublicView(ctx context.Context, petID uuid.UUID) (*PublicPetDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]PetDTO, error)
	ListLost(ctx context.Context, filters LostFilters, cursor string, limit int) (*LostPetPage, error)
	Update(ctx context.Context, actorID, petID uuid.UUID, input UpdatePetInput) (*PetDTO, error)
	UpdatePhoto(ctx context.Context, actorID, petID uuid.UUID, photoURL string) (*PetDTO, error)
	Delete(ctx context.Context, actorID, petID uuid.UUID) error
}

type service struct {
	repo        petRepository
	owners      ownershipService
	ownerRows   ownershipWriter
	documents   documentIssuer
	communities communityResolver
	contacts    contactProvider
	tx          txRunner
	mediaCfg    config.MediaConfig
}

// NewService builds the pet service with the provided collaborators.
func NewService(
	repo petRepository,
	owners ownershipService,
	ownerRows ownershipWriter,
	docs documentIssuer,
	comms communityResolver,
	contacts contactProvider,
	tx txRunner,
	mediaCfg config.MediaConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pet repository required")
	}
	if owners == nil || ownerRows == nil {
		return nil, fmt.Errorf("ownership collaborators required")
	}
	if docs == nil {
		return nil, fmt.Errorf("document service required")
	}
	if comms == nil {
		return nil, fmt.Errorf("community service required")
	}
	if contacts == nil {
		return nil, fmt.Errorf("user service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:        repo,
		owners:      owners,
		ownerRows:   ownerRows,
		documents:   docs,
		communities: comms,
		contacts:    contacts,
		tx:          tx,
		mediaCfg:    mediaCfg,
	}, nil
}

// CreatePetInput captures the registration payload.
type CreatePetInput struct {
	Name         string
	Species      string
	Breed        *string
	Sex          *string
	Color        *string
	BirthDate    *time.Time
	Traits       []string
	MedicalNotes *string
	Allergies    *string
	Address      *string
	City         *string
	PhotoURL     *string
}

// UpdatePetInput captures the mutable pet fields.
type UpdatePetInput struct {
	Name         *string
	Breed        *string
	Sex          *string
	Color        *string
	BirthDate    *time.Time
	Traits       *[]string
	MedicalNotes *string
	Allergies    *string
	Address      *string
	City         *string
}

func (s *service) loadPet(ctx context.Context, petID uuid.UUID) (*models.Pet, error) {
	pet, err := s.repo.FindByID(ctx, petID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pet")
	}
	return pet, nil
}

func (s *service) requireOwner(ctx context.Context, pet *models.Pet, userID uuid.UUID) error {
	allowed, err := s.owners.IsOwner(ctx, pet, userID)
	if err != nil {
		return err
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeForbidden, "pet access restricted to owners")
	}
	return nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreatePetInput) (*PetDTO, error) {
	name := strings.TrimSpace(input.Name)
	species := strings.TrimSpace(input.Species)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if species == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "species is required")
	}

	pet := &models.Pet{
		UserID:       userID,
		Name:         name,
		Species:      species,
		Breed:        trimPtr(input.Breed),
		Sex:          trimPtr(input.Sex),
		Color:        trimPtr(input.Color),
		BirthDate:    input.BirthDate,
		Traits:       pq.StringArray(input.Traits),
		MedicalNotes: input.MedicalNotes,
		Allergies:    input.Allergies,
		Address:      input.Address,
		City:         trimPtr(input.City),
		PhotoURL:     input.PhotoURL,
		Status:       enums.PetStatusActive,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, pet); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pet")
		}

		if _, err := s.documents.IssueTx(tx, pet.ID); err != nil {
			return err
		}

		if err := s.ownerRows.UpsertTx(tx, pet.ID, userID, enums.OwnershipRoleOwner); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ownership")
		}

		if _, err := s.communities.ResolveForPetTx(tx, userID, pet.Species, pet.Breed); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	owners, err := s.owners.Resolve(ctx, pet.ID)
	if err != nil {
		return nil, err
	}
	docDTOs, err := s.documents.ListByPet(ctx, pet.ID)
	if err != nil {
		return nil, err
	}
	return s.ownerView(pet, owners, docDTOs), nil
}

func (s *service) GetOwnerView(ctx context.Context, viewerID, petID uuid.UUID) (*PetDTO, error) {
	pet, err := s.loadPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, pet, viewerID); err != nil {
		return nil, err
	}

	owners, err := s.owners.Resolve(ctx, petID)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	return s.ownerView(pet, owners, docs), nil
}

func (s *service) GetPublicView(ctx context.Context, petID uuid.UUID) (*PublicPetDTO, error) {
	pet, err := s.loadPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	return s.publicViewWithTutor(ctx, pet), nil
}

func (s *service) publicViewWithTutor(ctx context.Context, pet *models.Pet) *PublicPetDTO {
	var tutor *users.ContactDTO
	if pet.Status == enums.PetStatusLost {
		// Contact lookup failing should not hide a lost pet.
		if contact, err := s.contacts.GetContact(ctx, pet.UserID); err == nil {
			tutor = contact
		}
	}
	return s.publicView(pet, tutor)
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]PetDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pets")
	}
	dtos := make([]PetDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *s.ownerView(&rows[i], nil, nil))
	}
	return dtos, nil
}

func (s *service) ListLost(ctx context.Context, filters LostFilters, cursor string, limit int) (*LostPetPage, error) {
	parsed, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	pageSize := pagination.NormalizeLimit(limit)
	rows, err := s.repo.ListLost(ctx, filters, parsed, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lost pets")
	}

	var nextCursor *string
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		encoded := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		nextCursor = &encoded
	}

	items := make([]PublicPetDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *s.publicViewWithTutor(ctx, &rows[i]))
	}
	return &LostPetPage{Items: items, NextCursor: nextCursor}, nil
}

func (s *service) Update(ctx context.Context, actorID, petID uuid.UUID, input UpdatePetInput) (*PetDTO, error) {
	pet, err := s.loadPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, pet, actorID); err != nil {
		return nil, err
	}

	breedChanged := false
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		pet.Name = name
	}
	if input.Breed != nil {
		newBreed := trimPtr(input.Breed)
		if !equalPtr(pet.Breed, newBreed) {
			breedChanged = true
		}
		pet.Breed = newBreed
	}
	if input.Sex != nil {
		pet.Sex = trimPtr(input.Sex)
	}
	if input.Color != nil {
		pet.Color = trimPtr(input.Color)
	}
	if input.BirthDate != nil {
		pet.BirthDate = input.BirthDate
	}
	if input.Traits != nil {
		pet.Traits = pq.StringArray(*input.Traits)
	}
	if input.MedicalNotes != nil {
		pet.MedicalNotes = input.MedicalNotes
	}
	if input.Allergies != nil {
		pet.Allergies = input.Allergies
	}
	if input.Address != nil {
		pet.Address = input.Address
	}
	if input.City != nil {
		pet.City = trimPtr(input.City)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpdateTx(tx, pet); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pet")
		}
		if !breedChanged {
			return nil
		}
		// A new breed earns its community; communities the actor no longer
		// has a pet for lose their auto membership.
		if _, err := s.communities.ResolveForPetTx(tx, actorID, pet.Species, pet.Breed); err != nil {
			return err
		}
		earned, err := s.earnedSlugsTx(tx, actorID)
		if err != nil {
			return err
		}
		return s.communities.PruneAutoMembershipsTx(tx, actorID, earned)
	})
	if err != nil {
		return nil, err
	}

	owners, err := s.owners.Resolve(ctx, petID)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	return s.ownerView(pet, owners, docs), nil
}

func (s *service) UpdatePhoto(ctx context.Context, actorID, petID uuid.UUID, photoURL string) (*PetDTO, error) {
	photoURL = strings.TrimSpace(photoURL)
	if photoURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo url is required")
	}

	pet, err := s.loadPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, pet, actorID); err != nil {
		return nil, err
	}

	pet.PhotoURL = &photoURL
	if err := s.repo.Update(ctx, pet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pet photo")
	}
	return s.ownerView(pet, nil, nil), nil
}

func (s *service) earnedSlugsTx(tx *gorm.DB, userID uuid.UUID) (map[string]struct{}, error) {
	remaining, err := s.repo.ListByUserTx(tx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list remaining pets")
	}
	earned := make(map[string]struct{})
	for _, pet := range remaining {
		for _, slug := range communities.CommunitiesForPet(pet.Species, pet.Breed) {
			earned[slug] = struct{}{}
		}
	}
	return earned, nil
}

// Delete removes the pet with its documents and ownership rows, then drops
// auto-joined community memberships no remaining pet entitles the actor to.
func (s *service) Delete(ctx context.Context, actorID, petID uuid.UUID) error {
	pet, err := s.loadPet(ctx, petID)
	if err != nil {
		return err
	}
	if err := s.requireOwner(ctx, pet, actorID); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.documents.DeleteByPetTx(tx, petID); err != nil {
			return err
		}
		if err := s.ownerRows.DeleteByPetTx(tx, petID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete ownerships")
		}
		if err := s.repo.DeleteTx(tx, petID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete pet")
		}

		earned, err := s.earnedSlugsTx(tx, actorID)
		if err != nil {
			return err
		}
		return s.communities.PruneAutoMembershipsTx(tx, actorID, earned)
	})
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
