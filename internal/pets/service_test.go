package pets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/internal/documents"
	"github.com/ruacmx/ruac-backend/internal/ownership"
	"github.com/ruacmx/ruac-backend/internal/users"
	"github.com/ruacmx/ruac-backend/pkg/config"
	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
	"github.com/ruacmx/ruac-backend/pkg/pagination"
)

type fakePetRepo struct {
	pet     *models.Pet
	byUser  []models.Pet
	updated *models.Pet
	deleted []uuid.UUID
	created []models.Pet
}

func (f *fakePetRepo) CreateTx(tx *gorm.DB, pet *models.Pet) error {
	pet.ID = uuid.New()
	f.created = append(f.created, *pet)
	return nil
}

func (f *fakePetRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	if f.pet == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.pet
	return &copied, nil
}

func (f *fakePetRepo) Update(ctx context.Context, pet *models.Pet) error {
	f.updated = pet
	return nil
}

func (f *fakePetRepo) UpdateTx(tx *gorm.DB, pet *models.Pet) error {
	f.updated = pet
	return nil
}

func (f *fakePetRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePetRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Pet, error) {
	return f.byUser, nil
}

func (f *fakePetRepo) ListByUserTx(tx *gorm.DB, userID uuid.UUID) ([]models.Pet, error) {
	return f.byUser, nil
}

func (f *fakePetRepo) ListLost(ctx context.Context, filters LostFilters, cursor *pagination.Cursor, limit int) ([]models.Pet, error) {
	return nil, nil
}

type fakeOwners struct {
	owner  bool
	owners []ownership.OwnerDTO
}

func (f *fakeOwners) Resolve(ctx context.Context, petID uuid.UUID) ([]ownership.OwnerDTO, error) {
	return f.owners, nil
}

func (f *fakeOwners) IsOwner(ctx context.Context, pet *models.Pet, userID uuid.UUID) (bool, error) {
	return f.owner, nil
}

type fakeOwnerRows struct {
	upserts []uuid.UUID
	purged  []uuid.UUID
}

func (f *fakeOwnerRows) UpsertTx(tx *gorm.DB, petID, userID uuid.UUID, role enums.OwnershipRole) error {
	f.upserts = append(f.upserts, petID)
	return nil
}

func (f *fakeOwnerRows) DeleteByPetTx(tx *gorm.DB, petID uuid.UUID) error {
	f.purged = append(f.purged, petID)
	return nil
}

type fakeIssuer struct {
	issued []uuid.UUID
	purged []uuid.UUID
	docs   []documents.DocumentDTO
}

func (f *fakeIssuer) IssueTx(tx *gorm.DB, petID uuid.UUID) ([]models.Document, error) {
	f.issued = append(f.issued, petID)
	return []models.Document{{PetID: petID}, {PetID: petID}}, nil
}

func (f *fakeIssuer) ListByPet(ctx context.Context, petID uuid.UUID) ([]documents.DocumentDTO, error) {
	return f.docs, nil
}

func (f *fakeIssuer) DeleteByPetTx(tx *gorm.DB, petID uuid.UUID) error {
	f.purged = append(f.purged, petID)
	return nil
}

type fakeResolver struct {
	resolvedFor []string
	prunedWith  []map[string]struct{}
}

func (f *fakeResolver) ResolveForPetTx(tx *gorm.DB, userID uuid.UUID, species string, breed *string) ([]models.Community, error) {
	f.resolvedFor = append(f.resolvedFor, species)
	return nil, nil
}

func (f *fakeResolver) PruneAutoMembershipsTx(tx *gorm.DB, userID uuid.UUID, earnedSlugs map[string]struct{}) error {
	f.prunedWith = append(f.prunedWith, earnedSlugs)
	return nil
}

type fakeContacts struct {
	contact *users.ContactDTO
	calls   int
}

func (f *fakeContacts) GetContact(ctx context.Context, id uuid.UUID) (*users.ContactDTO, error) {
	f.calls++
	if f.contact == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.contact, nil
}

type fakeTxRunner struct{}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type petHarness struct {
	svc      Service
	repo     *fakePetRepo
	owners   *fakeOwners
	rows     *fakeOwnerRows
	issuer   *fakeIssuer
	resolver *fakeResolver
	contacts *fakeContacts
}

func newPetHarness(t *testing.T, pet *models.Pet, isOwner bool) *petHarness {
	t.Helper()

	h := &petHarness{
		repo:     &fakePetRepo{pet: pet},
		owners:   &fakeOwners{owner: isOwner},
		rows:     &fakeOwnerRows{},
		issuer:   &fakeIssuer{},
		resolver: &fakeResolver{},
		contacts: &fakeContacts{},
	}
	svc, err := NewService(h.repo, h.owners, h.rows, h.issuer, h.resolver, h.contacts, &fakeTxRunner{},
		config.MediaConfig{PlaceholderURL: "https://ruac.mx/static/pet-placeholder.png"})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	h.svc = svc
	return h
}

func TestCreateRunsFullRegistration(t *testing.T) {
	h := newPetHarness(t, nil, true)
	userID := uuid.New()
	breed := "Pastor Alemán"

	dto, err := h.svc.Create(context.Background(), userID, CreatePetInput{
		Name:    "  Canela  ",
		Species: "perro",
		Breed:   &breed,
	})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	if dto.Name != "Canela" {
		t.Fatalf("expected trimmed name, got %q", dto.Name)
	}
	if dto.Status != enums.PetStatusActive {
		t.Fatalf("expected active status, got %s", dto.Status)
	}
	if len(h.repo.created) != 1 {
		t.Fatalf("expected 1 pet created, got %d", len(h.repo.created))
	}
	petID := h.repo.created[0].ID
	if len(h.issuer.issued) != 1 || h.issuer.issued[0] != petID {
		t.Fatal("expected documents issued for the new pet")
	}
	if len(h.rows.upserts) != 1 || h.rows.upserts[0] != petID {
		t.Fatal("expected ownership row for the creator")
	}
	if len(h.resolver.resolvedFor) != 1 || h.resolver.resolvedFor[0] != "perro" {
		t.Fatalf("expected community resolution, got %v", h.resolver.resolvedFor)
	}
}

func TestCreateRequiresNameAndSpecies(t *testing.T) {
	h := newPetHarness(t, nil, true)

	for _, input := range []CreatePetInput{
		{Name: "  ", Species: "perro"},
		{Name: "Canela", Species: ""},
	} {
		_, err := h.svc.Create(context.Background(), uuid.New(), input)
		if err == nil {
			t.Fatalf("expected validation error for %+v", input)
		}
		if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
			t.Fatalf("expected validation, got %s", code)
		}
	}
	if len(h.repo.created) != 0 {
		t.Fatal("expected nothing persisted")
	}
}

func TestGetOwnerViewRequiresOwnership(t *testing.T) {
	pet := &models.Pet{ID: uuid.New(), UserID: uuid.New(), Name: "Canela", Species: "perro"}
	h := newPetHarness(t, pet, false)

	_, err := h.svc.GetOwnerView(context.Background(), uuid.New(), pet.ID)
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}
}

func TestPublicViewHidesPrivateFieldsOfActivePet(t *testing.T) {
	notes := "tratamiento diario"
	address := "Av. Insurgentes Sur 123"
	pet := &models.Pet{
		ID: uuid.New(), UserID: uuid.New(), Name: "Canela", Species: "perro",
		MedicalNotes: &notes, Address: &address, Status: enums.PetStatusActive,
	}
	h := newPetHarness(t, pet, false)
	h.contacts.contact = &users.ContactDTO{}

	dto, err := h.svc.GetPublicView(context.Background(), pet.ID)
	if err != nil {
		t.Fatalf("unexpected public view error: %v", err)
	}
	if dto.Tutor != nil {
		t.Fatal("expected no tutor contact while pet is not lost")
	}
	if h.contacts.calls != 0 {
		t.Fatal("expected no contact lookup for active pet")
	}
	if dto.PhotoURL != "https://ruac.mx/static/pet-placeholder.png" {
		t.Fatalf("expected placeholder photo, got %q", dto.PhotoURL)
	}
}

func TestPublicViewExposesContactWhileLost(t *testing.T) {
	pet := &models.Pet{ID: uuid.New(), UserID: uuid.New(), Name: "Canela", Species: "perro", Status: enums.PetStatusLost}
	h := newPetHarness(t, pet, false)
	h.contacts.contact = &users.ContactDTO{}

	dto, err := h.svc.GetPublicView(context.Background(), pet.ID)
	if err != nil {
		t.Fatalf("unexpected public view error: %v", err)
	}
	if dto.Tutor == nil {
		t.Fatal("expected tutor contact while lost")
	}
}

func TestUpdateBreedChangeReshapesCommunities(t *testing.T) {
	oldBreed := "labrador"
	pet := &models.Pet{ID: uuid.New(), UserID: uuid.New(), Name: "Canela", Species: "perro", Breed: &oldBreed}
	h := newPetHarness(t, pet, true)
	h.repo.byUser = []models.Pet{*pet}

	newBreed := "Pastor Alemán"
	if _, err := h.svc.Update(context.Background(), pet.UserID, pet.ID, UpdatePetInput{Breed: &newBreed}); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if len(h.resolver.resolvedFor) != 1 {
		t.Fatal("expected community resolution after breed change")
	}
	if len(h.resolver.prunedWith) != 1 {
		t.Fatal("expected auto membership prune after breed change")
	}
}

func TestUpdateSameBreedSkipsCommunityWork(t *testing.T) {
	breed := "labrador"
	pet := &models.Pet{ID: uuid.New(), UserID: uuid.New(), Name: "Canela", Species: "perro", Breed: &breed}
	h := newPetHarness(t, pet, true)

	same := "labrador"
	if _, err := h.svc.Update(context.Background(), pet.UserID, pet.ID, UpdatePetInput{Breed: &same}); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if len(h.resolver.resolvedFor) != 0 || len(h.resolver.prunedWith) != 0 {
		t.Fatal("expected no community work when breed is unchanged")
	}
}

func TestDeletePurgesDocumentsOwnershipsAndMemberships(t *testing.T) {
	pet := &models.Pet{ID: uuid.New(), UserID: uuid.New(), Name: "Canela", Species: "perro"}
	h := newPetHarness(t, pet, true)

	if err := h.svc.Delete(context.Background(), pet.UserID, pet.ID); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if len(h.issuer.purged) != 1 || h.issuer.purged[0] != pet.ID {
		t.Fatal("expected documents purged")
	}
	if len(h.rows.purged) != 1 || h.rows.purged[0] != pet.ID {
		t.Fatal("expected ownership rows purged")
	}
	if len(h.repo.deleted) != 1 || h.repo.deleted[0] != pet.ID {
		t.Fatal("expected pet row deleted")
	}
	if len(h.resolver.prunedWith) != 1 {
		t.Fatal("expected auto memberships pruned")
	}
	// no pets remain, so nothing is earned
	if len(h.resolver.prunedWith[0]) != 0 {
		t.Fatalf("expected empty earned set, got %v", h.resolver.prunedWith[0])
	}
}

func TestUpdatePhotoRequiresURL(t *testing.T) {
	pet := &models.Pet{ID: uuid.New(), UserID: uuid.New(), Name: "Canela", Species: "perro"}
	h := newPetHarness(t, pet, true)

	_, err := h.svc.UpdatePhoto(context.Background(), pet.UserID, pet.ID, "   ")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", code)
	}
}
