package ownership

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
)

type fakeOwnershipRepo struct {
	listFn   func(ctx context.Context, petID uuid.UUID) ([]models.PetOwnership, error)
	findFn   func(ctx context.Context, petID, userID uuid.UUID) (*models.PetOwnership, error)
	upsertFn func(ctx context.Context, petID, userID uuid.UUID, role enums.OwnershipRole) error
	deleteFn func(ctx context.Context, petID, userID uuid.UUID) error
	countFn  func(ctx context.Context, petID uuid.UUID, role enums.OwnershipRole) (int64, error)
}

func (f *fakeOwnershipRepo) ListByPet(ctx context.Context, petID uuid.UUID) ([]models.PetOwnership, error) {
	if f.listFn != nil {
		return f.listFn(ctx, petID)
	}
	return nil, nil
}

func (f *fakeOwnershipRepo) Find(ctx context.Context, petID, userID uuid.UUID) (*models.PetOwnership, error) {
	if f.findFn != nil {
		return f.findFn(ctx, petID, userID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOwnershipRepo) Upsert(ctx context.Context, petID, userID uuid.UUID, role enums.OwnershipRole) error {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, petID, userID, role)
	}
	return nil
}

func (f *fakeOwnershipRepo) Delete(ctx context.Context, petID, userID uuid.UUID) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, petID, userID)
	}
	return nil
}

func (f *fakeOwnershipRepo) CountWithRole(ctx context.Context, petID uuid.UUID, role enums.OwnershipRole) (int64, error) {
	if f.countFn != nil {
		return f.countFn(ctx, petID, role)
	}
	return 0, nil
}

type fakePetFinder struct {
	pet *models.Pet
}

func (f *fakePetFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	if f.pet == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.pet, nil
}

type fakeUserFinder struct {
	user *models.User
}

func (f *fakeUserFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.user, nil
}

func newTestService(t *testing.T, repo *fakeOwnershipRepo, pet *models.Pet, user *models.User) Service {
	t.Helper()
	svc, err := NewService(repo, &fakePetFinder{pet: pet}, &fakeUserFinder{user: user})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestResolveSynthesizesLegacyCreator(t *testing.T) {
	creator := uuid.New()
	created := time.Now().Add(-48 * time.Hour)
	pet := &models.Pet{ID: uuid.New(), UserID: creator, CreatedAt: created}

	svc := newTestService(t, &fakeOwnershipRepo{}, pet, nil)

	owners, err := svc.Resolve(context.Background(), pet.ID)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if len(owners) != 1 {
		t.Fatalf("expected 1 owner, got %d", len(owners))
	}
	if owners[0].UserID != creator {
		t.Fatalf("expected creator %s, got %s", creator, owners[0].UserID)
	}
	if !owners[0].FromLegacy {
		t.Fatal("expected legacy owner flag")
	}
	if owners[0].Role != enums.OwnershipRoleOwner {
		t.Fatalf("expected owner role, got %s", owners[0].Role)
	}
	if !owners[0].Since.Equal(created) {
		t.Fatalf("expected since %v, got %v", created, owners[0].Since)
	}
}

func TestResolvePrefersOwnershipRows(t *testing.T) {
	pet := &models.Pet{ID: uuid.New(), UserID: uuid.New()}
	rowUser := uuid.New()

	repo := &fakeOwnershipRepo{
		listFn: func(ctx context.Context, petID uuid.UUID) ([]models.PetOwnership, error) {
			return []models.PetOwnership{{PetID: petID, UserID: rowUser, Role: enums.OwnershipRoleOwner}}, nil
		},
	}
	svc := newTestService(t, repo, pet, nil)

	owners, err := svc.Resolve(context.Background(), pet.ID)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if len(owners) != 1 || owners[0].UserID != rowUser {
		t.Fatalf("expected ownership row user %s, got %+v", rowUser, owners)
	}
	if owners[0].FromLegacy {
		t.Fatal("did not expect legacy flag when rows exist")
	}
}

func TestIsOwnerAcceptsLegacyCreatorAndRows(t *testing.T) {
	creator := uuid.New()
	rowUser := uuid.New()
	stranger := uuid.New()
	pet := &models.Pet{ID: uuid.New(), UserID: creator}

	repo := &fakeOwnershipRepo{
		findFn: func(ctx context.Context, petID, userID uuid.UUID) (*models.PetOwnership, error) {
			if userID == rowUser {
				return &models.PetOwnership{PetID: petID, UserID: userID, Role: enums.OwnershipRoleCaretaker}, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := newTestService(t, repo, pet, nil)

	for _, tc := range []struct {
		userID uuid.UUID
		want   bool
	}{
		{creator, true},
		{rowUser, true},
		{stranger, false},
	} {
		got, err := svc.IsOwner(context.Background(), pet, tc.userID)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tc.userID, err)
		}
		if got != tc.want {
			t.Fatalf("IsOwner(%s) = %v, want %v", tc.userID, got, tc.want)
		}
	}
}

func TestAddOwnerRequiresOwnerActor(t *testing.T) {
	pet := &models.Pet{ID: uuid.New(), UserID: uuid.New()}
	svc := newTestService(t, &fakeOwnershipRepo{}, pet, &models.User{ID: uuid.New()})

	_, err := svc.AddOwner(context.Background(), uuid.New(), pet.ID, uuid.New(), enums.OwnershipRoleCaretaker)
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}
}

func TestAddOwnerRejectsUnknownTarget(t *testing.T) {
	creator := uuid.New()
	pet := &models.Pet{ID: uuid.New(), UserID: creator}
	svc := newTestService(t, &fakeOwnershipRepo{}, pet, nil)

	_, err := svc.AddOwner(context.Background(), creator, pet.ID, uuid.New(), enums.OwnershipRoleOwner)
	if err == nil {
		t.Fatal("expected not found error")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", code)
	}
}

func TestRemoveOwnerRejectsLastOwnerRow(t *testing.T) {
	creator := uuid.New()
	target := uuid.New()
	pet := &models.Pet{ID: uuid.New(), UserID: creator}

	repo := &fakeOwnershipRepo{
		findFn: func(ctx context.Context, petID, userID uuid.UUID) (*models.PetOwnership, error) {
			if userID == target {
				return &models.PetOwnership{PetID: petID, UserID: userID, Role: enums.OwnershipRoleOwner}, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		countFn: func(ctx context.Context, petID uuid.UUID, role enums.OwnershipRole) (int64, error) {
			return 1, nil
		},
	}
	svc := newTestService(t, repo, pet, nil)

	err := svc.RemoveOwner(context.Background(), creator, pet.ID, target)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %s", code)
	}
}

func TestRemoveOwnerRejectsLegacyCreatorWithoutRow(t *testing.T) {
	creator := uuid.New()
	pet := &models.Pet{ID: uuid.New(), UserID: creator}
	svc := newTestService(t, &fakeOwnershipRepo{}, pet, nil)

	err := svc.RemoveOwner(context.Background(), creator, pet.ID, creator)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %s", code)
	}
}

func TestRemoveOwnerMissingRowIsNotFound(t *testing.T) {
	creator := uuid.New()
	pet := &models.Pet{ID: uuid.New(), UserID: creator}
	svc := newTestService(t, &fakeOwnershipRepo{}, pet, nil)

	err := svc.RemoveOwner(context.Background(), creator, pet.ID, uuid.New())
	if err == nil {
		t.Fatal("expected not found error")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", code)
	}
}

func TestRemoveOwnerAllowsSecondOwner(t *testing.T) {
	creator := uuid.New()
	target := uuid.New()
	pet := &models.Pet{ID: uuid.New(), UserID: creator}

	deleted := false
	repo := &fakeOwnershipRepo{
		findFn: func(ctx context.Context, petID, userID uuid.UUID) (*models.PetOwnership, error) {
			if userID == target {
				return &models.PetOwnership{PetID: petID, UserID: userID, Role: enums.OwnershipRoleOwner}, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		countFn: func(ctx context.Context, petID uuid.UUID, role enums.OwnershipRole) (int64, error) {
			return 2, nil
		},
		deleteFn: func(ctx context.Context, petID, userID uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	svc := newTestService(t, repo, pet, nil)

	if err := svc.RemoveOwner(context.Background(), creator, pet.ID, target); err != nil {
		t.Fatalf("unexpected remove error: %v", err)
	}
	if !deleted {
		t.Fatal("expected ownership row to be deleted")
	}
}
