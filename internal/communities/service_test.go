package communities

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
)

type fakeCommunityRepo struct {
	bySlug        map[string]*models.Community
	createFn      func(tx *gorm.DB, community *models.Community) error
	created       []models.Community
	memberships   []models.CommunityMembership
	upserted      []uuid.UUID
	deleted       []uuid.UUID
	memberCountBy map[uuid.UUID]int
}

func newFakeCommunityRepo() *fakeCommunityRepo {
	return &fakeCommunityRepo{
		bySlug:        map[string]*models.Community{},
		memberCountBy: map[uuid.UUID]int{},
	}
}

func (f *fakeCommunityRepo) List(ctx context.Context, communityType *enums.CommunityType) ([]models.Community, error) {
	return nil, nil
}

func (f *fakeCommunityRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	for _, c := range f.bySlug {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCommunityRepo) FindBySlug(ctx context.Context, slug string) (*models.Community, error) {
	return f.FindBySlugTx(nil, slug)
}

func (f *fakeCommunityRepo) FindBySlugTx(tx *gorm.DB, slug string) (*models.Community, error) {
	if c, ok := f.bySlug[slug]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCommunityRepo) FindByIDsTx(tx *gorm.DB, ids []uuid.UUID) ([]models.Community, error) {
	out := make([]models.Community, 0, len(ids))
	for _, id := range ids {
		for _, c := range f.bySlug {
			if c.ID == id {
				out = append(out, *c)
			}
		}
	}
	return out, nil
}

func (f *fakeCommunityRepo) CreateTx(tx *gorm.DB, community *models.Community) error {
	if f.createFn != nil {
		if err := f.createFn(tx, community); err != nil {
			return err
		}
	}
	community.ID = uuid.New()
	stored := *community
	f.bySlug[community.Slug] = &stored
	f.created = append(f.created, stored)
	return nil
}

func (f *fakeCommunityRepo) UpsertMembershipTx(tx *gorm.DB, communityID, userID uuid.UUID, autoJoined bool) (bool, error) {
	for _, m := range f.memberships {
		if m.CommunityID == communityID && m.UserID == userID {
			return false, nil
		}
	}
	f.memberships = append(f.memberships, models.CommunityMembership{CommunityID: communityID, UserID: userID, IsAutoJoined: autoJoined})
	f.upserted = append(f.upserted, communityID)
	return true, nil
}

func (f *fakeCommunityRepo) FindMembership(ctx context.Context, communityID, userID uuid.UUID) (*models.CommunityMembership, error) {
	for _, m := range f.memberships {
		if m.CommunityID == communityID && m.UserID == userID {
			copied := m
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCommunityRepo) DeleteMembershipTx(tx *gorm.DB, communityID, userID uuid.UUID) (bool, error) {
	for i, m := range f.memberships {
		if m.CommunityID == communityID && m.UserID == userID {
			f.memberships = append(f.memberships[:i], f.memberships[i+1:]...)
			f.deleted = append(f.deleted, communityID)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCommunityRepo) ListMembershipsByUser(ctx context.Context, userID uuid.UUID) ([]models.CommunityMembership, error) {
	return f.ListMembershipsByUserTx(nil, userID)
}

func (f *fakeCommunityRepo) ListMembershipsByUserTx(tx *gorm.DB, userID uuid.UUID) ([]models.CommunityMembership, error) {
	out := make([]models.CommunityMembership, 0, len(f.memberships))
	for _, m := range f.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeCommunityRepo) AdjustMemberCountTx(tx *gorm.DB, communityID uuid.UUID, delta int) error {
	f.memberCountBy[communityID] += delta
	return nil
}

func (f *fakeCommunityRepo) AdjustPostCountTx(tx *gorm.DB, communityID uuid.UUID, delta int) error {
	return nil
}

type fakeTxRunner struct{}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newCommunityService(t *testing.T, repo *fakeCommunityRepo) Service {
	t.Helper()
	svc, err := NewService(repo, &fakeTxRunner{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func newResolveTx(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	tx := conn.Begin()
	t.Cleanup(func() { tx.Rollback() })
	return tx
}

func strPtr(v string) *string { return &v }

func TestResolveForPetTxCreatesSpeciesAndBreed(t *testing.T) {
	repo := newFakeCommunityRepo()
	svc := newCommunityService(t, repo)
	userID := uuid.New()

	resolved, err := svc.ResolveForPetTx(newResolveTx(t), userID, "Perro", strPtr("Pastor Alemán"))
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("expected species and breed communities, got %d", len(resolved))
	}
	if resolved[0].Slug != "perro" || resolved[0].Type != enums.CommunityTypeSpecies {
		t.Fatalf("unexpected species community %+v", resolved[0])
	}
	if resolved[1].Slug != "perro-pastor-aleman" || resolved[1].Type != enums.CommunityTypeBreed {
		t.Fatalf("unexpected breed community %+v", resolved[1])
	}
	if len(repo.memberships) != 2 {
		t.Fatalf("expected 2 memberships, got %d", len(repo.memberships))
	}
	for _, m := range repo.memberships {
		if !m.IsAutoJoined {
			t.Fatal("expected auto-joined memberships")
		}
	}
	for _, c := range resolved {
		if repo.memberCountBy[c.ID] != 1 {
			t.Fatalf("expected member count bump for %s", c.Slug)
		}
	}
}

func TestResolveForPetTxSkipsMixedBreed(t *testing.T) {
	repo := newFakeCommunityRepo()
	svc := newCommunityService(t, repo)

	resolved, err := svc.ResolveForPetTx(newResolveTx(t), uuid.New(), "perro", strPtr("mestizo"))
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if len(resolved) != 1 || resolved[0].Slug != "perro" {
		t.Fatalf("expected species community only, got %+v", resolved)
	}
}

func TestResolveForPetTxReusesExistingCommunity(t *testing.T) {
	repo := newFakeCommunityRepo()
	existing := &models.Community{ID: uuid.New(), Name: "perro", Slug: "perro", Type: enums.CommunityTypeSpecies, MemberCount: 12}
	repo.bySlug["perro"] = existing
	svc := newCommunityService(t, repo)

	resolved, err := svc.ResolveForPetTx(newResolveTx(t), uuid.New(), "perro", nil)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected no new community, got %d", len(repo.created))
	}
	if resolved[0].ID != existing.ID {
		t.Fatal("expected existing community adopted")
	}
}

func TestResolveForPetTxAdoptsRaceWinner(t *testing.T) {
	repo := newFakeCommunityRepo()
	winner := &models.Community{ID: uuid.New(), Name: "gato", Slug: "gato", Type: enums.CommunityTypeSpecies}

	// first insert loses the unique-slug race; the winner's row appears on retry
	repo.createFn = func(tx *gorm.DB, community *models.Community) error {
		repo.bySlug["gato"] = winner
		return errors.New(`duplicate key value violates unique constraint "ux_communities_slug"`)
	}
	svc := newCommunityService(t, repo)

	resolved, err := svc.ResolveForPetTx(newResolveTx(t), uuid.New(), "gato", nil)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if len(resolved) != 1 || resolved[0].ID != winner.ID {
		t.Fatalf("expected winner adopted, got %+v", resolved)
	}
}

func TestResolveForPetTxRequiresSpecies(t *testing.T) {
	svc := newCommunityService(t, newFakeCommunityRepo())

	_, err := svc.ResolveForPetTx(newResolveTx(t), uuid.New(), "   ", nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", code)
	}
}

func TestPruneAutoMembershipsKeepsEarnedAndManual(t *testing.T) {
	repo := newFakeCommunityRepo()
	userID := uuid.New()

	perro := &models.Community{ID: uuid.New(), Slug: "perro"}
	gato := &models.Community{ID: uuid.New(), Slug: "gato"}
	ajolote := &models.Community{ID: uuid.New(), Slug: "ajolote"}
	repo.bySlug["perro"] = perro
	repo.bySlug["gato"] = gato
	repo.bySlug["ajolote"] = ajolote
	repo.memberships = []models.CommunityMembership{
		{CommunityID: perro.ID, UserID: userID, IsAutoJoined: true},
		{CommunityID: gato.ID, UserID: userID, IsAutoJoined: true},
		{CommunityID: ajolote.ID, UserID: userID, IsAutoJoined: false},
	}
	svc := newCommunityService(t, repo)

	earned := map[string]struct{}{"perro": {}}
	if err := svc.PruneAutoMembershipsTx(newResolveTx(t), userID, earned); err != nil {
		t.Fatalf("unexpected prune error: %v", err)
	}

	if len(repo.deleted) != 1 || repo.deleted[0] != gato.ID {
		t.Fatalf("expected only the gato membership pruned, got %v", repo.deleted)
	}
	if repo.memberCountBy[gato.ID] != -1 {
		t.Fatal("expected member count decrement for pruned community")
	}
	if len(repo.memberships) != 2 {
		t.Fatalf("expected 2 memberships left, got %d", len(repo.memberships))
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	repo := newFakeCommunityRepo()
	community := &models.Community{ID: uuid.New(), Slug: "perro", MemberCount: 3}
	repo.bySlug["perro"] = community
	svc := newCommunityService(t, repo)
	userID := uuid.New()

	first, err := svc.Join(context.Background(), userID, community.ID)
	if err != nil {
		t.Fatalf("unexpected join error: %v", err)
	}
	if !first.IsMember {
		t.Fatal("expected membership after join")
	}

	if _, err := svc.Join(context.Background(), userID, community.ID); err != nil {
		t.Fatalf("expected repeat join to be a no-op: %v", err)
	}
	if repo.memberCountBy[community.ID] != 1 {
		t.Fatalf("expected single member count bump, got %d", repo.memberCountBy[community.ID])
	}
}

func TestLeaveWithoutMembershipIsANoOp(t *testing.T) {
	repo := newFakeCommunityRepo()
	community := &models.Community{ID: uuid.New(), Slug: "perro"}
	repo.bySlug["perro"] = community
	svc := newCommunityService(t, repo)

	if err := svc.Leave(context.Background(), uuid.New(), community.ID); err != nil {
		t.Fatalf("expected non-member leave to succeed silently, got %v", err)
	}
	if repo.memberCountBy[community.ID] != 0 {
		t.Fatalf("expected member count untouched, got %d", repo.memberCountBy[community.ID])
	}
}

func TestLeaveRemovesMembershipAndDecrementsCount(t *testing.T) {
	repo := newFakeCommunityRepo()
	community := &models.Community{ID: uuid.New(), Slug: "perro", MemberCount: 2}
	repo.bySlug["perro"] = community
	userID := uuid.New()
	repo.memberships = []models.CommunityMembership{{CommunityID: community.ID, UserID: userID}}
	svc := newCommunityService(t, repo)

	if err := svc.Leave(context.Background(), userID, community.ID); err != nil {
		t.Fatalf("unexpected leave error: %v", err)
	}
	if len(repo.memberships) != 0 {
		t.Fatal("expected membership removed")
	}
	if repo.memberCountBy[community.ID] != -1 {
		t.Fatalf("expected member count decrement, got %d", repo.memberCountBy[community.ID])
	}
}

func TestLeaveUnknownCommunityIsNotFound(t *testing.T) {
	svc := newCommunityService(t, newFakeCommunityRepo())

	err := svc.Leave(context.Background(), uuid.New(), uuid.New())
	if err == nil {
		t.Fatal("expected not found")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", code)
	}
}
