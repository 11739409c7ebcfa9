package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
	"github.com/ruacmx/ruac-backend/pkg/types"
)

type fakeUserRepo struct {
	user       *models.User
	updated    *models.User
	located    []models.User
	lastPoint  *types.GeographyPoint
	lastUserID uuid.UUID
}

func (f *fakeUserRepo) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.user
	return &copied, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	f.updated = user
	return nil
}

func (f *fakeUserRepo) UpdateLastLocation(ctx context.Context, id uuid.UUID, point types.GeographyPoint) error {
	f.lastUserID = id
	f.lastPoint = &point
	return nil
}

func (f *fakeUserRepo) ListActiveWithLocation(ctx context.Context, origin types.GeographyPoint, radiusKm float64, exclude uuid.UUID) ([]models.User, error) {
	out := make([]models.User, 0, len(f.located))
	for _, u := range f.located {
		if u.ID == exclude {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func locatedUser(lat, lng float64) models.User {
	return models.User{ID: uuid.New(), IsActive: true, LastLocation: &types.GeographyPoint{Lat: lat, Lng: lng}}
}

func TestUpdateRejectsBlankFirstName(t *testing.T) {
	repo := &fakeUserRepo{user: &models.User{ID: uuid.New(), FirstName: "Ana", LastName: "García"}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	blank := "   "
	_, err = svc.Update(context.Background(), repo.user.ID, UpdateUserInput{FirstName: &blank})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", code)
	}
	if repo.updated != nil {
		t.Fatal("expected no persistence on validation failure")
	}
}

func TestUpdateTrimsNames(t *testing.T) {
	repo := &fakeUserRepo{user: &models.User{ID: uuid.New(), FirstName: "Ana", LastName: "García"}}
	svc, _ := NewService(repo)

	first := "  María  "
	dto, err := svc.Update(context.Background(), repo.user.ID, UpdateUserInput{FirstName: &first})
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if dto.FirstName != "María" {
		t.Fatalf("expected trimmed name, got %q", dto.FirstName)
	}
}

func TestUpdateLocationValidatesRange(t *testing.T) {
	repo := &fakeUserRepo{}
	svc, _ := NewService(repo)

	if err := svc.UpdateLocation(context.Background(), uuid.New(), 91, 0); err == nil {
		t.Fatal("expected out-of-range latitude to fail")
	}
	if err := svc.UpdateLocation(context.Background(), uuid.New(), 19.43, -99.13); err != nil {
		t.Fatalf("unexpected location error: %v", err)
	}
	if repo.lastPoint == nil || repo.lastPoint.Lat != 19.43 {
		t.Fatalf("expected point persisted, got %+v", repo.lastPoint)
	}
}

func TestFindNearbyFiltersByRadius(t *testing.T) {
	// origin at the Ángel de la Independencia; one user ~1km away, one ~200km away
	origin := types.GeographyPoint{Lat: 19.4270, Lng: -99.1677}
	near := locatedUser(19.4326, -99.1332)
	far := locatedUser(20.6736, -103.3440)

	repo := &fakeUserRepo{located: []models.User{far, near}}
	svc, _ := NewService(repo)

	nearby, err := svc.FindNearby(context.Background(), origin, 10, uuid.New(), 50)
	if err != nil {
		t.Fatalf("unexpected nearby error: %v", err)
	}
	if len(nearby) != 1 {
		t.Fatalf("expected 1 user in radius, got %d", len(nearby))
	}
	if nearby[0].UserID != near.ID {
		t.Fatal("expected the near user")
	}
	if nearby[0].DistanceKm <= 0 || nearby[0].DistanceKm > 10 {
		t.Fatalf("unexpected distance %v", nearby[0].DistanceKm)
	}
}

func TestFindNearbySortsNearestFirstAndCaps(t *testing.T) {
	origin := types.GeographyPoint{Lat: 19.4270, Lng: -99.1677}
	closest := locatedUser(19.4275, -99.1670)
	middle := locatedUser(19.4326, -99.1332)
	edge := locatedUser(19.36, -99.17)

	repo := &fakeUserRepo{located: []models.User{edge, closest, middle}}
	svc, _ := NewService(repo)

	nearby, err := svc.FindNearby(context.Background(), origin, 20, uuid.New(), 2)
	if err != nil {
		t.Fatalf("unexpected nearby error: %v", err)
	}
	if len(nearby) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(nearby))
	}
	if nearby[0].UserID != closest.ID {
		t.Fatal("expected nearest user first")
	}
	if nearby[0].DistanceKm > nearby[1].DistanceKm {
		t.Fatal("expected ascending distance order")
	}
}

func TestFindNearbyExcludesReporter(t *testing.T) {
	origin := types.GeographyPoint{Lat: 19.4270, Lng: -99.1677}
	reporter := locatedUser(19.4270, -99.1677)
	other := locatedUser(19.4275, -99.1670)

	repo := &fakeUserRepo{located: []models.User{reporter, other}}
	svc, _ := NewService(repo)

	nearby, err := svc.FindNearby(context.Background(), origin, 10, reporter.ID, 50)
	if err != nil {
		t.Fatalf("unexpected nearby error: %v", err)
	}
	if len(nearby) != 1 || nearby[0].UserID != other.ID {
		t.Fatalf("expected reporter excluded, got %+v", nearby)
	}
}

func TestFindNearbyRejectsNonPositiveRadius(t *testing.T) {
	svc, _ := NewService(&fakeUserRepo{})

	_, err := svc.FindNearby(context.Background(), types.GeographyPoint{}, 0, uuid.New(), 10)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", code)
	}
}
