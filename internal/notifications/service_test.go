package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
	"github.com/ruacmx/ruac-backend/pkg/pagination"
)

type fakeNotificationRepo struct {
	listFn     func(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Notification, error)
	unread     int64
	markReadFn func(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (int64, error)
	existsFn   func(ctx context.Context, userID, notificationID uuid.UUID) (bool, error)
	allReadFn  func(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
}

func (f *fakeNotificationRepo) CreateBatchTx(tx *gorm.DB, rows []models.Notification) error {
	return nil
}

func (f *fakeNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Notification, error) {
	if f.listFn != nil {
		return f.listFn(ctx, userID, cursor, limit)
	}
	return nil, nil
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.unread, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (int64, error) {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, userID, notificationID, at)
	}
	return 0, nil
}

func (f *fakeNotificationRepo) Exists(ctx context.Context, userID, notificationID uuid.UUID) (bool, error) {
	if f.existsFn != nil {
		return f.existsFn(ctx, userID, notificationID)
	}
	return false, nil
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	if f.allReadFn != nil {
		return f.allReadFn(ctx, userID, at)
	}
	return 0, nil
}

func feedRows(n int, base time.Time) []models.Notification {
	rows := make([]models.Notification, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, models.Notification{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			Type:      enums.NotificationTypeAmberAlert,
			Title:     "Alerta",
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}
	return rows
}

func TestListPagesWithCursor(t *testing.T) {
	base := time.Now().UTC().Truncate(time.Second)
	repo := &fakeNotificationRepo{
		listFn: func(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Notification, error) {
			// one more row than the page size signals another page
			return feedRows(limit, base), nil
		},
		unread: 7,
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	page, err := svc.List(context.Background(), uuid.New(), "", 10)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(page.Items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(page.Items))
	}
	if page.NextCursor == nil {
		t.Fatal("expected next cursor when more rows remain")
	}
	if page.UnreadCount != 7 {
		t.Fatalf("expected unread 7, got %d", page.UnreadCount)
	}

	next, err := pagination.ParseCursor(*page.NextCursor)
	if err != nil || next == nil {
		t.Fatalf("expected decodable cursor, got %v (%v)", page.NextCursor, err)
	}
	if next.ID != page.Items[len(page.Items)-1].ID {
		t.Fatal("expected cursor anchored on last item")
	}
}

func TestListLastPageHasNoCursor(t *testing.T) {
	repo := &fakeNotificationRepo{
		listFn: func(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Notification, error) {
			return feedRows(3, time.Now()), nil
		},
	}
	svc, _ := NewService(repo)

	page, err := svc.List(context.Background(), uuid.New(), "", 10)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(page.Items))
	}
	if page.NextCursor != nil {
		t.Fatal("expected no cursor on last page")
	}
}

func TestListRejectsMalformedCursor(t *testing.T) {
	svc, _ := NewService(&fakeNotificationRepo{})

	_, err := svc.List(context.Background(), uuid.New(), "not-a-cursor", 10)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation, got %s", code)
	}
}

func TestMarkReadAlreadyReadIsSuccess(t *testing.T) {
	repo := &fakeNotificationRepo{
		markReadFn: func(ctx context.Context, userID, notificationID uuid.UUID, at time.Time) (int64, error) {
			return 0, nil
		},
		existsFn: func(ctx context.Context, userID, notificationID uuid.UUID) (bool, error) {
			return true, nil
		},
	}
	svc, _ := NewService(repo)

	if err := svc.MarkRead(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("expected already-read to be a no-op, got %v", err)
	}
}

func TestMarkReadUnknownNotificationIsNotFound(t *testing.T) {
	svc, _ := NewService(&fakeNotificationRepo{})

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	if err == nil {
		t.Fatal("expected not found")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", code)
	}
}

func TestMarkAllReadReturnsTouchedCount(t *testing.T) {
	repo := &fakeNotificationRepo{
		allReadFn: func(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
			return 4, nil
		},
	}
	svc, _ := NewService(repo)

	touched, err := svc.MarkAllRead(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if touched != 4 {
		t.Fatalf("expected 4 touched, got %d", touched)
	}
}
