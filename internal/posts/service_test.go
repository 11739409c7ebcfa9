package posts

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

type fakePostRepo struct {
	post          *models.Post
	report        *models.PostReport
	openCount     int64
	createdPosts  []models.Post
	reports       []models.PostReport
	updatedReport *models.PostReport
	reportedFlags []bool
	deleted       []uuid.UUID
}

func (f *fakePostRepo) CreateTx(tx *gorm.DB, post *models.Post) error {
	f.createdPosts = append(f.createdPosts, *post)
	return nil
}

func (f *fakePostRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	if f.post == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.post
	return &copied, nil
}

func (f *fakePostRepo) ListByCommunity(ctx context.Context, communityID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Post, error) {
	return nil, nil
}

func (f *fakePostRepo) DeleteTx(tx *gorm.DB, postID uuid.UUID) error {
	f.deleted = append(f.deleted, postID)
	return nil
}

func (f *fakePostRepo) LikeCountsByPostIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	return map[uuid.UUID]int64{}, nil
}

func (f *fakePostRepo) CommentCountsByPostIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	return map[uuid.UUID]int64{}, nil
}

func (f *fakePostRepo) LikedSetByUser(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	return map[uuid.UUID]struct{}{}, nil
}

func (f *fakePostRepo) UpsertLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	return true, nil
}

func (f *fakePostRepo) DeleteLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	return true, nil
}

func (f *fakePostRepo) CreateComment(ctx context.Context, comment *models.PostComment) error {
	return nil
}

func (f *fakePostRepo) ListComments(ctx context.Context, postID uuid.UUID) ([]models.PostComment, error) {
	return nil, nil
}

func (f *fakePostRepo) CreateReportTx(tx *gorm.DB, report *models.PostReport) error {
	f.reports = append(f.reports, *report)
	return nil
}

func (f *fakePostRepo) FindReportByIDTx(tx *gorm.DB, id uuid.UUID) (*models.PostReport, error) {
	if f.report == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.report
	return &copied, nil
}

func (f *fakePostRepo) UpdateReportTx(tx *gorm.DB, report *models.PostReport) error {
	f.updatedReport = report
	return nil
}

func (f *fakePostRepo) CountOpenReportsTx(tx *gorm.DB, postID uuid.UUID) (int64, error) {
	return f.openCount, nil
}

func (f *fakePostRepo) SetReportedTx(tx *gorm.DB, postID uuid.UUID, reported bool) error {
	f.reportedFlags = append(f.reportedFlags, reported)
	return nil
}

func (f *fakePostRepo) ListOpenReports(ctx context.Context, limit int) ([]models.PostReport, error) {
	return nil, nil
}

type fakeMemberships struct {
	member      bool
	postCountBy int
}

func (f *fakeMemberships) FindMembership(ctx context.Context, communityID, userID uuid.UUID) (*models.CommunityMembership, error) {
	if !f.member {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.CommunityMembership{CommunityID: communityID, UserID: userID}, nil
}

func (f *fakeMemberships) AdjustPostCountTx(tx *gorm.DB, communityID uuid.UUID, delta int) error {
	f.postCountBy += delta
	return nil
}

type fakeTxRunner struct{}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newPostService(t *testing.T, repo *fakePostRepo, member bool) (Service, *fakeMemberships) {
	t.Helper()
	memberships := &fakeMemberships{member: member}
	svc, err := NewService(repo, memberships, &fakeTxRunner{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, memberships
}

func TestCreateRequiresMembership(t *testing.T) {
	svc, _ := newPostService(t, &fakePostRepo{}, false)

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreatePostInput{Content: "hola"})
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}
}

func TestCreateBumpsCommunityPostCount(t *testing.T) {
	repo := &fakePostRepo{}
	svc, memberships := newPostService(t, repo, true)

	dto, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreatePostInput{Content: "  Hola comunidad  "})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if dto.Content != "Hola comunidad" {
		t.Fatalf("expected trimmed content, got %q", dto.Content)
	}
	if dto.Type != enums.PostTypeGeneral {
		t.Fatalf("expected default type, got %s", dto.Type)
	}
	if memberships.postCountBy != 1 {
		t.Fatalf("expected post count +1, got %d", memberships.postCountBy)
	}
}

func TestDeleteOnlyAuthorOrAdmin(t *testing.T) {
	author := uuid.New()
	post := &models.Post{ID: uuid.New(), CommunityID: uuid.New(), UserID: author}

	repo := &fakePostRepo{post: post}
	svc, memberships := newPostService(t, repo, true)

	err := svc.Delete(context.Background(), uuid.New(), enums.UserRoleTutor, post.ID)
	if err == nil {
		t.Fatal("expected forbidden for stranger")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %s", code)
	}

	if err := svc.Delete(context.Background(), uuid.New(), enums.UserRoleAdmin, post.ID); err != nil {
		t.Fatalf("expected admin delete to pass: %v", err)
	}
	if err := svc.Delete(context.Background(), author, enums.UserRoleTutor, post.ID); err != nil {
		t.Fatalf("expected author delete to pass: %v", err)
	}
	if memberships.postCountBy != -2 {
		t.Fatalf("expected post count -2, got %d", memberships.postCountBy)
	}
}

func TestReportMarksPostReported(t *testing.T) {
	post := &models.Post{ID: uuid.New(), CommunityID: uuid.New(), UserID: uuid.New()}
	repo := &fakePostRepo{post: post}
	svc, _ := newPostService(t, repo, true)

	dto, err := svc.Report(context.Background(), uuid.New(), post.ID, "contenido ofensivo")
	if err != nil {
		t.Fatalf("unexpected report error: %v", err)
	}
	if dto.Status != enums.ReportStatusOpen {
		t.Fatalf("expected open report, got %s", dto.Status)
	}
	if len(repo.reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(repo.reports))
	}
	if len(repo.reportedFlags) != 1 || !repo.reportedFlags[0] {
		t.Fatalf("expected reported flag set, got %v", repo.reportedFlags)
	}
}

func TestDismissLastOpenReportClearsFlag(t *testing.T) {
	postID := uuid.New()
	repo := &fakePostRepo{
		report:    &models.PostReport{ID: uuid.New(), PostID: postID, Status: enums.ReportStatusOpen},
		openCount: 0,
	}
	svc, _ := newPostService(t, repo, true)

	dto, err := svc.DismissReport(context.Background(), repo.report.ID)
	if err != nil {
		t.Fatalf("unexpected dismiss error: %v", err)
	}
	if dto.Status != enums.ReportStatusDismissed {
		t.Fatalf("expected dismissed, got %s", dto.Status)
	}
	if dto.ResolvedAt == nil {
		t.Fatal("expected resolved timestamp")
	}
	if len(repo.reportedFlags) != 1 || repo.reportedFlags[0] {
		t.Fatalf("expected reported flag cleared, got %v", repo.reportedFlags)
	}
}

func TestDismissKeepsFlagWhileReportsRemain(t *testing.T) {
	postID := uuid.New()
	repo := &fakePostRepo{
		report:    &models.PostReport{ID: uuid.New(), PostID: postID, Status: enums.ReportStatusOpen},
		openCount: 2,
	}
	svc, _ := newPostService(t, repo, true)

	if _, err := svc.DismissReport(context.Background(), repo.report.ID); err != nil {
		t.Fatalf("unexpected dismiss error: %v", err)
	}
	if len(repo.reportedFlags) != 0 {
		t.Fatalf("expected reported flag untouched, got %v", repo.reportedFlags)
	}
}

func TestDismissResolvedReportIsStateConflict(t *testing.T) {
	resolvedAt := time.Now().Add(-time.Hour)
	repo := &fakePostRepo{
		report: &models.PostReport{ID: uuid.New(), PostID: uuid.New(), Status: enums.ReportStatusDismissed, ResolvedAt: &resolvedAt},
	}
	svc, _ := newPostService(t, repo, true)

	_, err := svc.DismissReport(context.Background(), repo.report.ID)
	if err == nil {
		t.Fatal("expected state conflict")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %s", code)
	}
}

func TestDismissUnknownReportIsNotFound(t *testing.T) {
	svc, _ := newPostService(t, &fakePostRepo{}, true)

	_, err := svc.DismissReport(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected not found")
	}
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %s", code)
	}
}
