package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	pkgerrors "github.com/ruacmx/ruac-backend/pkg/errors"
	"github.com/ruacmx/ruac-backend/pkg/pagination"
)

const maxContentLength = 4000

type postRepository interface {
	CreateTx(tx *gorm.DB, post *models.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListByCommunity(ctx context.Context, communityID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Post, error)
	DeleteTx(tx *gorm.DB, postID uuid.UUID) error
	LikeCountsByPostIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error)
	CommentCountsByPostIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error)
	LikedSetByUser(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]struct{}, error)
	UpsertLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	DeleteLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	CreateComment(ctx context.Context, comment *models.PostComment) error
	ListComments(ctx context.Context, postID uuid.UUID) ([]models.PostComment, error)
	CreateReportTx(tx *gorm.DB, report *models.PostReport) error
	FindReportByIDTx(tx *gorm.DB, id uuid.UUID) (*models.PostReport, error)
	UpdateReportTx(tx *gorm.DB, report *models.PostReport) error
	CountOpenReportsTx(tx *gorm.DB, postID uuid.UUID) (int64, error)
	SetReportedTx(tx *gorm.DB, postID uuid.UUID, reported bool) error
	ListOpenReports(ctx context.Context, limit int) ([]models.PostReport, error)
}

type membershipChecker interface {
	FindMembership(ctx context.Context, communityID, userID uuid.UUID) (*models.CommunityMembership, error)
	AdjustPostCountTx(tx *gorm.DB, communityID uuid.UUID, delta int) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the community feed plus the moderation workflow. Reports
// are resolved one at a time; a post only sheds its reported flag when the
// last open report against it is dismissed.
type Service interface {
	Create(ctx context.Context, userID, communityID uuid.UUID, input CreatePostInput) (*PostDTO, error)
	Get(ctx context.Context, viewerID, postID uuid.UUID) (*PostDTO, error)
	ListByCommunity(ctx context.Context, viewerID, communityID uuid.UUID, cursor string, limit int) (*PostPage, error)
	Delete(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, postID uuid.UUID) error
	Like(ctx context.Context, userID, postID uuid.UUID) error
	Unlike(ctx context.Context, userID, postID uuid.UUID) error
	Comment(ctx context.Context, userID, postID uuid.UUID, content string) (*CommentDTO, error)
	ListComments(ctx context.Context, postID uuid.UUID) ([]CommentDTO, error)
	Report(ctx context.Context, reporterID, postID uuid.UUID, reason string) (*ReportDTO, error)
	DismissReport(ctx context.Context, reportID uuid.UUID) (*ReportDTO, error)
	ListOpenReports(ctx context.Context, limit int) ([]ReportDTO, error)
}

type service struct {
	repo        postRepository
	memberships membershipChecker
	tx          txRunner
	now         func() time.Time
}

// NewService builds a post service with the provided repositories.
func NewService(repo postRepository, memberships membershipChecker, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("post repository required")
	}
	if memberships == nil {
		return nil, fmt.Errorf("membership repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, memberships: memberships, tx: tx, now: time.Now}, nil
}

// CreatePostInput captures the fields for a new post.
type CreatePostInput struct {
	Content  string
	Type     enums.PostType
	PhotoURL *string
}

func (s *service) requireMembership(ctx context.Context, communityID, userID uuid.UUID) error {
	_, err := s.memberships.FindMembership(ctx, communityID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "community membership required")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	return nil
}

func (s *service) loadPost(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load post")
	}
	return post, nil
}

func (s *service) Create(ctx context.Context, userID, communityID uuid.UUID, input CreatePostInput) (*PostDTO, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content is required")
	}
	if len(content) > maxContentLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content too long")
	}
	postType := input.Type
	if postType == "" {
		postType = enums.PostTypeGeneral
	}
	if !postType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid post type")
	}

	if err := s.requireMembership(ctx, communityID, userID); err != nil {
		return nil, err
	}

	post := &models.Post{
		CommunityID: communityID,
		UserID:      userID,
		Content:     content,
		Type:        postType,
		PhotoURL:    input.PhotoURL,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, post); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create post")
		}
		return s.memberships.AdjustPostCountTx(tx, communityID, 1)
	})
	if err != nil {
		return nil, err
	}

	dto := postFromModel(*post, 0, 0, false)
	return &dto, nil
}

func (s *service) decorate(ctx context.Context, viewerID uuid.UUID, rows []models.Post) ([]PostDTO, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	likeCounts, err := s.repo.LikeCountsByPostIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count likes")
	}
	commentCounts, err := s.repo.CommentCountsByPostIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count comments")
	}
	liked, err := s.repo.LikedSetByUser(ctx, viewerID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load likes")
	}

	dtos := make([]PostDTO, 0, len(rows))
	for _, row := range rows {
		_, likedByMe := liked[row.ID]
		dtos = append(dtos, postFromModel(row, likeCounts[row.ID], commentCounts[row.ID], likedByMe))
	}
	return dtos, nil
}

func (s *service) Get(ctx context.Context, viewerID, postID uuid.UUID) (*PostDTO, error) {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	dtos, err := s.decorate(ctx, viewerID, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}

func (s *service) ListByCommunity(ctx context.Context, viewerID, communityID uuid.UUID, cursor string, limit int) (*PostPage, error) {
	parsed, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	pageSize := pagination.NormalizeLimit(limit)
	rows, err := s.repo.ListByCommunity(ctx, communityID, parsed, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list posts")
	}

	var nextCursor *string
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		encoded := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		nextCursor = &encoded
	}

	items, err := s.decorate(ctx, viewerID, rows)
	if err != nil {
		return nil, err
	}
	return &PostPage{Items: items, NextCursor: nextCursor}, nil
}

func (s *service) Delete(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, postID uuid.UUID) error {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != actorID && actorRole != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the author or an admin can delete a post")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.DeleteTx(tx, postID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete post")
		}
		return s.memberships.AdjustPostCountTx(tx, post.CommunityID, -1)
	})
}

func (s *service) Like(ctx context.Context, userID, postID uuid.UUID) error {
	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.requireMembership(ctx, post.CommunityID, userID); err != nil {
		return err
	}
	if _, err := s.repo.UpsertLike(ctx, postID, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create like")
	}
	return nil
}

func (s *service) Unlike(ctx context.Context, userID, postID uuid.UUID) error {
	if _, err := s.loadPost(ctx, postID); err != nil {
		return err
	}
	if _, err := s.repo.DeleteLike(ctx, postID, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete like")
	}
	return nil
}

func (s *service) Comment(ctx context.Context, userID, postID uuid.UUID, content string) (*CommentDTO, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content is required")
	}
	if len(content) > maxContentLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content too long")
	}

	post, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMembership(ctx, post.CommunityID, userID); err != nil {
		return nil, err
	}

	comment := &models.PostComment{
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create comment")
	}

	dto := commentFromModel(*comment)
	return &dto, nil
}

func (s *service) ListComments(ctx context.Context, postID uuid.UUID) ([]CommentDTO, error) {
	if _, err := s.loadPost(ctx, postID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListComments(ctx, postID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list comments")
	}
	dtos := make([]CommentDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, commentFromModel(row))
	}
	return dtos, nil
}

// Report files a new report against a post and marks the post as reported.
// Reporting an already reported post stacks another open report.
func (s *service) Report(ctx context.Context, reporterID, postID uuid.UUID, reason string) (*ReportDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	if _, err := s.loadPost(ctx, postID); err != nil {
		return nil, err
	}

	report := &models.PostReport{
		PostID:     postID,
		ReporterID: reporterID,
		Reason:     reason,
		Status:     enums.ReportStatusOpen,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateReportTx(tx, report); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create report")
		}
		return s.repo.SetReportedTx(tx, postID, true)
	})
	if err != nil {
		return nil, err
	}

	dto := reportFromModel(*report)
	return &dto, nil
}

// DismissReport resolves one report. The post keeps its reported flag while
// other reports against it remain open.
func (s *service) DismissReport(ctx context.Context, reportID uuid.UUID) (*ReportDTO, error) {
	var dto ReportDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		report, err := s.repo.FindReportByIDTx(tx, reportID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load report")
		}
		if report.Status != enums.ReportStatusOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "report already resolved")
		}

		now := s.now().UTC()
		report.Status = enums.ReportStatusDismissed
		report.ResolvedAt = &now
		if err := s.repo.UpdateReportTx(tx, report); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update report")
		}

		open, err := s.repo.CountOpenReportsTx(tx, report.PostID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count open reports")
		}
		if open == 0 {
			if err := s.repo.SetReportedTx(tx, report.PostID, false); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear reported flag")
			}
		}

		dto = reportFromModel(*report)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *service) ListOpenReports(ctx context.Context, limit int) ([]ReportDTO, error) {
	rows, err := s.repo.ListOpenReports(ctx, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reports")
	}
	dtos := make([]ReportDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, reportFromModel(row))
	}
	return dtos, nil
}
