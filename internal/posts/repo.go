package posts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	"github.com/ruacmx/ruac-backend/pkg/pagination"
)

// Repository handles post, like, comment and report persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to post operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts a post inside the provided transaction.
func (r *Repository) CreateTx(tx *gorm.DB, post *models.Post) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(post).Error
}

// FindByID loads a post by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// ListByCommunity returns one cursor page of a community feed. Pinned posts
// float to the top of the first page.
func (r *Repository) ListByCommunity(ctx context.Context, communityID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Post, error) {
	query := r.db.WithContext(ctx).
		Where("community_id = ?", communityID)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	} else {
		query = query.Order("is_pinned DESC")
	}

	var rows []models.Post
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteTx removes a post and its dependent rows inside the transaction.
func (r *Repository) DeleteTx(tx *gorm.DB, postID uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id = ?", postID).Delete(&models.PostComment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id = ?", postID).Delete(&models.PostReport{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", postID).Delete(&models.Post{}).Error
}

type countRow struct {
	PostID uuid.UUID
	Total  int64
}

// LikeCountsByPostIDs returns like totals keyed by post.
func (r *Repository) LikeCountsByPostIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	return r.countsByPost(ctx, &models.PostLike{}, ids)
}

// CommentCountsByPostIDs returns comment totals keyed by post.
func (r *Repository) CommentCountsByPostIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	return r.countsByPost(ctx, &models.PostComment{}, ids)
}

func (r *Repository) countsByPost(ctx context.Context, model any, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []countRow
	if err := r.db.WithContext(ctx).
		Model(model).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.PostID] = row.Total
	}
	return counts, nil
}

// LikedSetByUser returns which of the given posts the user has liked.
func (r *Repository) LikedSetByUser(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	liked := make(map[uuid.UUID]struct{}, len(ids))
	if len(ids) == 0 || userID == uuid.Nil {
		return liked, nil
	}
	var rows []models.PostLike
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id IN ?", userID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		liked[row.PostID] = struct{}{}
	}
	return liked, nil
}

// UpsertLike inserts a like, ignoring duplicates, and reports whether a new
// row was written.
func (r *Repository) UpsertLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	row := models.PostLike{PostID: postID, UserID: userID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteLike removes the user's like and reports whether one existed.
func (r *Repository) DeleteLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.PostLike{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CreateComment inserts a comment row.
func (r *Repository) CreateComment(ctx context.Context, comment *models.PostComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// ListComments returns a post's comments oldest first.
func (r *Repository) ListComments(ctx context.Context, postID uuid.UUID) ([]models.PostComment, error) {
	var rows []models.PostComment
	if err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateReportTx inserts a report inside the transaction.
func (r *Repository) CreateReportTx(tx *gorm.DB, report *models.PostReport) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(report).Error
}

// FindReportByIDTx loads a report inside the transaction.
func (r *Repository) FindReportByIDTx(tx *gorm.DB, id uuid.UUID) (*models.PostReport, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var report models.PostReport
	if err := tx.Where("id = ?", id).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// UpdateReportTx saves the report inside the transaction.
func (r *Repository) UpdateReportTx(tx *gorm.DB, report *models.PostReport) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Save(report).Error
}

// CountOpenReportsTx counts a post's open reports inside the transaction.
func (r *Repository) CountOpenReportsTx(tx *gorm.DB, postID uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	var count int64
	err := tx.Model(&models.PostReport{}).
		Where("post_id = ? AND status = ?", postID, enums.ReportStatusOpen).
		Count(&count).Error
	return count, err
}

// SetReportedTx flips the post-level reported flag inside the transaction.
func (r *Repository) SetReportedTx(tx *gorm.DB, postID uuid.UUID, reported bool) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Model(&models.Post{}).
		Where("id = ?", postID).
		Update("is_reported", reported).Error
}

// ListOpenReports returns open reports oldest first for the moderation queue.
func (r *Repository) ListOpenReports(ctx context.Context, limit int) ([]models.PostReport, error) {
	var rows []models.PostReport
	if err := r.db.WithContext(ctx).
		Where("status = ?", enums.ReportStatusOpen).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
