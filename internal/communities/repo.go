package communities

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
)

// Repository handles community and membership persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to community operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns communities, optionally filtered by type, largest first.
func (r *Repository) List(ctx context.Context, communityType *enums.CommunityType) ([]models.Community, error) {
	query := r.db.WithContext(ctx).Model(&models.Community{})
	if communityType != nil {
		query = query.Where("type = ?", *communityType)
	}
	var rows []models.Community
	if err := query.
		Order("member_count DESC").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads a community by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&community).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

// FindBySlug loads a community by its unique slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Community, error) {
	return r.FindBySlugTx(r.db.WithContext(ctx), slug)
}

// FindBySlugTx loads a community by slug inside the provided transaction.
func (r *Repository) FindBySlugTx(tx *gorm.DB, slug string) (*models.Community, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var community models.Community
	if err := tx.Where("slug = ?", slug).First(&community).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

// CreateTx inserts a community inside the provided transaction. Unique slug
// violations bubble up so callers can fall back to the winning row.
func (r *Repository) CreateTx(tx *gorm.DB, community *models.Community) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(community).Error
}

// UpsertMembershipTx inserts a membership row inside the transaction, ignoring
// duplicates. It reports whether a new row was actually written so callers can
// keep member_count in step.
func (r *Repository) UpsertMembershipTx(tx *gorm.DB, communityID, userID uuid.UUID, autoJoined bool) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	row := models.CommunityMembership{
		CommunityID:  communityID,
		UserID:       userID,
		IsAutoJoined: autoJoined,
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindMembership loads the membership row for a (community, user) pair.
func (r *Repository) FindMembership(ctx context.Context, communityID, userID uuid.UUID) (*models.CommunityMembership, error) {
	var row models.CommunityMembership
	if err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteMembershipTx removes the membership row inside the transaction and
// reports whether one existed.
func (r *Repository) DeleteMembershipTx(tx *gorm.DB, communityID, userID uuid.UUID) (bool, error) {
	if tx == nil {
		return false, gorm.ErrInvalidTransaction
	}
	res := tx.Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.CommunityMembership{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListMembershipsByUser returns all memberships held by a user.
func (r *Repository) ListMembershipsByUser(ctx context.Context, userID uuid.UUID) ([]models.CommunityMembership, error) {
	return r.ListMembershipsByUserTx(r.db.WithContext(ctx), userID)
}

// ListMembershipsByUserTx returns a user's memberships inside the transaction.
func (r *Repository) ListMembershipsByUserTx(tx *gorm.DB, userID uuid.UUID) ([]models.CommunityMembership, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var rows []models.CommunityMembership
	if err := tx.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByIDsTx loads communities by ID inside the transaction.
func (r *Repository) FindByIDsTx(tx *gorm.DB, ids []uuid.UUID) ([]models.Community, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Community
	if err := tx.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AdjustMemberCountTx shifts member_count by delta inside the transaction.
func (r *Repository) AdjustMemberCountTx(tx *gorm.DB, communityID uuid.UUID, delta int) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Model(&models.Community{}).
		Where("id = ?", communityID).
		Update("member_count", gorm.Expr("member_count + ?", delta)).Error
}

// AdjustPostCountTx shifts post_count by delta inside the transaction.
func (r *Repository) AdjustPostCountTx(tx *gorm.DB, communityID uuid.UUID, delta int) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Model(&models.Community{}).
		Where("id = ?", communityID).
		Update("post_count", gorm.Expr("post_count + ?", delta)).Error
}
