package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/enums"
	"github.com/ruacmx/ruac-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`
		CREATE TABLE notifications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			related_id TEXT,
			read_at DATETIME,
			created_at DATETIME NOT NULL
		)
	`).Error)
	return conn
}

func seedNotification(t *testing.T, db *gorm.DB, userID uuid.UUID, createdAt time.Time, read bool) models.Notification {
	t.Helper()

	row := models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      enums.NotificationTypeAmberAlert,
		Title:     "Alerta de mascota perdida",
		Message:   "Canela se perdió cerca de ti",
		CreatedAt: createdAt,
	}
	if read {
		at := createdAt.Add(time.Minute)
		row.ReadAt = &at
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestRepositoryListByUserPagesNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	oldest := seedNotification(t, db, userID, base.Add(-3*time.Hour), false)
	middle := seedNotification(t, db, userID, base.Add(-2*time.Hour), false)
	newest := seedNotification(t, db, userID, base.Add(-1*time.Hour), false)
	seedNotification(t, db, uuid.New(), base, false) // someone else's row

	page, err := repo.ListByUser(context.Background(), userID, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, newest.ID, page[0].ID)
	assert.Equal(t, middle.ID, page[1].ID)

	cursor := &pagination.Cursor{CreatedAt: page[1].CreatedAt, ID: page[1].ID}
	rest, err := repo.ListByUser(context.Background(), userID, cursor, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, oldest.ID, rest[0].ID)
}

func TestRepositoryCountUnread(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	base := time.Now().UTC()

	seedNotification(t, db, userID, base, false)
	seedNotification(t, db, userID, base, false)
	seedNotification(t, db, userID, base, true)

	count, err := repo.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRepositoryMarkReadScopesToOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	owner := uuid.New()
	row := seedNotification(t, db, owner, time.Now().UTC(), false)

	touched, err := repo.MarkRead(context.Background(), uuid.New(), row.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, touched, "stranger must not read someone else's notification")

	touched, err = repo.MarkRead(context.Background(), owner, row.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), touched)

	// already read rows are not touched again
	touched, err = repo.MarkRead(context.Background(), owner, row.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, touched)

	exists, err := repo.Exists(context.Background(), owner, row.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepositoryMarkAllRead(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()
	base := time.Now().UTC()

	seedNotification(t, db, userID, base, false)
	seedNotification(t, db, userID, base, false)
	seedNotification(t, db, userID, base, true)

	touched, err := repo.MarkAllRead(context.Background(), userID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(2), touched)

	count, err := repo.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepositoryCreateBatchTxRequiresTransaction(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	assert.Error(t, repo.CreateBatchTx(nil, []models.Notification{{}}))
}
