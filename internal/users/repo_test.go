package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ruacmx/ruac-backend/pkg/db/models"
	"github.com/ruacmx/ruac-backend/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			phone TEXT,
			role TEXT NOT NULL DEFAULT 'tutor',
			city TEXT,
			last_location TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error)
	return conn
}

func seedUser(t *testing.T, db *gorm.DB, active bool, location *types.GeographyPoint) models.User {
	t.Helper()

	row := models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.mx",
		FirstName:    "Ana",
		LastName:     "García",
		IsActive:     active,
		LastLocation: location,
	}
	require.NoError(t, db.Create(&row).Error)
	// GORM skips zero-value fields carrying a default tag on Create, so an
	// explicit update is needed for is_active=false to reach the row.
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", row.ID).Update("is_active", active).Error)
	return row
}

func TestRepositoryListActiveWithLocationSkipsUnlocatedAndInactive(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	origin := types.GeographyPoint{Lat: 19.4326, Lng: -99.1332}

	located := seedUser(t, db, true, &types.GeographyPoint{Lat: 19.4270, Lng: -99.1677})
	seedUser(t, db, true, nil)
	seedUser(t, db, false, &types.GeographyPoint{Lat: 19.43, Lng: -99.14})

	rows, err := repo.ListActiveWithLocation(context.Background(), origin, 5, uuid.Nil)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, located.ID, rows[0].ID)
}

func TestRepositoryListActiveWithLocationExcludesReporter(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	origin := types.GeographyPoint{Lat: 19.4326, Lng: -99.1332}

	reporter := seedUser(t, db, true, &origin)
	other := seedUser(t, db, true, &types.GeographyPoint{Lat: 19.4270, Lng: -99.1677})

	rows, err := repo.ListActiveWithLocation(context.Background(), origin, 5, reporter.ID)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, other.ID, rows[0].ID)
}
