package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var accountColumns = []string{
	"id", "external_user_id", "energy", "max_energy", "experience", "level",
	"coins", "points", "quests_completed", "distance_traveled",
	"last_energy_update_at", "version",
}

func accountRow(id, userID string, energy, maxEnergy int, lastUpdate time.Time, version int64) *sqlmock.Rows {
	return sqlmock.NewRows(accountColumns).
		AddRow(id, userID, energy, maxEnergy, int64(0), 1, int64(0), int64(0), int64(0), int64(0), lastUpdate, version)
}
