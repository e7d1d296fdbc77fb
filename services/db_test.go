package services

import (
	"path/filepath"
	"testing"

	"lending-pnl-system/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway sqlite database with the full schema. The store
// services only use portable gorm operations (OnConflict upserts, filtered
// deletes, transactions), so sqlite stands in for postgres in tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "pnl_test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.IndexerCursor{},
		&models.ActivityEvent{},
		&models.WalletPosition{},
		&models.WalletDailyPnl{},
	))
	return db
}
