package services

import (
	"testing"

	"lending-pnl-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapStartBlock(t *testing.T) {
	// Normal case: lookback window behind the safe head.
	assert.Equal(t, int64(920001), BootstrapStartBlock(1000000, 80000))

	// Young chain: lookback longer than the chain itself starts at genesis.
	assert.Equal(t, int64(0), BootstrapStartBlock(50000, 80000))
	assert.Equal(t, int64(0), BootstrapStartBlock(0, 80000))

	// Boundary: head equal to the window still bootstraps from genesis.
	assert.Equal(t, int64(0), BootstrapStartBlock(80000, 80000))
	assert.Equal(t, int64(2), BootstrapStartBlock(80001, 80000))
}

func TestNextStartBlockResumesAtCursorPlusOne(t *testing.T) {
	svc := NewCursorService(newTestDB(t))

	require.NoError(t, svc.SaveCursor(testChain, ProtocolAaveV3, 5000))

	start, err := svc.NextStartBlock(testChain, ProtocolAaveV3, 1000000, 80000)
	require.NoError(t, err)
	assert.Equal(t, int64(5001), start)
}

func TestNextStartBlockBootstrapPersists(t *testing.T) {
	db := newTestDB(t)
	svc := NewCursorService(db)

	start, err := svc.NextStartBlock(testChain, ProtocolAaveV3, 1000000, 80000)
	require.NoError(t, err)
	assert.Equal(t, int64(920001), start)

	// The bootstrap cursor landed, so a crash before the first chunk resumes
	// from the same place instead of re-deriving a new window.
	again, err := svc.NextStartBlock(testChain, ProtocolAaveV3, 1000500, 80000)
	require.NoError(t, err)
	assert.Equal(t, int64(920001), again)

	var count int64
	require.NoError(t, db.Model(&models.IndexerCursor{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSaveCursorAdvancesSingleRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewCursorService(db)

	require.NoError(t, svc.SaveCursor(testChain, ProtocolAaveV3, 100))
	require.NoError(t, svc.SaveCursor(testChain, ProtocolAaveV3, 200))
	require.NoError(t, svc.SaveCursor(testChain, ProtocolRadiantV2, 150))

	var rows []models.IndexerCursor
	require.NoError(t, db.Where("chain_id = ? AND protocol = ?", testChain, ProtocolAaveV3).Find(&rows).Error)
	require.Len(t, rows, 1, "advancing must upsert, never duplicate the (chain, protocol) row")
	assert.Equal(t, int64(200), rows[0].CursorBlock)
	assert.Equal(t, int64(200), rows[0].LastIndexedBlock)

	// The other protocol's cursor is independent.
	var radiant models.IndexerCursor
	require.NoError(t, db.Where("chain_id = ? AND protocol = ?", testChain, ProtocolRadiantV2).First(&radiant).Error)
	assert.Equal(t, int64(150), radiant.CursorBlock)
}
