// services/cursor.go
package services

import (
	"fmt"
	"time"

	"lending-pnl-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CursorService is the sole writer of pnl_indexer_state. The stored cursor is
// always the last block whose events are durably persisted; the next run
// resumes at cursor+1, so a cursor write must happen-after the event write for
// the same chunk.
type CursorService struct {
	DB *gorm.DB
}

func NewCursorService(db *gorm.DB) *CursorService {
	return &CursorService{DB: db}
}

// NextStartBlock returns the block the scan should resume from. On first run
// it bootstraps the cursor from the safe head minus the lookback window and
// persists it, so a crash before the first chunk lands re-bootstraps to the
// same place.
func (s *CursorService) NextStartBlock(chainID int64, protocol string, latestSafeBlock, lookbackBlocks int64) (int64, error) {
	var cursor models.IndexerCursor
	err := s.DB.Where("chain_id = ? AND protocol = ?", chainID, protocol).First(&cursor).Error
	if err == nil {
		return cursor.CursorBlock + 1, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, fmt.Errorf("failed to read indexer cursor for %s: %w", protocol, err)
	}

	start := BootstrapStartBlock(latestSafeBlock, lookbackBlocks)
	bootstrapCursor := start - 1
	if bootstrapCursor < 0 {
		bootstrapCursor = 0
	}
	if err := s.SaveCursor(chainID, protocol, bootstrapCursor); err != nil {
		return 0, fmt.Errorf("failed to initialize indexer cursor for %s: %w", protocol, err)
	}
	return start, nil
}

// SaveCursor records the last durably indexed block for (chain, protocol).
func (s *CursorService) SaveCursor(chainID int64, protocol string, cursorBlock int64) error {
	row := models.IndexerCursor{
		ChainID:          chainID,
		Protocol:         protocol,
		CursorBlock:      cursorBlock,
		LastIndexedBlock: cursorBlock,
		UpdatedAt:        time.Now().UTC(),
	}

	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chain_id"}, {Name: "protocol"}},
		DoUpdates: clause.AssignmentColumns([]string{"cursor_block", "last_indexed_block", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to update indexer cursor for %s: %w", protocol, err)
	}
	return nil
}

// BootstrapStartBlock computes the first block to scan on a fresh cursor:
// lookbackBlocks behind the safe head, clamped at genesis.
func BootstrapStartBlock(latestSafeBlock, lookbackBlocks int64) int64 {
	if latestSafeBlock > lookbackBlocks {
		return latestSafeBlock - lookbackBlocks + 1
	}
	return 0
}
