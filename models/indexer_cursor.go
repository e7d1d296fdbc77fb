// models/indexer_cursor.go
package models

import "time"

// IndexerCursor tracks scan progress per (chain, protocol).
// Table name: pnl_indexer_state
//
// CursorBlock is the last block whose events are durably persisted; the next
// run resumes at CursorBlock+1. It only ever moves forward.
type IndexerCursor struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ChainID          int64     `gorm:"column:chain_id;not null;uniqueIndex:idx_indexer_state_chain_protocol,priority:1" json:"chain_id"`
	Protocol         string    `gorm:"column:protocol;type:varchar(64);not null;uniqueIndex:idx_indexer_state_chain_protocol,priority:2" json:"protocol"`
	CursorBlock      int64     `gorm:"column:cursor_block;not null" json:"cursor_block"`
	LastIndexedBlock int64     `gorm:"column:last_indexed_block;not null" json:"last_indexed_block"`
	UpdatedAt        time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (IndexerCursor) TableName() string {
	return "pnl_indexer_state"
}
