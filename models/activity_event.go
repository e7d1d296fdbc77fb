// models/activity_event.go
package models

import "time"

// Canonical actions for wallet_activity_events.action.
const (
	ActionDeposit  = "deposit"
	ActionWithdraw = "withdraw"
	ActionBorrow   = "borrow"
	ActionRepay    = "repay"
)

// ActivityEvent is one canonical on-chain lending event.
// Table name: wallet_activity_events
//
// (chain_id, tx_hash, log_index) is the natural idempotency key — re-observing
// the same block range upserts identical rows instead of duplicating them.
// AmountUsd is NULL when no historical price could be resolved; the event is
// still recorded (enrichment degrades precision, never availability).
type ActivityEvent struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ChainID       int64     `gorm:"column:chain_id;not null;uniqueIndex:idx_activity_chain_tx_log,priority:1" json:"chain_id"`
	Protocol      string    `gorm:"column:protocol;type:varchar(64);not null;index" json:"protocol"`
	WalletAddress string    `gorm:"column:wallet_address;type:varchar(64);not null;index" json:"wallet_address"`
	Action        string    `gorm:"column:action;type:varchar(16);not null" json:"action"`
	AssetAddress  string    `gorm:"column:asset_address;type:varchar(64);not null" json:"asset_address"`
	AssetSymbol   string    `gorm:"column:asset_symbol;type:varchar(32);not null" json:"asset_symbol"`
	AmountRaw     string    `gorm:"column:amount_raw;type:varchar(96);not null" json:"amount_raw"`
	AmountToken   *float64  `gorm:"column:amount_token;type:decimal(36,18)" json:"amount_token"`
	AmountUsd     *float64  `gorm:"column:amount_usd;type:decimal(24,8)" json:"amount_usd"`
	TxHash        string    `gorm:"column:tx_hash;type:varchar(96);not null;uniqueIndex:idx_activity_chain_tx_log,priority:2" json:"tx_hash"`
	LogIndex      uint      `gorm:"column:log_index;not null;uniqueIndex:idx_activity_chain_tx_log,priority:3" json:"log_index"`
	BlockNumber   int64     `gorm:"column:block_number;not null;index" json:"block_number"`
	BlockTime     time.Time `gorm:"column:block_time;not null" json:"block_time"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (ActivityEvent) TableName() string {
	return "wallet_activity_events"
}
