// models/wallet_pnl.go
package models

import "time"

// WalletPosition is the replayed realized-PnL state for one
// (wallet, chain, protocol, asset) ledger.
// Table name: wallet_pnl_positions
//
// PrincipalUsd is the outstanding USD cost basis and never goes negative.
// RealizedPnlUsd only accumulates — profit banked by a withdrawal is never
// reversed by later deposits. Rows are fully recomputed (delete then reinsert)
// on every rebuild, never patched in place.
type WalletPosition struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	WalletAddress    string    `gorm:"column:wallet_address;type:varchar(64);not null;index:idx_pnl_positions_wallet_chain,priority:1" json:"wallet_address"`
	ChainID          int64     `gorm:"column:chain_id;not null;index:idx_pnl_positions_wallet_chain,priority:2" json:"chain_id"`
	Protocol         string    `gorm:"column:protocol;type:varchar(64);not null" json:"protocol"`
	AssetAddress     string    `gorm:"column:asset_address;type:varchar(64);not null" json:"asset_address"`
	AssetSymbol      string    `gorm:"column:asset_symbol;type:varchar(32);not null" json:"asset_symbol"`
	PrincipalUsd     float64   `gorm:"column:principal_usd;type:decimal(24,8);not null;default:0" json:"principal_usd"`
	RealizedPnlUsd   float64   `gorm:"column:realized_pnl_usd;type:decimal(24,8);not null;default:0" json:"realized_pnl_usd"`
	TotalDepositUsd  float64   `gorm:"column:total_deposit_usd;type:decimal(24,8);not null;default:0" json:"total_deposit_usd"`
	TotalWithdrawUsd float64   `gorm:"column:total_withdraw_usd;type:decimal(24,8);not null;default:0" json:"total_withdraw_usd"`
	LastEventBlock   *int64    `gorm:"column:last_event_block" json:"last_event_block"`
	UpdatedAt        time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (WalletPosition) TableName() string {
	return "wallet_pnl_positions"
}

// WalletDailyPnl is one day of realized PnL for a wallet on a chain.
// Table name: wallet_pnl_daily
//
// CumulativeRealizedPnlUsd is the prefix sum over the wallet's entire history
// in day order, so it is only valid when the whole series is rebuilt together.
type WalletDailyPnl struct {
	ID                       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	WalletAddress            string    `gorm:"column:wallet_address;type:varchar(64);not null;index:idx_pnl_daily_wallet_chain,priority:1" json:"wallet_address"`
	ChainID                  int64     `gorm:"column:chain_id;not null;index:idx_pnl_daily_wallet_chain,priority:2" json:"chain_id"`
	Day                      string    `gorm:"column:day;type:varchar(10);not null" json:"day"`
	RealizedPnlUsd           float64   `gorm:"column:realized_pnl_usd;type:decimal(24,8);not null;default:0" json:"realized_pnl_usd"`
	CumulativeRealizedPnlUsd float64   `gorm:"column:cumulative_realized_pnl_usd;type:decimal(24,8);not null;default:0" json:"cumulative_realized_pnl_usd"`
	EventCount               int       `gorm:"column:event_count;not null;default:0" json:"event_count"`
	UpdatedAt                time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (WalletDailyPnl) TableName() string {
	return "wallet_pnl_daily"
}
