// services/ledger.go
package services

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"lending-pnl-system/models"

	"gorm.io/gorm"
)

// LedgerService is the sole writer of wallet_pnl_positions and
// wallet_pnl_daily. It never patches rows incrementally: a rebuild replays the
// wallet's entire ordered event history and replaces both tables for that
// wallet in one transaction, so they always reflect a single clean replay.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// RebuildWallet recomputes all positions and the full daily series for one
// (wallet, chain) from scratch.
func (s *LedgerService) RebuildWallet(walletAddress string, chainID int64) error {
	var events []models.ActivityEvent
	err := s.DB.
		Where("wallet_address = ? AND chain_id = ?", walletAddress, chainID).
		Order("block_number ASC, log_index ASC").
		Find(&events).Error
	if err != nil {
		return fmt.Errorf("failed to fetch wallet events for %s: %w", walletAddress, err)
	}

	positions, daily := ComputeWalletLedger(walletAddress, chainID, events)

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("wallet_address = ? AND chain_id = ?", walletAddress, chainID).
			Delete(&models.WalletPosition{}).Error; err != nil {
			return fmt.Errorf("failed to clear wallet_pnl_positions for %s: %w", walletAddress, err)
		}
		if len(positions) > 0 {
			if err := tx.CreateInBatches(&positions, eventBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert wallet_pnl_positions for %s: %w", walletAddress, err)
			}
		}

		if err := tx.Where("wallet_address = ? AND chain_id = ?", walletAddress, chainID).
			Delete(&models.WalletDailyPnl{}).Error; err != nil {
			return fmt.Errorf("failed to clear wallet_pnl_daily for %s: %w", walletAddress, err)
		}
		if len(daily) > 0 {
			if err := tx.CreateInBatches(&daily, eventBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert wallet_pnl_daily for %s: %w", walletAddress, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("[wallet] rebuilt realized pnl: %s (positions: %d, days: %d)", walletAddress, len(positions), len(daily))
	return nil
}

type dailyBucket struct {
	realizedUsd float64
	eventCount  int
}

// ComputeWalletLedger replays an ordered event history into position rows and
// the daily realized-PnL series. Events must arrive ascending by block number
// then log index — the replay is order-sensitive.
//
// Per (protocol, asset) ledger: deposits grow principal, withdrawals shrink it
// (clamped at zero) and bank any excess over principal as realized profit.
// Borrow and repay events are recorded for the timeline but do not touch the
// principal model — whether borrowed funds should offset principal is a known
// unresolved limitation, and no debt netting is invented here. A NULL USD
// amount contributes $0 rather than failing the replay.
func ComputeWalletLedger(walletAddress string, chainID int64, events []models.ActivityEvent) ([]models.WalletPosition, []models.WalletDailyPnl) {
	now := time.Now().UTC()
	positionLedger := make(map[string]*models.WalletPosition)
	positionOrder := make([]string, 0)
	dailyLedger := make(map[string]*dailyBucket)

	for _, event := range events {
		key := event.Protocol + ":" + event.AssetAddress
		position, ok := positionLedger[key]
		if !ok {
			position = &models.WalletPosition{
				WalletAddress: walletAddress,
				ChainID:       chainID,
				Protocol:      event.Protocol,
				AssetAddress:  event.AssetAddress,
				AssetSymbol:   NormalizeSymbol(event.AssetSymbol),
				UpdatedAt:     now,
			}
			positionLedger[key] = position
			positionOrder = append(positionOrder, key)
		}

		amountUsd := 0.0
		if event.AmountUsd != nil && *event.AmountUsd > 0 {
			amountUsd = *event.AmountUsd
		}

		realizedDelta := 0.0
		switch event.Action {
		case models.ActionDeposit:
			position.PrincipalUsd += amountUsd
			position.TotalDepositUsd += amountUsd
		case models.ActionWithdraw:
			position.TotalWithdrawUsd += amountUsd
			realizedDelta = math.Max(0, amountUsd-position.PrincipalUsd)
			position.RealizedPnlUsd += realizedDelta
			position.PrincipalUsd = math.Max(0, position.PrincipalUsd-amountUsd)
		}

		blockNumber := event.BlockNumber
		position.LastEventBlock = &blockNumber

		day := event.BlockTime.UTC().Format("2006-01-02")
		bucket, ok := dailyLedger[day]
		if !ok {
			bucket = &dailyBucket{}
			dailyLedger[day] = bucket
		}
		bucket.realizedUsd += realizedDelta
		bucket.eventCount++
	}

	positions := make([]models.WalletPosition, 0, len(positionOrder))
	for _, key := range positionOrder {
		position := positionLedger[key]
		if position.TotalDepositUsd == 0 && position.TotalWithdrawUsd == 0 &&
			position.RealizedPnlUsd == 0 && position.PrincipalUsd == 0 {
			continue
		}
		position.PrincipalUsd = roundUsd(position.PrincipalUsd)
		position.RealizedPnlUsd = roundUsd(position.RealizedPnlUsd)
		position.TotalDepositUsd = roundUsd(position.TotalDepositUsd)
		position.TotalWithdrawUsd = roundUsd(position.TotalWithdrawUsd)
		positions = append(positions, *position)
	}

	days := make([]string, 0, len(dailyLedger))
	for day := range dailyLedger {
		days = append(days, day)
	}
	sort.Strings(days)

	// Cumulative value is the prefix sum across the wallet's entire history in
	// day order, which is why the series is always rebuilt in full.
	daily := make([]models.WalletDailyPnl, 0, len(days))
	cumulative := 0.0
	for _, day := range days {
		bucket := dailyLedger[day]
		realized := roundUsd(bucket.realizedUsd)
		cumulative += realized
		daily = append(daily, models.WalletDailyPnl{
			WalletAddress:            walletAddress,
			ChainID:                  chainID,
			Day:                      day,
			RealizedPnlUsd:           realized,
			CumulativeRealizedPnlUsd: roundUsd(cumulative),
			EventCount:               bucket.eventCount,
			UpdatedAt:                now,
		})
	}

	return positions, daily
}

func roundUsd(value float64) float64 {
	return math.Round(value*1e8) / 1e8
}
