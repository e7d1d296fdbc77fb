// handlers/pnl_routes.go
package handlers

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"lending-pnl-system/middleware"
	"lending-pnl-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// SetupPnlRoutes wires the read-only PnL API consumed by the dashboard and the
// alerting bot. Everything here reads the tables the indexer owns; nothing
// writes.
func SetupPnlRoutes(app *fiber.App, db *gorm.DB, apiToken string, defaultChainID int64) {
	group := app.Group("/pnl", middleware.ServiceTokenMiddleware(apiToken))

	// Daily realized-PnL series plus the current positions and a summary —
	// mirrors what the portfolio history chart renders.
	group.Get("/history", func(c *fiber.Ctx) error {
		wallet := strings.ToLower(strings.TrimSpace(c.Query("wallet")))
		if !addressPattern.MatchString(wallet) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid wallet parameter"})
		}
		chainID := parseInt64(c.Query("chainId"), defaultChainID)
		days := clampInt(c.Query("days"), 30, 1, 365)

		cutoffDay := time.Now().UTC().AddDate(0, 0, -days+1).Format("2006-01-02")

		var dailyRows []models.WalletDailyPnl
		if err := db.Where("wallet_address = ? AND chain_id = ? AND day >= ?", wallet, chainID, cutoffDay).
			Order("day ASC").
			Find(&dailyRows).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch daily pnl", "cause": err.Error()})
		}

		var positionRows []models.WalletPosition
		if err := db.Where("wallet_address = ? AND chain_id = ?", wallet, chainID).
			Order("realized_pnl_usd DESC").
			Find(&positionRows).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch positions", "cause": err.Error()})
		}

		points := make([]fiber.Map, 0, len(dailyRows))
		for _, row := range dailyRows {
			points = append(points, fiber.Map{
				"day":                   row.Day,
				"realizedDailyUsd":      row.RealizedPnlUsd,
				"cumulativeRealizedUsd": row.CumulativeRealizedPnlUsd,
				"eventCount":            row.EventCount,
			})
		}

		var totalRealized, activePrincipal, totalDeposited, totalWithdrawn float64
		for _, row := range positionRows {
			totalRealized += row.RealizedPnlUsd
			activePrincipal += row.PrincipalUsd
			totalDeposited += row.TotalDepositUsd
			totalWithdrawn += row.TotalWithdrawUsd
		}
		summary := fiber.Map{
			"totalRealizedUsd":   totalRealized,
			"activePrincipalUsd": activePrincipal,
			"totalDepositedUsd":  totalDeposited,
			"totalWithdrawnUsd":  totalWithdrawn,
			"trackedAssets":      len(positionRows),
		}

		// Project positions to the fields the chart consumes; the surrogate
		// row id and the echoed wallet/chain stay internal.
		positions := make([]fiber.Map, 0, len(positionRows))
		for _, row := range positionRows {
			positions = append(positions, fiber.Map{
				"protocol":           row.Protocol,
				"asset_address":      row.AssetAddress,
				"asset_symbol":       row.AssetSymbol,
				"principal_usd":      row.PrincipalUsd,
				"realized_pnl_usd":   row.RealizedPnlUsd,
				"total_deposit_usd":  row.TotalDepositUsd,
				"total_withdraw_usd": row.TotalWithdrawUsd,
			})
		}

		return c.JSON(fiber.Map{
			"wallet":    wallet,
			"chainId":   chainID,
			"days":      days,
			"points":    points,
			"positions": positions,
			"summary":   summary,
			"indexed":   len(points) > 0 || len(positionRows) > 0,
		})
	})

	// Recent canonical events, newest first — the activity timeline.
	group.Get("/activity", func(c *fiber.Ctx) error {
		wallet := strings.ToLower(strings.TrimSpace(c.Query("wallet")))
		if !addressPattern.MatchString(wallet) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid wallet parameter"})
		}
		chainID := parseInt64(c.Query("chainId"), defaultChainID)
		limit := clampInt(c.Query("limit"), 50, 1, 200)

		var events []models.ActivityEvent
		if err := db.Where("wallet_address = ? AND chain_id = ?", wallet, chainID).
			Order("block_number DESC, log_index DESC").
			Limit(limit).
			Find(&events).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch activity", "cause": err.Error()})
		}

		return c.JSON(fiber.Map{
			"wallet":  wallet,
			"chainId": chainID,
			"events":  events,
		})
	})
}

func parseInt64(raw string, fallback int64) int64 {
	parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func clampInt(raw string, fallback, min, max int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	if parsed < min {
		return min
	}
	if parsed > max {
		return max
	}
	return parsed
}
