// services/event_store.go
package services

import (
	"fmt"

	"lending-pnl-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const eventBatchSize = 500

// EventStore is the sole writer of wallet_activity_events.
type EventStore struct {
	DB *gorm.DB
}

func NewEventStore(db *gorm.DB) *EventStore {
	return &EventStore{DB: db}
}

// UpsertEvents persists a batch of canonical events idempotently, keyed by
// (chain_id, tx_hash, log_index). A crashed run that re-observes the same
// range overwrites rows with identical values — safe at-least-once semantics.
// Any failure here must abort the run before the cursor advances.
func (s *EventStore) UpsertEvents(events []models.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}

	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chain_id"}, {Name: "tx_hash"}, {Name: "log_index"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"protocol",
			"wallet_address",
			"action",
			"asset_address",
			"asset_symbol",
			"amount_raw",
			"amount_token",
			"amount_usd",
			"block_number",
			"block_time",
			"updated_at",
		}),
	}).CreateInBatches(&events, eventBatchSize).Error
	if err != nil {
		return fmt.Errorf("failed to upsert %d activity events: %w", len(events), err)
	}
	return nil
}
