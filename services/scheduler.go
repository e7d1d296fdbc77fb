// services/scheduler.go
package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartIndexScheduler fires an indexing pass every interval. The run guard
// inside IndexerService makes an overlapping tick a no-op, so a slow pass is
// skipped over rather than queued behind.
func StartIndexScheduler(ctx context.Context, indexer *IndexerService, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := indexer.Run(ctx); err != nil {
				if errors.Is(err, ErrRunInProgress) {
					log.Println("[Scheduler] previous indexing run still in progress, skipping tick")
					return
				}
				log.Printf("❌ [Scheduler] indexing run failed: %v", err)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
