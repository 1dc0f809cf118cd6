package consumers

import (
	"context"
	"time"

	"gatepass/internal/clock"
	"gatepass/internal/logger"
	"gatepass/internal/models"
	"gatepass/internal/repository"
	"gatepass/internal/service"
)

// Reaper is the safety net behind the one-shot expiry tasks: it periodically
// sweeps every event for offers whose window closed without the deferred
// callback firing (queue loss, worker downtime).
type Reaper struct {
	waiting   *repository.WaitingListRepository
	publisher service.Publisher
	clock     clock.Clock
	interval  time.Duration
}

func NewReaper(waiting *repository.WaitingListRepository, publisher service.Publisher,
	clk clock.Clock, interval time.Duration) *Reaper {
	return &Reaper{
		waiting:   waiting,
		publisher: publisher,
		clock:     clk,
		interval:  interval,
	}
}

// Run sweeps until the context is cancelled
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	reclaimed, err := r.waiting.ReclaimAllExpired(ctx, r.clock.Now())
	if err != nil {
		logger.Get().Error("Reaper sweep failed", "error", err)
		return
	}
	if len(reclaimed) == 0 {
		return
	}

	logger.Get().Info("Reaper reclaimed stale offers", "count", len(reclaimed))

	for _, entry := range reclaimed {
		if err := r.publisher.Publish(models.EventOfferExpired, models.OfferExpiredEvent{
			EntryID:   entry.ID,
			EventID:   entry.EventID,
			UserID:    entry.UserID,
			Timestamp: r.clock.Now(),
		}); err != nil {
			logger.Get().Error("Failed to publish event",
				"error", err,
				"subject", models.EventOfferExpired)
		}
	}
}
