package service

import (
	"context"
	"fmt"
	"time"

	"gatepass/internal/clock"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/logger"
	"gatepass/internal/models"
)

// WaitingListService is the admission controller: it decides whether a new
// entrant receives an immediate timed offer or queues as waiting, expires
// unconverted offers, and advances the queue when capacity frees up.
type WaitingListService struct {
	tx            Tx
	events        EventStore
	tickets       TicketStore
	waiting       WaitingListStore
	scheduler     OfferScheduler
	publisher     Publisher
	clock         clock.Clock
	offerDuration time.Duration
}

func NewWaitingListService(tx Tx, events EventStore, tickets TicketStore, waiting WaitingListStore,
	scheduler OfferScheduler, publisher Publisher, clk clock.Clock, offerDuration time.Duration) *WaitingListService {
	return &WaitingListService{
		tx:            tx,
		events:        events,
		tickets:       tickets,
		waiting:       waiting,
		scheduler:     scheduler,
		publisher:     publisher,
		clock:         clk,
		offerDuration: offerDuration,
	}
}

// Join is idempotent per (user, event): a live entry is returned unchanged.
// The availability check and the insert run in one transaction under the
// event row lock, so two joins racing for the last slot cannot both be
// granted an offer.
func (s *WaitingListService) Join(ctx context.Context, eventID, userID string) (*models.JoinResponse, error) {
	var (
		resp      *models.JoinResponse
		granted   *models.WaitingListEntry
		joined    *models.WaitingListEntry
		reclaimed []models.WaitingListEntry
	)

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.events.GetForUpdate(txCtx, eventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}

		// checked under the event lock: a concurrent join that committed
		// first is visible here, so the loser gets the idempotent response
		// instead of tripping the unique index
		existing, err := s.waiting.GetActiveEntry(txCtx, eventID, userID)
		if err != nil {
			return fmt.Errorf("failed to look up existing entry: %w", err)
		}
		if existing != nil {
			message := "You are already in the waiting list"
			if existing.Status == models.WaitingListOffered {
				message = "You already have an active ticket offer"
			}
			resp = &models.JoinResponse{Success: true, Status: existing.Status, Message: message}
			return nil
		}

		now := s.clock.Now()

		reclaimed, err = s.waiting.ReclaimExpired(txCtx, eventID, now)
		if err != nil {
			return fmt.Errorf("failed to reclaim expired offers: %w", err)
		}

		purchased, err := s.tickets.CountPurchased(txCtx, eventID)
		if err != nil {
			return fmt.Errorf("failed to count purchased tickets: %w", err)
		}
		offers, err := s.waiting.CountActiveOffers(txCtx, eventID, now)
		if err != nil {
			return fmt.Errorf("failed to count active offers: %w", err)
		}

		entry := &models.WaitingListEntry{EventID: eventID, UserID: userID}

		if event.TotalTickets-purchased-offers > 0 {
			expiresAt := now.Add(s.offerDuration)
			entry.Status = models.WaitingListOffered
			entry.OfferExpiresAt = &expiresAt
			if err := s.waiting.Create(txCtx, entry); err != nil {
				return fmt.Errorf("failed to create offer entry: %w", err)
			}
			granted = entry
			resp = &models.JoinResponse{
				Success: true,
				Status:  models.WaitingListOffered,
				Message: fmt.Sprintf("Ticket offered - you have %d minutes to purchase", int(s.offerDuration.Minutes())),
			}
			return nil
		}

		entry.Status = models.WaitingListWaiting
		if err := s.waiting.Create(txCtx, entry); err != nil {
			return fmt.Errorf("failed to create waiting entry: %w", err)
		}
		joined = entry
		resp = &models.JoinResponse{
			Success: true,
			Status:  models.WaitingListWaiting,
			Message: "Added to waiting list - you'll be notified when a ticket becomes available",
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishExpired(ctx, reclaimed)

	if granted != nil {
		if err := s.scheduler.ScheduleOfferExpiry(ctx, granted.ID, granted.EventID, s.offerDuration); err != nil {
			// The periodic reaper will still reclaim the offer
			logger.WithContext(ctx).Error("Failed to schedule offer expiry",
				"error", err,
				"entry_id", granted.ID,
				"event_id", granted.EventID)
		}
		s.publish(ctx, models.EventOfferGranted, models.OfferGrantedEvent{
			EntryID:   granted.ID,
			EventID:   granted.EventID,
			UserID:    granted.UserID,
			ExpiresAt: *granted.OfferExpiresAt,
			Timestamp: s.clock.Now(),
		})
	}

	if joined != nil {
		s.publish(ctx, models.EventWaitingListJoined, models.WaitingListJoinedEvent{
			EntryID:   joined.ID,
			EventID:   joined.EventID,
			UserID:    joined.UserID,
			Timestamp: s.clock.Now(),
		})
	}

	return resp, nil
}

// ExpireOffer is the deferred one-shot callback scheduled at offer creation.
// It flips the entry to expired only if it is still offered and past its
// window; any other state makes it a no-op, so redelivery is safe. It does
// not promote the next waiting entrant: promotion happens on the next
// purchase-driven queue advance.
func (s *WaitingListService) ExpireOffer(ctx context.Context, entryID string) error {
	entry, err := s.waiting.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}
	if entry == nil || entry.Status != models.WaitingListOffered {
		return nil
	}

	expired, err := s.waiting.ExpireOffer(ctx, entryID, s.clock.Now())
	if err != nil {
		return fmt.Errorf("failed to expire offer: %w", err)
	}
	if !expired {
		return nil
	}

	logger.WithContext(ctx).Info("Offer expired",
		"entry_id", entry.ID,
		"event_id", entry.EventID,
		"user_id", entry.UserID)

	s.publish(ctx, models.EventOfferExpired, models.OfferExpiredEvent{
		EntryID:   entry.ID,
		EventID:   entry.EventID,
		UserID:    entry.UserID,
		Timestamp: s.clock.Now(),
	})

	return nil
}

// ProcessQueue promotes waiting entrants (oldest first) into fresh timed
// offers while capacity remains. Called after a finalization converts
// entries and frees capacity accounting.
func (s *WaitingListService) ProcessQueue(ctx context.Context, eventID string) (int, error) {
	var (
		promoted  []*models.WaitingListEntry
		reclaimed []models.WaitingListEntry
	)

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.events.GetForUpdate(txCtx, eventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}

		now := s.clock.Now()

		reclaimed, err = s.waiting.ReclaimExpired(txCtx, eventID, now)
		if err != nil {
			return fmt.Errorf("failed to reclaim expired offers: %w", err)
		}

		purchased, err := s.tickets.CountPurchased(txCtx, eventID)
		if err != nil {
			return fmt.Errorf("failed to count purchased tickets: %w", err)
		}
		offers, err := s.waiting.CountActiveOffers(txCtx, eventID, now)
		if err != nil {
			return fmt.Errorf("failed to count active offers: %w", err)
		}

		remaining := event.TotalTickets - purchased - offers
		for remaining > 0 {
			next, err := s.waiting.NextWaiting(txCtx, eventID)
			if err != nil {
				return fmt.Errorf("failed to find next waiting entry: %w", err)
			}
			if next == nil {
				break
			}

			expiresAt := now.Add(s.offerDuration)
			ok, err := s.waiting.Offer(txCtx, next.ID, expiresAt)
			if err != nil {
				return fmt.Errorf("failed to promote entry %s: %w", next.ID, err)
			}
			if !ok {
				break
			}

			next.Status = models.WaitingListOffered
			next.OfferExpiresAt = &expiresAt
			promoted = append(promoted, next)
			remaining--
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	s.publishExpired(ctx, reclaimed)

	for _, entry := range promoted {
		if err := s.scheduler.ScheduleOfferExpiry(ctx, entry.ID, entry.EventID, s.offerDuration); err != nil {
			logger.WithContext(ctx).Error("Failed to schedule offer expiry",
				"error", err,
				"entry_id", entry.ID,
				"event_id", entry.EventID)
		}
		s.publish(ctx, models.EventOfferGranted, models.OfferGrantedEvent{
			EntryID:   entry.ID,
			EventID:   entry.EventID,
			UserID:    entry.UserID,
			ExpiresAt: *entry.OfferExpiresAt,
			Timestamp: s.clock.Now(),
		})
	}

	return len(promoted), nil
}

func (s *WaitingListService) publishExpired(ctx context.Context, entries []models.WaitingListEntry) {
	for _, entry := range entries {
		s.publish(ctx, models.EventOfferExpired, models.OfferExpiredEvent{
			EntryID:   entry.ID,
			EventID:   entry.EventID,
			UserID:    entry.UserID,
			Timestamp: s.clock.Now(),
		})
	}
}

func (s *WaitingListService) publish(ctx context.Context, subject string, data any) {
	if err := s.publisher.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"subject", subject)
	}
}
