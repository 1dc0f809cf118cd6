package consumers

import (
	"context"
	"encoding/json"

	"github.com/nats-io/stan.go"

	"gatepass/internal/logger"
	"gatepass/internal/metrics"
	"gatepass/internal/models"
	"gatepass/internal/repository"
)

type Handlers struct {
	repos *repository.Repositories
}

func NewHandlers(repos *repository.Repositories) *Handlers {
	return &Handlers{repos: repos}
}

// ack confirms a handled message; an unacked message is redelivered after the
// ack wait
func ack(m *stan.Msg) {
	if err := m.Ack(); err != nil {
		logger.Get().Error("Failed to ack message", "error", err, "subject", m.Subject)
	}
}

// HandleEventCancelled refunds every still-valid ticket for a cancelled event
func (h *Handlers) HandleEventCancelled(m *stan.Msg) {
	var event models.EventCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		logger.Get().Error("Failed to unmarshal event cancelled event", "error", err)
		return
	}

	ctx := context.Background()

	refunded, err := h.repos.Tickets.RefundByEvent(ctx, event.EventID)
	if err != nil {
		logger.Get().Error("Failed to refund tickets for cancelled event",
			"error", err,
			"event_id", event.EventID)
		// no ack: let the durable subscription redeliver
		return
	}

	logger.Get().Info("Refunded tickets for cancelled event",
		"event_id", event.EventID,
		"refunded", refunded)

	ack(m)
}

// HandleOfferGranted records the grant for observability
func (h *Handlers) HandleOfferGranted(m *stan.Msg) {
	var event models.OfferGrantedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		logger.Get().Error("Failed to unmarshal offer granted event", "error", err)
		return
	}

	metrics.OffersGranted.Inc()
	logger.Get().Info("Offer granted",
		"entry_id", event.EntryID,
		"event_id", event.EventID,
		"expires_at", event.ExpiresAt)

	ack(m)
}

// HandleOfferExpired records the reclaim for observability
func (h *Handlers) HandleOfferExpired(m *stan.Msg) {
	var event models.OfferExpiredEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		logger.Get().Error("Failed to unmarshal offer expired event", "error", err)
		return
	}

	metrics.OffersExpired.Inc()
	logger.Get().Info("Offer expired",
		"entry_id", event.EntryID,
		"event_id", event.EventID)

	ack(m)
}

// HandleTicketsIssued logs finalized purchases; notification fan-out would
// hang off this handler
func (h *Handlers) HandleTicketsIssued(m *stan.Msg) {
	var event models.TicketsIssuedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		logger.Get().Error("Failed to unmarshal tickets issued event", "error", err)
		return
	}

	logger.Get().Info("Tickets issued",
		"event_id", event.EventID,
		"user_id", event.UserID,
		"count", len(event.TicketIDs))

	ack(m)
}
