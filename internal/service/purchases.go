package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"gatepass/internal/clock"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/logger"
	"gatepass/internal/models"
)

// GatewayOrder is the handle returned by the payment gateway for a created
// order
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
}

// PaymentGateway creates orders with the external payment provider. Notes are
// opaque metadata echoed back on the capture webhook.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, notes map[string]string) (*GatewayOrder, error)
}

// QueueAdvancer promotes waiting entrants after capacity accounting changes
type QueueAdvancer interface {
	ProcessQueue(ctx context.Context, eventID string) (int, error)
}

// FinalizeParams carries the verified capture details from the gateway webhook
type FinalizeParams struct {
	EventID         string
	UserID          string
	PaymentIntentID string
	Amount          int64 // total captured, minor units
	Quantity        int
	PassID          *string
}

// PurchaseService converts a captured payment into issued tickets and creates
// gateway orders for offer holders.
type PurchaseService struct {
	tx        Tx
	events    EventStore
	tickets   TicketStore
	waiting   WaitingListStore
	passes    PassStore
	gateway   PaymentGateway
	queue     QueueAdvancer
	publisher Publisher
	clock     clock.Clock
}

func NewPurchaseService(tx Tx, events EventStore, tickets TicketStore, waiting WaitingListStore,
	passes PassStore, gateway PaymentGateway, queue QueueAdvancer, publisher Publisher, clk clock.Clock) *PurchaseService {
	return &PurchaseService{
		tx:        tx,
		events:    events,
		tickets:   tickets,
		waiting:   waiting,
		passes:    passes,
		gateway:   gateway,
		queue:     queue,
		publisher: publisher,
		clock:     clk,
	}
}

// CreateOrder opens a gateway order for a user holding a live offer. The
// metadata carried in the order notes is what the capture webhook hands back
// to Finalize.
func (s *PurchaseService) CreateOrder(ctx context.Context, userID string, req *models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}
	if event.IsCancelled {
		return nil, apperrors.ErrEventCancelled
	}

	entry, err := s.waiting.GetActiveEntry(ctx, req.EventID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up waiting list entry: %w", err)
	}
	now := s.clock.Now()
	if entry == nil || entry.Status != models.WaitingListOffered ||
		entry.OfferExpiresAt == nil || !entry.OfferExpiresAt.After(now) {
		return nil, apperrors.ErrNoActiveOffer
	}

	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}

	amount := event.Price * int64(qty)
	if req.PassID != nil {
		pass, err := s.passes.GetByID(ctx, *req.PassID)
		if err != nil {
			return nil, fmt.Errorf("failed to get pass: %w", err)
		}
		if pass == nil || pass.EventID != req.EventID {
			return nil, apperrors.ErrPassNotFound
		}
		if pass.SoldQuantity+qty > pass.TotalQuantity {
			return nil, apperrors.ErrPassSoldOut
		}
		amount = pass.Price * int64(qty)
	}

	notes := map[string]string{
		"event_id": req.EventID,
		"user_id":  userID,
		"quantity": strconv.Itoa(qty),
	}
	if req.PassID != nil {
		notes["pass_id"] = *req.PassID
	}

	order, err := s.gateway.CreateOrder(ctx, amount, notes)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	return &models.CreateOrderResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
	}, nil
}

// Finalize issues tickets for a captured payment. It is idempotent on the
// payment intent id: redelivered webhooks get the previously issued tickets
// back. A pass whose bounded increment fails aborts the transaction so the
// gateway retries delivery later.
func (s *PurchaseService) Finalize(ctx context.Context, params FinalizeParams) ([]models.Ticket, error) {
	existing, err := s.tickets.GetByPaymentIntent(ctx, params.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check payment intent: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	var (
		issued    []models.Ticket
		converted int
	)

	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		// Re-check under the event lock so two concurrent deliveries of the
		// same webhook cannot both issue
		event, err := s.events.GetForUpdate(txCtx, params.EventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}

		prior, err := s.tickets.GetByPaymentIntent(txCtx, params.PaymentIntentID)
		if err != nil {
			return fmt.Errorf("failed to re-check payment intent: %w", err)
		}
		if len(prior) > 0 {
			issued = prior
			return nil
		}

		converted, err = s.waiting.MarkPurchased(txCtx, params.EventID, params.UserID)
		if err != nil {
			return fmt.Errorf("failed to convert waiting list entry: %w", err)
		}

		qty := params.Quantity
		if qty < 1 {
			qty = 1
		}

		perUnit := event.Price
		if params.PassID != nil {
			perUnit = int64(math.Round(float64(params.Amount) / float64(qty)))
			ok, err := s.passes.IncrementSold(txCtx, *params.PassID, qty)
			if err != nil {
				return fmt.Errorf("failed to increment pass sales: %w", err)
			}
			if !ok {
				return apperrors.ErrPassSoldOut
			}
		}

		base := s.clock.Now()
		for i := 0; i < qty; i++ {
			ticket := models.Ticket{
				EventID:         params.EventID,
				UserID:          params.UserID,
				PassID:          params.PassID,
				Status:          models.TicketValid,
				PaymentIntentID: params.PaymentIntentID,
				Amount:          perUnit,
				// strictly increasing purchase timestamps keep sibling
				// tickets ordered
				PurchasedAt: base.Add(time.Duration(i) * time.Millisecond),
			}
			if err := s.tickets.Create(txCtx, &ticket); err != nil {
				return fmt.Errorf("failed to create ticket: %w", err)
			}
			issued = append(issued, ticket)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(models.EventPaymentCaptured, models.PaymentCapturedEvent{
		PaymentIntentID: params.PaymentIntentID,
		EventID:         params.EventID,
		UserID:          params.UserID,
		Amount:          params.Amount,
		Timestamp:       s.clock.Now(),
	}); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"subject", models.EventPaymentCaptured)
	}

	ids := make([]string, len(issued))
	for i, t := range issued {
		ids[i] = t.ID
	}
	if err := s.publisher.Publish(models.EventTicketsIssued, models.TicketsIssuedEvent{
		EventID:         params.EventID,
		UserID:          params.UserID,
		PaymentIntentID: params.PaymentIntentID,
		TicketIDs:       ids,
		Timestamp:       s.clock.Now(),
	}); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"subject", models.EventTicketsIssued)
	}

	if converted > 0 {
		if _, err := s.queue.ProcessQueue(ctx, params.EventID); err != nil {
			logger.WithContext(ctx).Error("Failed to advance waiting list after purchase",
				"error", err,
				"event_id", params.EventID)
		}
	}

	return issued, nil
}
