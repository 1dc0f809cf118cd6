package service

import (
	"context"
	"fmt"

	"gatepass/internal/clock"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/logger"
	"gatepass/internal/models"
)

// TicketService handles the scan ledger and ticket reads
type TicketService struct {
	tx        Tx
	events    EventStore
	tickets   TicketStore
	publisher Publisher
	clock     clock.Clock
}

func NewTicketService(tx Tx, events EventStore, tickets TicketStore, publisher Publisher, clk clock.Clock) *TicketService {
	return &TicketService{
		tx:        tx,
		events:    events,
		tickets:   tickets,
		publisher: publisher,
		clock:     clk,
	}
}

// Scan marks a ticket used and reports progress across every ticket the same
// holder has for the event. Only the event owner may scan. A ticket scans
// exactly once: the second attempt fails even under concurrent scans, because
// the flip is a conditional update on the valid status.
func (s *TicketService) Scan(ctx context.Context, ticketID, scannerID string) (*models.ScanResponse, error) {
	var (
		resp    *models.ScanResponse
		scanned *models.Ticket
	)

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		ticket, err := s.tickets.GetByID(txCtx, ticketID)
		if err != nil {
			return fmt.Errorf("failed to get ticket: %w", err)
		}
		if ticket == nil {
			return apperrors.ErrTicketNotFound
		}

		event, err := s.events.GetByID(txCtx, ticket.EventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}
		if event.UserID != scannerID {
			return apperrors.ErrUnauthorized
		}

		switch ticket.Status {
		case models.TicketUsed:
			return apperrors.ErrAlreadyScanned
		case models.TicketRefunded:
			return apperrors.ErrTicketRefunded
		}

		ok, err := s.tickets.MarkUsed(txCtx, ticketID, s.clock.Now())
		if err != nil {
			return fmt.Errorf("failed to mark ticket used: %w", err)
		}
		if !ok {
			return apperrors.ErrAlreadyScanned
		}

		siblings, err := s.tickets.GetUserTicketsForEvent(txCtx, ticket.EventID, ticket.UserID)
		if err != nil {
			return fmt.Errorf("failed to load holder tickets: %w", err)
		}

		scannedCount := 0
		for _, t := range siblings {
			if t.Status == models.TicketUsed {
				scannedCount++
			}
		}

		scanned = ticket
		resp = &models.ScanResponse{
			Success:        true,
			ScannedCount:   scannedCount,
			TotalCount:     len(siblings),
			RemainingCount: len(siblings) - scannedCount,
			AllScanned:     scannedCount == len(siblings),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(models.EventTicketScanned, models.TicketScannedEvent{
		TicketID:  scanned.ID,
		EventID:   scanned.EventID,
		ScannerID: scannerID,
		Timestamp: s.clock.Now(),
	}); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"subject", models.EventTicketScanned)
	}

	return resp, nil
}

// GetStatus returns the scan state of a ticket plus the holder's booking
// progress. Visible to the holder and the event owner.
func (s *TicketService) GetStatus(ctx context.Context, ticketID, requesterID string) (*models.TicketStatusResponse, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return nil, apperrors.ErrTicketNotFound
	}

	if ticket.UserID != requesterID {
		event, err := s.events.GetByID(ctx, ticket.EventID)
		if err != nil {
			return nil, fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil || event.UserID != requesterID {
			return nil, apperrors.ErrUnauthorized
		}
	}

	siblings, err := s.tickets.GetUserTicketsForEvent(ctx, ticket.EventID, ticket.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holder tickets: %w", err)
	}

	scannedCount := 0
	for _, t := range siblings {
		if t.Status == models.TicketUsed {
			scannedCount++
		}
	}

	return &models.TicketStatusResponse{
		Status:       ticket.Status,
		ScannedAt:    ticket.ScannedAt,
		IsScanned:    ticket.Status == models.TicketUsed,
		ScannedCount: scannedCount,
		TotalCount:   len(siblings),
	}, nil
}

// ListUserTickets returns the requester's tickets with event details, newest
// event first
func (s *TicketService) ListUserTickets(ctx context.Context, userID string) ([]models.UserTicket, error) {
	tickets, err := s.tickets.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user tickets: %w", err)
	}
	return tickets, nil
}

// ListEventTickets returns the scan roster for an event; owner only
func (s *TicketService) ListEventTickets(ctx context.Context, eventID, requesterID string) ([]models.EventTicket, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}
	if event.UserID != requesterID {
		return nil, apperrors.ErrUnauthorized
	}

	tickets, err := s.tickets.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event tickets: %w", err)
	}
	return tickets, nil
}
