package service

import (
	"context"
	"fmt"

	"gatepass/internal/clock"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/models"
)

// AvailabilityService derives remaining capacity for an event. It is a pure
// read: reclaiming stale offers is an explicit step owned by the admission
// path and the reaper, so this query never mutates state.
type AvailabilityService struct {
	events  EventStore
	tickets TicketStore
	waiting WaitingListStore
	clock   clock.Clock
}

func NewAvailabilityService(events EventStore, tickets TicketStore, waiting WaitingListStore, clk clock.Clock) *AvailabilityService {
	return &AvailabilityService{
		events:  events,
		tickets: tickets,
		waiting: waiting,
		clock:   clk,
	}
}

func (s *AvailabilityService) Get(ctx context.Context, eventID string) (*models.AvailabilityResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}

	now := s.clock.Now()

	purchased, err := s.tickets.CountPurchased(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count purchased tickets: %w", err)
	}

	offers, err := s.waiting.CountActiveOffers(ctx, eventID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count active offers: %w", err)
	}

	reserved := purchased + offers
	remaining := event.TotalTickets - reserved
	if remaining < 0 {
		remaining = 0
	}

	return &models.AvailabilityResponse{
		IsSoldOut:        reserved >= event.TotalTickets,
		TotalTickets:     event.TotalTickets,
		PurchasedCount:   purchased,
		ActiveOffers:     offers,
		RemainingTickets: remaining,
	}, nil
}
