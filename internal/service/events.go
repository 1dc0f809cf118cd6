package service

import (
	"context"
	"fmt"

	"gatepass/internal/clock"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/logger"
	"gatepass/internal/models"
)

// EventService manages the event catalog: creation is gated on the seller
// role, edits and cancellation on ownership.
type EventService struct {
	events    EventStore
	roles     RoleStore
	indexer   EventIndexer // nil when search is not configured
	publisher Publisher
	clock     clock.Clock
}

func NewEventService(events EventStore, roles RoleStore, indexer EventIndexer, publisher Publisher, clk clock.Clock) *EventService {
	return &EventService{
		events:    events,
		roles:     roles,
		indexer:   indexer,
		publisher: publisher,
		clock:     clk,
	}
}

// List returns active events. A non-empty query goes through the search
// index when one is configured, falling back to the plain listing otherwise.
func (s *EventService) List(ctx context.Context, query string) ([]models.Event, error) {
	if query != "" && s.indexer != nil {
		return s.search(ctx, query)
	}

	events, err := s.events.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *EventService) search(ctx context.Context, query string) ([]models.Event, error) {
	ids, err := s.indexer.SearchEvents(ctx, query)
	if err != nil {
		logger.WithContext(ctx).Error("Search failed, falling back to full listing", "error", err)
		return s.events.ListActive(ctx)
	}

	events := make([]models.Event, 0, len(ids))
	for _, id := range ids {
		event, err := s.events.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get event %s: %w", id, err)
		}
		if event == nil || event.IsCancelled {
			// index lag; skip stale hits
			continue
		}
		events = append(events, *event)
	}
	return events, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}
	return event, nil
}

func (s *EventService) ListByOwner(ctx context.Context, userID string) ([]models.Event, error) {
	events, err := s.events.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned events: %w", err)
	}
	return events, nil
}

func (s *EventService) Create(ctx context.Context, userID string, req *models.CreateEventRequest) (*models.Event, error) {
	isSeller, err := s.roles.HasRole(ctx, userID, models.RoleSeller)
	if err != nil {
		return nil, fmt.Errorf("failed to check seller role: %w", err)
	}
	if !isSeller {
		return nil, apperrors.ErrUnauthorized
	}

	event := &models.Event{
		Name:         req.Name,
		Description:  req.Description,
		Location:     req.Location,
		EventDate:    req.EventDate,
		Price:        req.Price,
		TotalTickets: req.TotalTickets,
		UserID:       userID,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.index(ctx, event)

	logger.WithContext(ctx).Info("Event created",
		"event_id", event.ID,
		"user_id", userID,
		"total_tickets", event.TotalTickets)

	return event, nil
}

func (s *EventService) Update(ctx context.Context, userID, id string, req *models.UpdateEventRequest) (*models.Event, error) {
	event, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if event.IsCancelled {
		return nil, apperrors.ErrEventCancelled
	}

	event.Name = req.Name
	event.Description = req.Description
	event.Location = req.Location
	event.EventDate = req.EventDate
	event.Price = req.Price
	event.TotalTickets = req.TotalTickets

	if err := s.events.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.index(ctx, event)

	return event, nil
}

// Cancel stops sales for an event. Refund handling for already-issued tickets
// is driven off the published cancellation event.
func (s *EventService) Cancel(ctx context.Context, userID, id string) error {
	event, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if event.IsCancelled {
		return nil
	}

	if err := s.events.Cancel(ctx, id); err != nil {
		return fmt.Errorf("failed to cancel event: %w", err)
	}

	if err := s.publisher.Publish(models.EventEventCancelled, models.EventCancelledEvent{
		EventID:   id,
		OwnerID:   userID,
		Timestamp: s.clock.Now(),
	}); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"subject", models.EventEventCancelled)
	}

	return nil
}

// SetImage attaches or clears the event's image storage id; owner only
func (s *EventService) SetImage(ctx context.Context, userID, id string, storageID *string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	if err := s.events.SetImage(ctx, id, storageID); err != nil {
		return fmt.Errorf("failed to set event image: %w", err)
	}
	return nil
}

func (s *EventService) owned(ctx context.Context, userID, id string) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}
	if event.UserID != userID {
		return nil, apperrors.ErrUnauthorized
	}
	return event, nil
}

func (s *EventService) index(ctx context.Context, event *models.Event) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexEvent(ctx, event); err != nil {
		logger.WithContext(ctx).Error("Failed to index event",
			"error", err,
			"event_id", event.ID)
	}
}
