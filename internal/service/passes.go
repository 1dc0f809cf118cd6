package service

import (
	"context"
	"fmt"

	apperrors "gatepass/internal/errors"
	"gatepass/internal/models"
)

// PassService manages ticket tiers; all writes are gated on event ownership
type PassService struct {
	passes PassStore
	events EventStore
}

func NewPassService(passes PassStore, events EventStore) *PassService {
	return &PassService{passes: passes, events: events}
}

func (s *PassService) Create(ctx context.Context, userID string, req *models.CreatePassRequest) (*models.Pass, error) {
	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}
	if event.UserID != userID {
		return nil, apperrors.ErrUnauthorized
	}

	pass := &models.Pass{
		EventID:       req.EventID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		TotalQuantity: req.TotalQuantity,
		Benefits:      req.Benefits,
	}

	if err := s.passes.Create(ctx, pass); err != nil {
		return nil, fmt.Errorf("failed to create pass: %w", err)
	}
	return pass, nil
}

func (s *PassService) Get(ctx context.Context, id string) (*models.Pass, error) {
	pass, err := s.passes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pass: %w", err)
	}
	if pass == nil {
		return nil, apperrors.ErrPassNotFound
	}
	return pass, nil
}

func (s *PassService) ListByEvent(ctx context.Context, eventID string) ([]models.Pass, error) {
	passes, err := s.passes.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list passes: %w", err)
	}
	return passes, nil
}

func (s *PassService) Update(ctx context.Context, userID, id string, req *models.UpdatePassRequest) (*models.Pass, error) {
	pass, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	// shrinking below what has already sold would break the sold <= total
	// invariant
	if req.TotalQuantity < pass.SoldQuantity {
		return nil, fmt.Errorf("total quantity %d is below sold quantity %d", req.TotalQuantity, pass.SoldQuantity)
	}

	pass.Name = req.Name
	pass.Description = req.Description
	pass.Price = req.Price
	pass.TotalQuantity = req.TotalQuantity
	pass.Benefits = req.Benefits

	if err := s.passes.Update(ctx, pass); err != nil {
		return nil, fmt.Errorf("failed to update pass: %w", err)
	}
	return pass, nil
}

func (s *PassService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	if err := s.passes.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete pass: %w", err)
	}
	return nil
}

func (s *PassService) owned(ctx context.Context, userID, id string) (*models.Pass, error) {
	pass, err := s.passes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pass: %w", err)
	}
	if pass == nil {
		return nil, apperrors.ErrPassNotFound
	}

	event, err := s.events.GetByID(ctx, pass.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}
	if event.UserID != userID {
		return nil, apperrors.ErrUnauthorized
	}

	return pass, nil
}
