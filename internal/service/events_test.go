package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "gatepass/internal/errors"
	"gatepass/internal/models"
)

func TestCreateEventRequiresSellerRole(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := &models.CreateEventRequest{
		Name:         "Concert",
		Location:     "Hall A",
		EventDate:    f.clk.Now().AddDate(0, 1, 0),
		Price:        5000,
		TotalTickets: 100,
	}

	_, err := f.eventSvc.Create(ctx, "alice", req)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	f.db.grantRole("alice", models.RoleSeller)

	event, err := f.eventSvc.Create(ctx, "alice", req)
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "alice", event.UserID)
}

func TestUpdateEventOwnerOnly(t *testing.T) {
	f := newFixture()
	event := f.createEvent("seller-1", 100, 5000)
	ctx := context.Background()

	req := &models.UpdateEventRequest{
		Name:         "Renamed",
		Location:     event.Location,
		EventDate:    event.EventDate,
		Price:        event.Price,
		TotalTickets: event.TotalTickets,
	}

	_, err := f.eventSvc.Update(ctx, "mallory", event.ID, req)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	updated, err := f.eventSvc.Update(ctx, "seller-1", event.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestCancelEventPublishesAndIsIdempotent(t *testing.T) {
	f := newFixture()
	event := f.createEvent("seller-1", 100, 5000)
	ctx := context.Background()

	require.NoError(t, f.eventSvc.Cancel(ctx, "seller-1", event.ID))
	assert.Equal(t, 1, f.publisher.count(models.EventEventCancelled))

	// cancelling again changes nothing and publishes nothing
	require.NoError(t, f.eventSvc.Cancel(ctx, "seller-1", event.ID))
	assert.Equal(t, 1, f.publisher.count(models.EventEventCancelled))

	got, err := f.eventSvc.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCancelled)
}

func TestUpdateCancelledEventFails(t *testing.T) {
	f := newFixture()
	event := f.createEvent("seller-1", 100, 5000)
	ctx := context.Background()

	require.NoError(t, f.eventSvc.Cancel(ctx, "seller-1", event.ID))

	_, err := f.eventSvc.Update(ctx, "seller-1", event.ID, &models.UpdateEventRequest{
		Name:         "Renamed",
		Location:     event.Location,
		EventDate:    event.EventDate,
		Price:        event.Price,
		TotalTickets: event.TotalTickets,
	})
	assert.ErrorIs(t, err, apperrors.ErrEventCancelled)
}

func TestListExcludesCancelled(t *testing.T) {
	f := newFixture()
	active := f.createEvent("seller-1", 100, 5000)
	cancelled := f.createEvent("seller-1", 100, 5000)
	ctx := context.Background()

	require.NoError(t, f.eventSvc.Cancel(ctx, "seller-1", cancelled.ID))

	events, err := f.eventSvc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, active.ID, events[0].ID)
}

func TestPassUpdateCannotShrinkBelowSold(t *testing.T) {
	f := newFixture()
	event := f.createEvent("seller-1", 100, 5000)
	ctx := context.Background()

	pass, err := f.passSvc.Create(ctx, "seller-1", &models.CreatePassRequest{
		EventID:       event.ID,
		Name:          "VIP",
		Price:         12000,
		TotalQuantity: 10,
	})
	require.NoError(t, err)

	ok, err := f.passes.IncrementSold(ctx, pass.ID, 5)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.passSvc.Update(ctx, "seller-1", pass.ID, &models.UpdatePassRequest{
		Name:          "VIP",
		Price:         12000,
		TotalQuantity: 3,
	})
	assert.Error(t, err)
}

func TestPassWritesOwnerOnly(t *testing.T) {
	f := newFixture()
	event := f.createEvent("seller-1", 100, 5000)
	ctx := context.Background()

	_, err := f.passSvc.Create(ctx, "mallory", &models.CreatePassRequest{
		EventID:       event.ID,
		Name:          "VIP",
		Price:         12000,
		TotalQuantity: 10,
	})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	pass, err := f.passSvc.Create(ctx, "seller-1", &models.CreatePassRequest{
		EventID:       event.ID,
		Name:          "VIP",
		Price:         12000,
		TotalQuantity: 10,
	})
	require.NoError(t, err)

	err = f.passSvc.Delete(ctx, "mallory", pass.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	require.NoError(t, f.passSvc.Delete(ctx, "seller-1", pass.ID))
}
