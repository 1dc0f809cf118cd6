package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/models"
)

func TestJoinGrantsOfferWhenCapacityRemains(t *testing.T) {
	f := newFixture()
	event := f.createEvent("seller-1", 5, 5000)
	ctx := context.Background()

	resp, err := f.waitingList.Join(ctx, event.ID, "alice")
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, models.WaitingListOffered, resp.Status)
	assert.Contains(t, resp.Message, "15 minutes")

	entry, err := f.waiting.GetActiveEntry(ctx, event.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.NotNil(t, entry.OfferExpiresAt)
	assert.Equal(t, f.clk.Now().Add(15*time.Minute), *entry.OfferExpiresAt)

	require.Len(t, f.scheduler.scheduled, 1)
	assert.Equal(t, entry.ID, f.scheduler.scheduled[0].entryID)
	assert.Equal(t, 15*time.Minute, f.scheduler.scheduled[0].after)

	assert.Equal(t, 1, f.publisher.count(models.EventOfferGranted))
}

func TestJoinIsIdempotent(t *testing.T) {
	f := newFixture()
	event := f.createEvent("seller-1", 5, 5000)
	ctx := context.Background()

	_, err := f.waitingList.Join(ctx, event.ID, "alice")
	require.NoError(t, err)

	resp, err := f.waitingList.Join(ctx, event.ID, "alice")
	require.NoError(t, err)

	assert.Equal(t, models.WaitingListOffered, resp.Status)
	assert.Contains(t, resp.Message, "already have an active ticket offer")

	// no second entry, no second expiry task
	assert.Len(t, f.db.entries, 1)
	assert.Len(t, f.scheduler.scheduled, 1)
}

// stands in for a concurrent join whose entry commits before this one takes
// the event lock
type raceJoinEvents struct {
	*fakeEvents
	onLock func()
}

func (e *raceJoinEvents) GetForUpdate(ctx context.Context, id string) (*models.Event, error) {
	if e.onLock != nil {
		e.onLock()
		e.onLock = nil
	}
	return e.fakeEvents.GetForUpdate(ctx, id)
}

func TestJoinReturnsEntryCommittedBeforeLock(t *testing.T) {
	f := newFixture()
	event := f.createEvent("seller-1", 5, 5000)
	ctx := context.Background()

	// the competing join wins the lock race and its offer is already
	// committed by the time this join acquires the event row
	events := &raceJoinEvents{fakeEvents: f.events}
	events.onLock = func() {
		expiresAt := f.clk.Now().Add(15 * time.Minute)
		_ = f.waiting.Create(ctx, &models.WaitingListEntry{
			EventID:        event.ID,
			UserID:         "alice",
			Status:         models.WaitingListOffered,
			OfferExpiresAt: &expiresAt,
		})
	}

	svc := NewWaitingListService(f.db, events, f.tickets, f.waiting,
		f.scheduler, f.publisher, f.clk, 15*time.Minute)

	// the loser gets the idempotent response, not a duplicate entry
	resp, err := svc.Join(ctx, event.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.WaitingListOffered, resp.Status)
	assert.Contains(t, resp.Message, "already have an active ticket offer")
	assert.Len(t, f.db.entries, 1)
	assert.Empty(t, f.scheduler.scheduled)
}

func TestJoinQueuesWhenSoldOut(t *testing.T) {
	f := newFixture()
	event := f.createEvent("seller-1", 1, 5000)
	ctx := context.Background()

	_, err := f.waitingList.Join(ctx, event.ID, "alice")
	require.NoError(t, err)

	resp, err := f.waitingList.Join(ctx, event.ID, "bob")
	require.NoError(t, err)

	assert.Equal(t, models.WaitingListWaiting, resp.Status)
	assert.Contains(t, resp.Message, "waiting list")
	assert.Equal(t, 1, f.publisher.count(models.EventWaitingListJoined))

	// waiting entries get no expiry task
	assert.Len(t, f.scheduler.scheduled, 1)
}

func TestJoinReclaimsStaleOffers(t *testing.T) {
	f := newFixture()
	event := f.createEvent("seller-1", 1, 5000)
	ctx := context.Background()

	_, err := f.waitingList.Join(ctx, event.ID, "alice")
	require.NoError(t, err)

	f.clk.Advance(16 * time.Minute)

	// alice's stale offer is reclaimed inside bob's join, freeing the slot
	resp, err := f.waitingList.Join(ctx, event.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.WaitingListOffered, resp.Status)

	alice, err := f.waiting.GetByID(ctx, f.db.entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.WaitingListExpired, alice.Status)

	assert.Equal(t, 1, f.publisher.count(models.EventOfferExpired))
}

func TestJoinUnknownEvent(t *testing.T) {
	f := newFixture()

	_, err := f.waitingList.Join(context.Background(), "missing", "alice")
	assert.Error(t, err)
}

func TestExpireOfferFlipsDueOffer(t *testing.T) {
	f := newFixture()
	event := f.createEvent("seller-1", 1, 5000)
	ctx := context.Background()

	_, err := f.waitingList.Join(ctx, event.ID, "alice")
	require.NoError(t, err)
	entryID := f.db.entries[0].ID

	f.clk.Advance(16 * time.Minute)

	require.NoError(t, f.waitingList.ExpireOffer(ctx, entryID))

	entry, err := f.waiting.GetByID(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, models.WaitingListExpired, entry.Status)
	assert.Equal(t, 1, f.publisher.count(models.EventOfferExpired))
}

func TestExpireOfferIsNoOpBeforeDeadline(t *testing.T) {
	f := newFixture()
	event := f.createEvent("seller-1", 1, 5000)
	ctx := context.Background()

	_, err := f.waitingList.Join(ctx, event.ID, "alice")
	require.NoError(t, err)
	entryID := f.db.entries[0].ID

	f.clk.Advance(5 * time.Minute)

	require.NoError(t, f.waitingList.ExpireOffer(ctx, entryID))

	entry, err := f.waiting.GetByID(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, models.WaitingListOffered, entry.Status)
	assert.Equal(t, 0, f.publisher.count(models.EventOfferExpired))
}

func TestExpireOfferIsNoOpAfterConversion(t *testing.T) {
	f := newFixture()
	event := f.createEvent("seller-1", 1, 5000)
	ctx := context.Background()

	_, err := f.waitingList.Join(ctx, event.ID, "alice")
	require.NoError(t, err)
	entryID := f.db.entries[0].ID

	_, err = f.waiting.MarkPurchased(ctx, event.ID, "alice")
	require.NoError(t, err)

	f.clk.Advance(16 * time.Minute)

	require.NoError(t, f.waitingList.ExpireOffer(ctx, entryID))

	entry, err := f.waiting.GetByID(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, models.WaitingListPurchased, entry.Status)
}

// An expired offer does not promote the next waiting entrant on its own;
// promotion only happens on an explicit queue advance.
func TestExpiryDoesNotAutoPromote(t *testing.T) {
	f := newFixture()
	event := f.createEvent("seller-1", 1, 5000)
	ctx := context.Background()

	_, err := f.waitingList.Join(ctx, event.ID, "alice")
	require.NoError(t, err)
	aliceID := f.db.entries[0].ID

	resp, err := f.waitingList.Join(ctx, event.ID, "bob")
	require.NoError(t, err)
	require.Equal(t, models.WaitingListWaiting, resp.Status)

	f.clk.Advance(16 * time.Minute)
	require.NoError(t, f.waitingList.ExpireOffer(ctx, aliceID))

	bob, err := f.waiting.GetActiveEntry(ctx, event.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.WaitingListWaiting, bob.Status)

	// the explicit advance promotes bob into a fresh offer
	promoted, err := f.waitingList.ProcessQueue(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)

	bob, err = f.waiting.GetActiveEntry(ctx, event.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.WaitingListOffered, bob.Status)
	require.NotNil(t, bob.OfferExpiresAt)
	assert.Equal(t, f.clk.Now().Add(15*time.Minute), *bob.OfferExpiresAt)

	// bob's promotion carries its own expiry task
	require.Len(t, f.scheduler.scheduled, 2)
	assert.Equal(t, bob.ID, f.scheduler.scheduled[1].entryID)
}

func TestProcessQueuePromotesOldestFirst(t *testing.T) {
	f := newFixture()
	event := f.createEvent("seller-1", 1, 5000)
	ctx := context.Background()

	_, err := f.waitingList.Join(ctx, event.ID, "alice")
	require.NoError(t, err)

	_, err = f.waitingList.Join(ctx, event.ID, "bob")
	require.NoError(t, err)
	_, err = f.waitingList.Join(ctx, event.ID, "carol")
	require.NoError(t, err)

	f.clk.Advance(16 * time.Minute)

	// one slot frees up: only bob, the oldest waiter, gets the offer
	promoted, err := f.waitingList.ProcessQueue(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)

	bob, err := f.waiting.GetActiveEntry(ctx, event.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.WaitingListOffered, bob.Status)

	carol, err := f.waiting.GetActiveEntry(ctx, event.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, models.WaitingListWaiting, carol.Status)
}
