package service

import (
	"context"
	"time"

	"gatepass/internal/models"
)

// Store interfaces are implemented by the repository package; services depend
// on them so the allocation logic can be exercised against in-memory fakes.

type Tx interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	GetForUpdate(ctx context.Context, id string) (*models.Event, error)
	ListActive(ctx context.Context) ([]models.Event, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Cancel(ctx context.Context, id string) error
	SetImage(ctx context.Context, id string, storageID *string) error
}

type WaitingListStore interface {
	Create(ctx context.Context, entry *models.WaitingListEntry) error
	GetByID(ctx context.Context, id string) (*models.WaitingListEntry, error)
	GetActiveEntry(ctx context.Context, eventID, userID string) (*models.WaitingListEntry, error)
	CountActiveOffers(ctx context.Context, eventID string, now time.Time) (int, error)
	ReclaimExpired(ctx context.Context, eventID string, now time.Time) ([]models.WaitingListEntry, error)
	ExpireOffer(ctx context.Context, entryID string, now time.Time) (bool, error)
	NextWaiting(ctx context.Context, eventID string) (*models.WaitingListEntry, error)
	Offer(ctx context.Context, entryID string, expiresAt time.Time) (bool, error)
	MarkPurchased(ctx context.Context, eventID, userID string) (int, error)
}

type TicketStore interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) ([]models.Ticket, error)
	CountPurchased(ctx context.Context, eventID string) (int, error)
	GetUserTicketsForEvent(ctx context.Context, eventID, userID string) ([]models.Ticket, error)
	MarkUsed(ctx context.Context, id string, scannedAt time.Time) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.UserTicket, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.EventTicket, error)
}

type PassStore interface {
	Create(ctx context.Context, pass *models.Pass) error
	GetByID(ctx context.Context, id string) (*models.Pass, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.Pass, error)
	Update(ctx context.Context, pass *models.Pass) error
	Delete(ctx context.Context, id string) error
	IncrementSold(ctx context.Context, id string, qty int) (bool, error)
}

type RoleStore interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
}

// Publisher emits domain events; failures are logged, never surfaced to the
// caller
type Publisher interface {
	Publish(subject string, data any) error
}

// OfferScheduler requests a one-shot deferred callback that expires a single
// offer at or after the given duration
type OfferScheduler interface {
	ScheduleOfferExpiry(ctx context.Context, entryID, eventID string, after time.Duration) error
}

// EventIndexer mirrors event documents into the search index
type EventIndexer interface {
	IndexEvent(ctx context.Context, event *models.Event) error
	SearchEvents(ctx context.Context, query string) ([]string, error)
}
