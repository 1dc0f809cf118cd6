package repository

import (
	"context"

	"gatepass/internal/database"
)

type Repositories struct {
	db          *database.DB
	Users       *UserRepository
	Events      *EventRepository
	Passes      *PassRepository
	Tickets     *TicketRepository
	WaitingList *WaitingListRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		db:          db,
		Users:       NewUserRepository(db),
		Events:      NewEventRepository(db),
		Passes:      NewPassRepository(db),
		Tickets:     NewTicketRepository(db),
		WaitingList: NewWaitingListRepository(db),
	}
}

// WithTx runs fn inside a single database transaction; repository calls made
// with the inner context join it.
func (r *Repositories) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithTx(ctx, fn)
}
