package service

import (
	"time"

	"gatepass/internal/clock"
	"gatepass/internal/repository"
)

// Services bundles the business layer for injection into handlers and workers
type Services struct {
	Availability *AvailabilityService
	WaitingList  *WaitingListService
	Purchases    *PurchaseService
	Tickets      *TicketService
	Events       *EventService
	Passes       *PassService
}

// NewServices wires the business layer over the repositories. indexer may be
// nil when search is not configured.
func NewServices(repos *repository.Repositories, clk clock.Clock, publisher Publisher,
	scheduler OfferScheduler, indexer EventIndexer, gateway PaymentGateway, offerDuration time.Duration) *Services {

	waitingList := NewWaitingListService(repos, repos.Events, repos.Tickets, repos.WaitingList,
		scheduler, publisher, clk, offerDuration)

	return &Services{
		Availability: NewAvailabilityService(repos.Events, repos.Tickets, repos.WaitingList, clk),
		WaitingList:  waitingList,
		Purchases: NewPurchaseService(repos, repos.Events, repos.Tickets, repos.WaitingList,
			repos.Passes, gateway, waitingList, publisher, clk),
		Tickets: NewTicketService(repos, repos.Events, repos.Tickets, publisher, clk),
		Events:  NewEventService(repos.Events, repos.Users, indexer, publisher, clk),
		Passes:  NewPassService(repos.Passes, repos.Events),
	}
}
