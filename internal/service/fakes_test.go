package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gatepass/internal/models"
)

// In-memory fakes backing the store interfaces, so allocation logic can be
// exercised without Postgres.

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t.UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memDB struct {
	mu      sync.Mutex
	events  map[string]*models.Event
	entries []*models.WaitingListEntry
	tickets []*models.Ticket
	passes  map[string]*models.Pass
	roles   map[string]map[string]bool
	seq     int
}

func newMemDB() *memDB {
	return &memDB{
		events: make(map[string]*models.Event),
		passes: make(map[string]*models.Pass),
		roles:  make(map[string]map[string]bool),
	}
}

func (m *memDB) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// WithTx just runs fn; the fakes have no transactional semantics
func (m *memDB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memDB) grantRole(userID, role string) {
	if m.roles[userID] == nil {
		m.roles[userID] = make(map[string]bool)
	}
	m.roles[userID][role] = true
}

type fakeEvents struct{ db *memDB }

func (f *fakeEvents) Create(ctx context.Context, event *models.Event) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	event.ID = f.db.nextID("event")
	cp := *event
	f.db.events[event.ID] = &cp
	return nil
}

func (f *fakeEvents) GetByID(ctx context.Context, id string) (*models.Event, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	event, ok := f.db.events[id]
	if !ok {
		return nil, nil
	}
	cp := *event
	return &cp, nil
}

func (f *fakeEvents) GetForUpdate(ctx context.Context, id string) (*models.Event, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeEvents) ListActive(ctx context.Context) ([]models.Event, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var events []models.Event
	for _, e := range f.db.events {
		if !e.IsCancelled {
			events = append(events, *e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

func (f *fakeEvents) ListByOwner(ctx context.Context, userID string) ([]models.Event, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var events []models.Event
	for _, e := range f.db.events {
		if e.UserID == userID {
			events = append(events, *e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

func (f *fakeEvents) Update(ctx context.Context, event *models.Event) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	cp := *event
	f.db.events[event.ID] = &cp
	return nil
}

func (f *fakeEvents) Cancel(ctx context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if e, ok := f.db.events[id]; ok {
		e.IsCancelled = true
	}
	return nil
}

func (f *fakeEvents) SetImage(ctx context.Context, id string, storageID *string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if e, ok := f.db.events[id]; ok {
		e.ImageStorageID = storageID
	}
	return nil
}

type fakeWaiting struct {
	db  *memDB
	clk *testClock
}

func (f *fakeWaiting) Create(ctx context.Context, entry *models.WaitingListEntry) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	entry.ID = f.db.nextID("entry")
	entry.CreatedAt = f.clk.Now()
	cp := *entry
	f.db.entries = append(f.db.entries, &cp)
	return nil
}

func (f *fakeWaiting) GetByID(ctx context.Context, id string) (*models.WaitingListEntry, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, e := range f.db.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeWaiting) GetActiveEntry(ctx context.Context, eventID, userID string) (*models.WaitingListEntry, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, e := range f.db.entries {
		if e.EventID == eventID && e.UserID == userID &&
			(e.Status == models.WaitingListWaiting || e.Status == models.WaitingListOffered) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeWaiting) CountActiveOffers(ctx context.Context, eventID string, now time.Time) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	count := 0
	for _, e := range f.db.entries {
		if e.EventID == eventID && e.Status == models.WaitingListOffered &&
			e.OfferExpiresAt != nil && e.OfferExpiresAt.After(now) {
			count++
		}
	}
	return count, nil
}

func (f *fakeWaiting) ReclaimExpired(ctx context.Context, eventID string, now time.Time) ([]models.WaitingListEntry, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var reclaimed []models.WaitingListEntry
	for _, e := range f.db.entries {
		if e.EventID == eventID && e.Status == models.WaitingListOffered &&
			e.OfferExpiresAt != nil && !e.OfferExpiresAt.After(now) {
			e.Status = models.WaitingListExpired
			reclaimed = append(reclaimed, *e)
		}
	}
	return reclaimed, nil
}

func (f *fakeWaiting) ExpireOffer(ctx context.Context, entryID string, now time.Time) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, e := range f.db.entries {
		if e.ID == entryID && e.Status == models.WaitingListOffered &&
			e.OfferExpiresAt != nil && !e.OfferExpiresAt.After(now) {
			e.Status = models.WaitingListExpired
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWaiting) NextWaiting(ctx context.Context, eventID string) (*models.WaitingListEntry, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, e := range f.db.entries {
		if e.EventID == eventID && e.Status == models.WaitingListWaiting {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeWaiting) Offer(ctx context.Context, entryID string, expiresAt time.Time) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, e := range f.db.entries {
		if e.ID == entryID && e.Status == models.WaitingListWaiting {
			e.Status = models.WaitingListOffered
			exp := expiresAt
			e.OfferExpiresAt = &exp
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWaiting) MarkPurchased(ctx context.Context, eventID, userID string) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	converted := 0
	for _, e := range f.db.entries {
		if e.EventID == eventID && e.UserID == userID &&
			(e.Status == models.WaitingListWaiting || e.Status == models.WaitingListOffered) {
			e.Status = models.WaitingListPurchased
			converted++
		}
	}
	return converted, nil
}

type fakeTickets struct{ db *memDB }

func (f *fakeTickets) Create(ctx context.Context, ticket *models.Ticket) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	ticket.ID = f.db.nextID("ticket")
	cp := *ticket
	f.db.tickets = append(f.db.tickets, &cp)
	return nil
}

func (f *fakeTickets) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, t := range f.db.tickets {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTickets) GetByPaymentIntent(ctx context.Context, paymentIntentID string) ([]models.Ticket, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var tickets []models.Ticket
	for _, t := range f.db.tickets {
		if t.PaymentIntentID == paymentIntentID {
			tickets = append(tickets, *t)
		}
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].PurchasedAt.Before(tickets[j].PurchasedAt) })
	return tickets, nil
}

func (f *fakeTickets) CountPurchased(ctx context.Context, eventID string) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	count := 0
	for _, t := range f.db.tickets {
		if t.EventID == eventID && (t.Status == models.TicketValid || t.Status == models.TicketUsed) {
			count++
		}
	}
	return count, nil
}

func (f *fakeTickets) GetUserTicketsForEvent(ctx context.Context, eventID, userID string) ([]models.Ticket, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var tickets []models.Ticket
	for _, t := range f.db.tickets {
		if t.EventID == eventID && t.UserID == userID &&
			(t.Status == models.TicketValid || t.Status == models.TicketUsed) {
			tickets = append(tickets, *t)
		}
	}
	return tickets, nil
}

func (f *fakeTickets) MarkUsed(ctx context.Context, id string, scannedAt time.Time) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, t := range f.db.tickets {
		if t.ID == id && t.Status == models.TicketValid {
			t.Status = models.TicketUsed
			at := scannedAt
			t.ScannedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTickets) ListByUser(ctx context.Context, userID string) ([]models.UserTicket, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var tickets []models.UserTicket
	for _, t := range f.db.tickets {
		if t.UserID == userID && (t.Status == models.TicketValid || t.Status == models.TicketUsed) {
			ut := models.UserTicket{Ticket: *t}
			if e, ok := f.db.events[t.EventID]; ok {
				ut.EventName = e.Name
				ut.EventDate = e.EventDate
				ut.EventLocation = e.Location
			}
			tickets = append(tickets, ut)
		}
	}
	return tickets, nil
}

func (f *fakeTickets) ListByEvent(ctx context.Context, eventID string) ([]models.EventTicket, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var tickets []models.EventTicket
	for _, t := range f.db.tickets {
		if t.EventID == eventID && (t.Status == models.TicketValid || t.Status == models.TicketUsed) {
			tickets = append(tickets, models.EventTicket{Ticket: *t})
		}
	}
	return tickets, nil
}

type fakePasses struct{ db *memDB }

func (f *fakePasses) Create(ctx context.Context, pass *models.Pass) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	pass.ID = f.db.nextID("pass")
	cp := *pass
	f.db.passes[pass.ID] = &cp
	return nil
}

func (f *fakePasses) GetByID(ctx context.Context, id string) (*models.Pass, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	pass, ok := f.db.passes[id]
	if !ok {
		return nil, nil
	}
	cp := *pass
	return &cp, nil
}

func (f *fakePasses) ListByEvent(ctx context.Context, eventID string) ([]models.Pass, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var passes []models.Pass
	for _, p := range f.db.passes {
		if p.EventID == eventID {
			passes = append(passes, *p)
		}
	}
	sort.Slice(passes, func(i, j int) bool { return passes[i].ID < passes[j].ID })
	return passes, nil
}

func (f *fakePasses) Update(ctx context.Context, pass *models.Pass) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	cp := *pass
	f.db.passes[pass.ID] = &cp
	return nil
}

func (f *fakePasses) Delete(ctx context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	delete(f.db.passes, id)
	return nil
}

func (f *fakePasses) IncrementSold(ctx context.Context, id string, qty int) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	pass, ok := f.db.passes[id]
	if !ok {
		return false, nil
	}
	if pass.SoldQuantity+qty > pass.TotalQuantity {
		return false, nil
	}
	pass.SoldQuantity += qty
	return true, nil
}

type fakeRoles struct{ db *memDB }

func (f *fakeRoles) HasRole(ctx context.Context, userID, role string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.db.roles[userID][role], nil
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakePublisher) Publish(subject string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return nil
}

func (f *fakePublisher) count(subject string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

type scheduledExpiry struct {
	entryID string
	after   time.Duration
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []scheduledExpiry
}

func (f *fakeScheduler) ScheduleOfferExpiry(ctx context.Context, entryID, eventID string, after time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, scheduledExpiry{entryID: entryID, after: after})
	return nil
}

type fakeGateway struct {
	mu     sync.Mutex
	orders []map[string]string
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amount int64, notes map[string]string) (*GatewayOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, notes)
	return &GatewayOrder{
		ID:       fmt.Sprintf("order-%d", len(f.orders)),
		Amount:   amount,
		Currency: "INR",
	}, nil
}

// fixture bundles the fakes plus the services under test
type fixture struct {
	db        *memDB
	clk       *testClock
	events    *fakeEvents
	waiting   *fakeWaiting
	tickets   *fakeTickets
	passes    *fakePasses
	roles     *fakeRoles
	publisher *fakePublisher
	scheduler *fakeScheduler
	gateway   *fakeGateway

	availability *AvailabilityService
	waitingList  *WaitingListService
	purchases    *PurchaseService
	ticketSvc    *TicketService
	eventSvc     *EventService
	passSvc      *PassService
}

func newFixture() *fixture {
	db := newMemDB()
	clk := newTestClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	f := &fixture{
		db:        db,
		clk:       clk,
		events:    &fakeEvents{db: db},
		waiting:   &fakeWaiting{db: db, clk: clk},
		tickets:   &fakeTickets{db: db},
		passes:    &fakePasses{db: db},
		roles:     &fakeRoles{db: db},
		publisher: &fakePublisher{},
		scheduler: &fakeScheduler{},
		gateway:   &fakeGateway{},
	}

	f.availability = NewAvailabilityService(f.events, f.tickets, f.waiting, clk)
	f.waitingList = NewWaitingListService(db, f.events, f.tickets, f.waiting,
		f.scheduler, f.publisher, clk, 15*time.Minute)
	f.purchases = NewPurchaseService(db, f.events, f.tickets, f.waiting,
		f.passes, f.gateway, f.waitingList, f.publisher, clk)
	f.ticketSvc = NewTicketService(db, f.events, f.tickets, f.publisher, clk)
	f.eventSvc = NewEventService(f.events, f.roles, nil, f.publisher, clk)
	f.passSvc = NewPassService(f.passes, f.events)

	return f
}

func (f *fixture) createEvent(owner string, total int, price int64) *models.Event {
	event := &models.Event{
		Name:         "Test Event",
		Location:     "Hall A",
		EventDate:    f.clk.Now().Add(30 * 24 * time.Hour),
		Price:        price,
		TotalTickets: total,
		UserID:       owner,
	}
	_ = f.events.Create(context.Background(), event)
	return event
}
