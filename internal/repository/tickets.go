package repository

import (
	"context"
	"database/sql"
	"time"

	"gatepass/internal/database"
	"gatepass/internal/models"
)

type TicketRepository struct {
	db *database.DB
}

func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `id, event_id, user_id, pass_id, status, payment_intent_id, amount, purchased_at, scanned_at`

func scanTicket(row interface{ Scan(...any) error }, ticket *models.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.UserID,
		&ticket.PassID,
		&ticket.Status,
		&ticket.PaymentIntentID,
		&ticket.Amount,
		&ticket.PurchasedAt,
		&ticket.ScannedAt,
	)
}

func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (event_id, user_id, pass_id, status, payment_intent_id, amount, purchased_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	return r.db.Querier(ctx).QueryRowContext(ctx, query,
		ticket.EventID,
		ticket.UserID,
		ticket.PassID,
		ticket.Status,
		ticket.PaymentIntentID,
		ticket.Amount,
		ticket.PurchasedAt,
	).Scan(&ticket.ID)
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	err := scanTicket(r.db.Querier(ctx).QueryRowContext(ctx, query, id), ticket)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ticket, err
}

// GetByPaymentIntent returns every ticket issued for a payment intent id;
// a non-empty result means the finalization already ran
func (r *TicketRepository) GetByPaymentIntent(ctx context.Context, paymentIntentID string) ([]models.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE payment_intent_id = $1
		ORDER BY purchased_at ASC`
	return r.list(ctx, query, paymentIntentID)
}

// CountPurchased counts tickets that consume capacity (valid or used)
func (r *TicketRepository) CountPurchased(ctx context.Context, eventID string) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM tickets
		WHERE event_id = $1 AND status IN ('valid', 'used')`

	err := r.db.Querier(ctx).QueryRowContext(ctx, query, eventID).Scan(&count)
	return count, err
}

// GetUserTicketsForEvent returns the holder's valid and used tickets for one event
func (r *TicketRepository) GetUserTicketsForEvent(ctx context.Context, eventID, userID string) ([]models.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE event_id = $1 AND user_id = $2 AND status IN ('valid', 'used')
		ORDER BY purchased_at ASC`
	return r.list(ctx, query, eventID, userID)
}

func (r *TicketRepository) list(ctx context.Context, query string, args ...any) ([]models.Ticket, error) {
	rows, err := r.db.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		var ticket models.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	return tickets, rows.Err()
}

// MarkUsed records a scan in one conditional update; it succeeds only while
// the ticket is still valid, so a ticket cannot be scanned twice
func (r *TicketRepository) MarkUsed(ctx context.Context, id string, scannedAt time.Time) (bool, error) {
	query := `
		UPDATE tickets
		SET status = 'used', scanned_at = $1
		WHERE id = $2 AND status = 'valid'`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query, scannedAt, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// RefundByEvent flips every still-valid ticket for the event to refunded and
// returns how many were refunded. Used tickets stay used.
func (r *TicketRepository) RefundByEvent(ctx context.Context, eventID string) (int, error) {
	query := `
		UPDATE tickets
		SET status = 'refunded'
		WHERE event_id = $1 AND status = 'valid'`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query, eventID)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

// ListByUser returns the user's valid and used tickets joined with event details
func (r *TicketRepository) ListByUser(ctx context.Context, userID string) ([]models.UserTicket, error) {
	query := `
		SELECT t.id, t.event_id, t.user_id, t.pass_id, t.status, t.payment_intent_id,
		       t.amount, t.purchased_at, t.scanned_at,
		       e.name, e.event_date, e.location
		FROM tickets t
		JOIN events e ON e.id = t.event_id
		WHERE t.user_id = $1 AND t.status IN ('valid', 'used')
		ORDER BY e.event_date DESC`

	rows, err := r.db.Querier(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []models.UserTicket
	for rows.Next() {
		var t models.UserTicket
		err := rows.Scan(
			&t.ID, &t.EventID, &t.UserID, &t.PassID, &t.Status, &t.PaymentIntentID,
			&t.Amount, &t.PurchasedAt, &t.ScannedAt,
			&t.EventName, &t.EventDate, &t.EventLocation,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

// ListByEvent returns every valid or used ticket for an event joined with the
// holder's profile, for the owner's scan roster
func (r *TicketRepository) ListByEvent(ctx context.Context, eventID string) ([]models.EventTicket, error) {
	query := `
		SELECT t.id, t.event_id, t.user_id, t.pass_id, t.status, t.payment_intent_id,
		       t.amount, t.purchased_at, t.scanned_at,
		       COALESCE(u.name, ''), COALESCE(u.email, '')
		FROM tickets t
		LEFT JOIN users u ON u.user_id = t.user_id
		WHERE t.event_id = $1 AND t.status IN ('valid', 'used')
		ORDER BY t.purchased_at ASC`

	rows, err := r.db.Querier(ctx).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []models.EventTicket
	for rows.Next() {
		var t models.EventTicket
		err := rows.Scan(
			&t.ID, &t.EventID, &t.UserID, &t.PassID, &t.Status, &t.PaymentIntentID,
			&t.Amount, &t.PurchasedAt, &t.ScannedAt,
			&t.HolderName, &t.HolderEmail,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}
