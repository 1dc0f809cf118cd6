package repository

import (
	"context"
	"database/sql"

	"gatepass/internal/database"
	"gatepass/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, name, description, location, event_date, price, total_tickets,
	       user_id, is_cancelled, image_storage_id, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }, event *models.Event) error {
	return row.Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.Location,
		&event.EventDate,
		&event.Price,
		&event.TotalTickets,
		&event.UserID,
		&event.IsCancelled,
		&event.ImageStorageID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (name, description, location, event_date, price, total_tickets, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_cancelled, created_at, updated_at`

	return r.db.Querier(ctx).QueryRowContext(ctx, query,
		event.Name,
		event.Description,
		event.Location,
		event.EventDate,
		event.Price,
		event.TotalTickets,
		event.UserID,
	).Scan(&event.ID, &event.IsCancelled, &event.CreatedAt, &event.UpdatedAt)
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	event := &models.Event{}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	err := scanEvent(r.db.Querier(ctx).QueryRowContext(ctx, query, id), event)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return event, err
}

// GetForUpdate locks the event row for the duration of the enclosing
// transaction. Admission and queue advancement take this lock so that
// concurrent joins cannot both win the last slot.
func (r *EventRepository) GetForUpdate(ctx context.Context, id string) (*models.Event, error) {
	event := &models.Event{}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`

	err := scanEvent(r.db.Querier(ctx).QueryRowContext(ctx, query, id), event)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return event, err
}

// ListActive returns all events that have not been cancelled
func (r *EventRepository) ListActive(ctx context.Context) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE is_cancelled = FALSE ORDER BY event_date ASC`
	return r.list(ctx, query)
}

// ListByOwner returns every event created by the given user
func (r *EventRepository) ListByOwner(ctx context.Context, userID string) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE user_id = $1 ORDER BY event_date ASC`
	return r.list(ctx, query, userID)
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]models.Event, error) {
	rows, err := r.db.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET name = $1, description = $2, location = $3, event_date = $4,
		    price = $5, total_tickets = $6, updated_at = NOW()
		WHERE id = $7`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		event.Name,
		event.Description,
		event.Location,
		event.EventDate,
		event.Price,
		event.TotalTickets,
		event.ID,
	)
	return err
}

func (r *EventRepository) Cancel(ctx context.Context, id string) error {
	query := `UPDATE events SET is_cancelled = TRUE, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Querier(ctx).ExecContext(ctx, query, id)
	return err
}

func (r *EventRepository) SetImage(ctx context.Context, id string, storageID *string) error {
	query := `UPDATE events SET image_storage_id = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Querier(ctx).ExecContext(ctx, query, storageID, id)
	return err
}
