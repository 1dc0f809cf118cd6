package repository

import (
	"context"
	"database/sql"
	"time"

	"gatepass/internal/database"
	"gatepass/internal/models"
)

type WaitingListRepository struct {
	db *database.DB
}

func NewWaitingListRepository(db *database.DB) *WaitingListRepository {
	return &WaitingListRepository{db: db}
}

const entryColumns = `id, event_id, user_id, status, offer_expires_at, pass_id, created_at, updated_at`

func scanEntry(row interface{ Scan(...any) error }, entry *models.WaitingListEntry) error {
	return row.Scan(
		&entry.ID,
		&entry.EventID,
		&entry.UserID,
		&entry.Status,
		&entry.OfferExpiresAt,
		&entry.PassID,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
}

func (r *WaitingListRepository) Create(ctx context.Context, entry *models.WaitingListEntry) error {
	query := `
		INSERT INTO waiting_list (event_id, user_id, status, offer_expires_at, pass_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return r.db.Querier(ctx).QueryRowContext(ctx, query,
		entry.EventID,
		entry.UserID,
		entry.Status,
		entry.OfferExpiresAt,
		entry.PassID,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
}

func (r *WaitingListRepository) GetByID(ctx context.Context, id string) (*models.WaitingListEntry, error) {
	entry := &models.WaitingListEntry{}
	query := `SELECT ` + entryColumns + ` FROM waiting_list WHERE id = $1`

	err := scanEntry(r.db.Querier(ctx).QueryRowContext(ctx, query, id), entry)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return entry, err
}

// GetActiveEntry returns the user's waiting or offered entry for the event,
// if one exists. The partial unique index guarantees at most one.
func (r *WaitingListRepository) GetActiveEntry(ctx context.Context, eventID, userID string) (*models.WaitingListEntry, error) {
	entry := &models.WaitingListEntry{}
	query := `
		SELECT ` + entryColumns + `
		FROM waiting_list
		WHERE event_id = $1 AND user_id = $2 AND status IN ('waiting', 'offered')`

	err := scanEntry(r.db.Querier(ctx).QueryRowContext(ctx, query, eventID, userID), entry)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return entry, err
}

// CountActiveOffers counts offered entries whose window is still open
func (r *WaitingListRepository) CountActiveOffers(ctx context.Context, eventID string, now time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM waiting_list
		WHERE event_id = $1 AND status = 'offered' AND offer_expires_at > $2`

	err := r.db.Querier(ctx).QueryRowContext(ctx, query, eventID, now).Scan(&count)
	return count, err
}

// ReclaimExpired flips every stale offer for the event to expired and
// returns the reclaimed entries
func (r *WaitingListRepository) ReclaimExpired(ctx context.Context, eventID string, now time.Time) ([]models.WaitingListEntry, error) {
	query := `
		UPDATE waiting_list
		SET status = 'expired', updated_at = NOW()
		WHERE event_id = $1 AND status = 'offered' AND offer_expires_at <= $2
		RETURNING ` + entryColumns

	rows, err := r.db.Querier(ctx).QueryContext(ctx, query, eventID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.WaitingListEntry
	for rows.Next() {
		var entry models.WaitingListEntry
		if err := scanEntry(rows, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// ReclaimAllExpired flips stale offers across every event, for the periodic
// reaper sweep
func (r *WaitingListRepository) ReclaimAllExpired(ctx context.Context, now time.Time) ([]models.WaitingListEntry, error) {
	query := `
		UPDATE waiting_list
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'offered' AND offer_expires_at <= $1
		RETURNING ` + entryColumns

	rows, err := r.db.Querier(ctx).QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.WaitingListEntry
	for rows.Next() {
		var entry models.WaitingListEntry
		if err := scanEntry(rows, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// ExpireOffer transitions a single entry offered -> expired if its window has
// closed. Returns false when the entry is no longer offered or not yet due,
// which makes the deferred callback an idempotent no-op.
func (r *WaitingListRepository) ExpireOffer(ctx context.Context, entryID string, now time.Time) (bool, error) {
	query := `
		UPDATE waiting_list
		SET status = 'expired', updated_at = NOW()
		WHERE id = $1 AND status = 'offered' AND offer_expires_at <= $2`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query, entryID, now)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// NextWaiting returns the oldest waiting entry for the event; insertion order
// decides who is next in line
func (r *WaitingListRepository) NextWaiting(ctx context.Context, eventID string) (*models.WaitingListEntry, error) {
	entry := &models.WaitingListEntry{}
	query := `
		SELECT ` + entryColumns + `
		FROM waiting_list
		WHERE event_id = $1 AND status = 'waiting'
		ORDER BY created_at ASC
		LIMIT 1`

	err := scanEntry(r.db.Querier(ctx).QueryRowContext(ctx, query, eventID), entry)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return entry, err
}

// Offer promotes a waiting entry to offered with the given expiry. Returns
// false if the entry was no longer waiting.
func (r *WaitingListRepository) Offer(ctx context.Context, entryID string, expiresAt time.Time) (bool, error) {
	query := `
		UPDATE waiting_list
		SET status = 'offered', offer_expires_at = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'waiting'`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query, expiresAt, entryID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// MarkPurchased converts every live entry for (user, event) to purchased and
// returns how many were converted
func (r *WaitingListRepository) MarkPurchased(ctx context.Context, eventID, userID string) (int, error) {
	query := `
		UPDATE waiting_list
		SET status = 'purchased', updated_at = NOW()
		WHERE event_id = $1 AND user_id = $2 AND status IN ('waiting', 'offered')`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}
