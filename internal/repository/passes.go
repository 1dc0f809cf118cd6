package repository

import (
	"context"
	"database/sql"

	"gatepass/internal/database"
	"gatepass/internal/models"

	"github.com/lib/pq"
)

type PassRepository struct {
	db *database.DB
}

func NewPassRepository(db *database.DB) *PassRepository {
	return &PassRepository{db: db}
}

const passColumns = `id, event_id, name, description, price, total_quantity, sold_quantity, benefits, created_at, updated_at`

func scanPass(row interface{ Scan(...any) error }, pass *models.Pass) error {
	return row.Scan(
		&pass.ID,
		&pass.EventID,
		&pass.Name,
		&pass.Description,
		&pass.Price,
		&pass.TotalQuantity,
		&pass.SoldQuantity,
		pq.Array(&pass.Benefits),
		&pass.CreatedAt,
		&pass.UpdatedAt,
	)
}

func (r *PassRepository) Create(ctx context.Context, pass *models.Pass) error {
	query := `
		INSERT INTO passes (event_id, name, description, price, total_quantity, benefits)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, sold_quantity, created_at, updated_at`

	return r.db.Querier(ctx).QueryRowContext(ctx, query,
		pass.EventID,
		pass.Name,
		pass.Description,
		pass.Price,
		pass.TotalQuantity,
		pq.Array(pass.Benefits),
	).Scan(&pass.ID, &pass.SoldQuantity, &pass.CreatedAt, &pass.UpdatedAt)
}

func (r *PassRepository) GetByID(ctx context.Context, id string) (*models.Pass, error) {
	pass := &models.Pass{}
	query := `SELECT ` + passColumns + ` FROM passes WHERE id = $1`

	err := scanPass(r.db.Querier(ctx).QueryRowContext(ctx, query, id), pass)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return pass, err
}

func (r *PassRepository) ListByEvent(ctx context.Context, eventID string) ([]models.Pass, error) {
	query := `SELECT ` + passColumns + ` FROM passes WHERE event_id = $1 ORDER BY price ASC`

	rows, err := r.db.Querier(ctx).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passes []models.Pass
	for rows.Next() {
		var pass models.Pass
		if err := scanPass(rows, &pass); err != nil {
			return nil, err
		}
		passes = append(passes, pass)
	}

	return passes, rows.Err()
}

func (r *PassRepository) Update(ctx context.Context, pass *models.Pass) error {
	query := `
		UPDATE passes
		SET name = $1, description = $2, price = $3, total_quantity = $4,
		    benefits = $5, updated_at = NOW()
		WHERE id = $6`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		pass.Name,
		pass.Description,
		pass.Price,
		pass.TotalQuantity,
		pq.Array(pass.Benefits),
		pass.ID,
	)
	return err
}

func (r *PassRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM passes WHERE id = $1`
	_, err := r.db.Querier(ctx).ExecContext(ctx, query, id)
	return err
}

// IncrementSold bumps sold_quantity by qty only while the result stays within
// total_quantity. Returns false when the increment would oversell the pass.
func (r *PassRepository) IncrementSold(ctx context.Context, id string, qty int) (bool, error) {
	query := `
		UPDATE passes
		SET sold_quantity = sold_quantity + $1, updated_at = NOW()
		WHERE id = $2 AND sold_quantity + $1 <= total_quantity`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query, qty, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}
