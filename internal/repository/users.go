package repository

import (
	"context"
	"database/sql"

	"gatepass/internal/database"
	"gatepass/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert mirrors the identity-provider profile into the local users table
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (user_id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = NOW()`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query, user.UserID, user.Email, user.Name)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT user_id, email, name, created_at, updated_at
		FROM users
		WHERE user_id = $1`

	err := r.db.Querier(ctx).QueryRowContext(ctx, query, userID).Scan(
		&user.UserID,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return user, err
}

// HasRole checks the role table; seller permissions are configured data, not
// a compiled-in list of user ids
func (r *UserRepository) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`

	err := r.db.Querier(ctx).QueryRowContext(ctx, query, userID, role).Scan(&exists)
	return exists, err
}

// GrantRole adds a role to a user; granting twice is a no-op
func (r *UserRepository) GrantRole(ctx context.Context, userID, role string) error {
	query := `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query, userID, role)
	return err
}
