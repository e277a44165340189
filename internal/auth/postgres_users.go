package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id::text, email, display_name, COALESCE(password_hash, ''), COALESCE(google_id, ''), provider, created_at`

// PostgresUsers stores accounts in the users table.
type PostgresUsers struct {
	pool *pgxpool.Pool
}

func NewPostgresUsers(pool *pgxpool.Pool) *PostgresUsers {
	return &PostgresUsers{pool: pool}
}

func (r *PostgresUsers) Create(ctx context.Context, u User) (User, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, google_id, provider, created_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)`,
		u.ID, u.Email, u.DisplayName, u.PasswordHash, u.GoogleID, u.Provider, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *PostgresUsers) FindByID(ctx context.Context, id string) (User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id::text = $1`, id)
}

func (r *PostgresUsers) FindByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresUsers) FindByGoogleID(ctx context.Context, googleID string) (User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID)
}

func (r *PostgresUsers) LinkGoogle(ctx context.Context, id, googleID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET google_id = $2 WHERE id::text = $1`, id, googleID)
	if err != nil {
		return fmt.Errorf("link google account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresUsers) findOne(ctx context.Context, query string, arg string) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.GoogleID, &u.Provider, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}
