package storage

import (
	"context"
	"database/sql"
	"fmt"

	"budgetd/internal/core"
)

// CreateUser inserts a user with its API key. Keys are provisioned out of
// band; there is no token issuance in this system.
func (r *Repository) CreateUser(ctx context.Context, u *core.User, apiKey string) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, api_key) VALUES (?, ?, ?)`,
		u.Username, u.Email, apiKey)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	return nil
}

func (r *Repository) UserByAPIKey(ctx context.Context, apiKey string) (*core.User, error) {
	u := &core.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email FROM users WHERE api_key = ?`, apiKey).
		Scan(&u.ID, &u.Username, &u.Email)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user by api key: %w", err)
	}
	return u, nil
}

func (r *Repository) UserByID(ctx context.Context, id int64) (*core.User, error) {
	u := &core.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Email)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}
