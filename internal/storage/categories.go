package storage

import (
	"context"
	"database/sql"
	"fmt"

	"budgetd/internal/core"
)

func (r *Repository) CreateCategory(ctx context.Context, c *core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, description) VALUES (?, ?)`,
		c.Name, c.Description)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("category id: %w", err)
	}
	return nil
}

func (r *Repository) CategoryByID(ctx context.Context, id int64) (*core.Category, error) {
	c := &core.Category{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Description)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select category: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) CreateCounterparty(ctx context.Context, c *core.Counterparty) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO counterparties (user_id, name, contact_info) VALUES (?, ?, ?)`,
		c.UserID, c.Name, c.ContactInfo)
	if err != nil {
		return fmt.Errorf("insert counterparty: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("counterparty id: %w", err)
	}
	return nil
}

func (r *Repository) CounterpartyByID(ctx context.Context, userID, id int64) (*core.Counterparty, error) {
	c := &core.Counterparty{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, contact_info FROM counterparties WHERE id = ? AND user_id = ?`,
		id, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.ContactInfo)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select counterparty: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCounterparties(ctx context.Context, userID int64) ([]core.Counterparty, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, contact_info FROM counterparties WHERE user_id = ? ORDER BY name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("select counterparties: %w", err)
	}
	defer rows.Close()

	var out []core.Counterparty
	for rows.Next() {
		var c core.Counterparty
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.ContactInfo); err != nil {
			return nil, fmt.Errorf("scan counterparty: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
