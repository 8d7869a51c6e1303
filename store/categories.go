// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/danielhkuo/qr-ballot/models"
)

const categoryColumns = `id, election_id, name, description, icon_url, order_index, active`

func scanCategory(row scanner) (*models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.ElectionID, &c.Name, &c.Description, &c.IconURL, &c.OrderIndex, &c.Active); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCategory inserts a category, assigning an ID when none is set
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category (id, election_id, name, description, icon_url, order_index, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.ElectionID, c.Name, c.Description, c.IconURL, c.OrderIndex, c.Active)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (s *Store) GetCategory(ctx context.Context, electionID, id string) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM category WHERE id = $1 AND election_id = $2
	`, id, electionID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return c, nil
}

// ListCategories returns an election's categories by order_index
func (s *Store) ListCategories(ctx context.Context, electionID string) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+` FROM category
		WHERE election_id = $1
		ORDER BY order_index, name, id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE category
		SET name = $1, description = $2, icon_url = $3, order_index = $4, active = $5
		WHERE id = $6 AND election_id = $7
	`, c.Name, c.Description, c.IconURL, c.OrderIndex, c.Active, c.ID, c.ElectionID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return expectOneRow(res)
}

// DeleteCategory removes a category and the votes cast in it
func (s *Store) DeleteCategory(ctx context.Context, electionID, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vote WHERE category_id = $1 AND election_id = $2`, id, electionID); err != nil {
			return fmt.Errorf("failed to delete category votes: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM category WHERE id = $1 AND election_id = $2`, id, electionID)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return expectOneRow(res)
	})
}
