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

const candidateColumns = `id, election_id, name, description, photo_url, order_index`

func scanCandidate(row scanner) (*models.Candidate, error) {
	var c models.Candidate
	if err := row.Scan(&c.ID, &c.ElectionID, &c.Name, &c.Description, &c.PhotoURL, &c.OrderIndex); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCandidate inserts a candidate, assigning an ID when none is set
func (s *Store) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO candidate (id, election_id, name, description, photo_url, order_index)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.ElectionID, c.Name, c.Description, c.PhotoURL, c.OrderIndex)
	if err != nil {
		return fmt.Errorf("failed to insert candidate: %w", err)
	}
	return nil
}

func (s *Store) GetCandidate(ctx context.Context, electionID, id string) (*models.Candidate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+candidateColumns+` FROM candidate WHERE id = $1 AND election_id = $2
	`, id, electionID)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate: %w", err)
	}
	return c, nil
}

// ListCandidates returns an election's candidates by order_index
func (s *Store) ListCandidates(ctx context.Context, electionID string) ([]models.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+candidateColumns+` FROM candidate
		WHERE election_id = $1
		ORDER BY order_index, name, id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, *c)
	}
	return candidates, rows.Err()
}

func (s *Store) UpdateCandidate(ctx context.Context, c *models.Candidate) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE candidate
		SET name = $1, description = $2, photo_url = $3, order_index = $4
		WHERE id = $5 AND election_id = $6
	`, c.Name, c.Description, c.PhotoURL, c.OrderIndex, c.ID, c.ElectionID)
	if err != nil {
		return fmt.Errorf("failed to update candidate: %w", err)
	}
	return expectOneRow(res)
}

// DeleteCandidate removes a candidate and every vote for it
func (s *Store) DeleteCandidate(ctx context.Context, electionID, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vote WHERE candidate_id = $1 AND election_id = $2`, id, electionID); err != nil {
			return fmt.Errorf("failed to delete candidate votes: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM candidate WHERE id = $1 AND election_id = $2`, id, electionID)
		if err != nil {
			return fmt.Errorf("failed to delete candidate: %w", err)
		}
		return expectOneRow(res)
	})
}
