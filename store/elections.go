// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/qr-ballot/models"
)

const electionColumns = `id, title, description, banner_url, starts_at, ends_at, active, allow_view_results, created_at`

func scanElection(row scanner) (*models.Election, error) {
	var e models.Election
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.BannerURL, &e.StartsAt, &e.EndsAt,
		&e.Active, &e.AllowViewResults, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// CreateElection inserts a new election. ID and CreatedAt must be set.
func (s *Store) CreateElection(ctx context.Context, e *models.Election) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO election (id, title, description, banner_url, starts_at, ends_at, active, allow_view_results, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.Title, e.Description, e.BannerURL, utcPtr(e.StartsAt), utcPtr(e.EndsAt),
		e.Active, e.AllowViewResults, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert election: %w", err)
	}
	return nil
}

func (s *Store) GetElection(ctx context.Context, id string) (*models.Election, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+electionColumns+` FROM election WHERE id = $1`, id)
	e, err := scanElection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query election: %w", err)
	}
	return e, nil
}

// ListElections returns all elections, newest first
func (s *Store) ListElections(ctx context.Context) ([]models.Election, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+electionColumns+` FROM election ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query elections: %w", err)
	}
	defer rows.Close()

	elections := []models.Election{}
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		elections = append(elections, *e)
	}
	return elections, rows.Err()
}

// UpdateElection rewrites the descriptive fields and the results flag
func (s *Store) UpdateElection(ctx context.Context, e *models.Election) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE election
		SET title = $1, description = $2, banner_url = $3, allow_view_results = $4
		WHERE id = $5
	`, e.Title, e.Description, e.BannerURL, e.AllowViewResults, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update election: %w", err)
	}
	return expectOneRow(res)
}

func (s *Store) SetElectionActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE election SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update election status: %w", err)
	}
	return expectOneRow(res)
}

func (s *Store) SetElectionSchedule(ctx context.Context, id string, startsAt, endsAt *time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE election SET starts_at = $1, ends_at = $2 WHERE id = $3
	`, utcPtr(startsAt), utcPtr(endsAt), id)
	if err != nil {
		return fmt.Errorf("failed to update election schedule: %w", err)
	}
	return expectOneRow(res)
}

// DeleteElection removes an election and everything it owns. Children are
// deleted explicitly so the cascade holds even without foreign key enforcement.
func (s *Store) DeleteElection(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"vote", "voting_session", "candidate", "category"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE election_id = $1`, id); err != nil {
				return fmt.Errorf("failed to delete from %s: %w", table, err)
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM election WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete election: %w", err)
		}
		return expectOneRow(res)
	})
}
