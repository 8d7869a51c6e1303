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

const sessionColumns = `id, election_id, qr_code, active, created_at, expires_at`

func scanSession(row scanner) (*models.VotingSession, error) {
	var vs models.VotingSession
	if err := row.Scan(&vs.ID, &vs.ElectionID, &vs.QRCode, &vs.Active, &vs.CreatedAt, &vs.ExpiresAt); err != nil {
		return nil, err
	}
	return &vs, nil
}

func insertSession(ctx context.Context, tx *sql.Tx, vs *models.VotingSession) error {
	if vs.ID == "" {
		vs.ID = uuid.NewString()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO voting_session (id, election_id, qr_code, active, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, vs.ID, vs.ElectionID, vs.QRCode, vs.Active, vs.CreatedAt.UTC(), utcPtr(vs.ExpiresAt))
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert voting session: %w", err)
	}
	return nil
}

// CreateSessions inserts a batch of sessions in one transaction. Existing
// active sessions are left untouched.
func (s *Store) CreateSessions(ctx context.Context, sessions []models.VotingSession) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range sessions {
			if err := insertSession(ctx, tx, &sessions[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceActiveSession deactivates every active session of the election and
// inserts vs as the only active one, atomically. Returns how many sessions
// were deactivated.
func (s *Store) ReplaceActiveSession(ctx context.Context, vs *models.VotingSession) (int64, error) {
	var deactivated int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE voting_session SET active = $1 WHERE election_id = $2 AND active = $3
		`, false, vs.ElectionID, true)
		if err != nil {
			return fmt.Errorf("failed to deactivate sessions: %w", err)
		}
		deactivated, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		return insertSession(ctx, tx, vs)
	})
	if err != nil {
		return 0, err
	}
	return deactivated, nil
}

func (s *Store) GetSessionByToken(ctx context.Context, qrCode string) (*models.VotingSession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM voting_session WHERE qr_code = $1`, qrCode)
	vs, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query voting session: %w", err)
	}
	return vs, nil
}

func (s *Store) GetSession(ctx context.Context, electionID, id string) (*models.VotingSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM voting_session WHERE id = $1 AND election_id = $2
	`, id, electionID)
	vs, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query voting session: %w", err)
	}
	return vs, nil
}

// ListSessions returns an election's sessions in issue order
func (s *Store) ListSessions(ctx context.Context, electionID string, activeOnly bool) ([]models.VotingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM voting_session WHERE election_id = $1`
	args := []any{electionID}
	if activeOnly {
		query += ` AND active = $2`
		args = append(args, true)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query voting sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.VotingSession{}
	for rows.Next() {
		vs, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voting session: %w", err)
		}
		sessions = append(sessions, *vs)
	}
	return sessions, rows.Err()
}

func (s *Store) CountSessions(ctx context.Context, electionID string, activeOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM voting_session WHERE election_id = $1`
	args := []any{electionID}
	if activeOnly {
		query += ` AND active = $2`
		args = append(args, true)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count voting sessions: %w", err)
	}
	return count, nil
}

func (s *Store) DeactivateSession(ctx context.Context, electionID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE voting_session SET active = $1 WHERE id = $2 AND election_id = $3
	`, false, id, electionID)
	if err != nil {
		return fmt.Errorf("failed to deactivate voting session: %w", err)
	}
	return expectOneRow(res)
}
