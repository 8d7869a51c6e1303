// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/danielhkuo/qr-ballot/models"
)

const voteColumns = `id, election_id, category_id, candidate_id, voter_token, slot, created_at`

// InsertVote appends a vote. The vote table's unique constraints reject a
// second pick of the same candidate and a second vote in the same slot; both
// surface as ErrConflict so callers can re-read and classify.
func (s *Store) InsertVote(ctx context.Context, v *models.Vote) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vote (id, election_id, category_id, category_key, candidate_id, voter_token, slot, ip_hash, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, v.ID, v.ElectionID, v.CategoryID, v.CategoryKey(), v.CandidateID, v.VoterToken, v.Slot,
		v.IPHash, v.UserAgent, v.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

// ListVoterVotes returns the votes a voter token already cast in one category
// scope of an election, by slot
func (s *Store) ListVoterVotes(ctx context.Context, electionID, categoryKey, voterToken string) ([]models.Vote, error) {
	return s.queryVotes(ctx, `
		SELECT `+voteColumns+` FROM vote
		WHERE election_id = $1 AND category_key = $2 AND voter_token = $3
		ORDER BY slot
	`, electionID, categoryKey, voterToken)
}

// ListVotesByToken returns every vote a voter token cast in an election
func (s *Store) ListVotesByToken(ctx context.Context, electionID, voterToken string) ([]models.Vote, error) {
	return s.queryVotes(ctx, `
		SELECT `+voteColumns+` FROM vote
		WHERE election_id = $1 AND voter_token = $2
		ORDER BY created_at, id
	`, electionID, voterToken)
}

// ListVotes returns all votes of an election in cast order
func (s *Store) ListVotes(ctx context.Context, electionID string) ([]models.Vote, error) {
	return s.queryVotes(ctx, `
		SELECT `+voteColumns+` FROM vote
		WHERE election_id = $1
		ORDER BY created_at, id
	`, electionID)
}

func (s *Store) queryVotes(ctx context.Context, query string, args ...any) ([]models.Vote, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.ID, &v.ElectionID, &v.CategoryID, &v.CandidateID, &v.VoterToken, &v.Slot, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate votes: %w", err)
	}
	return votes, nil
}
