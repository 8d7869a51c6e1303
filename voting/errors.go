// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound   = errors.New("voting session not found")
	ErrSessionInactive   = errors.New("voting session is no longer active")
	ErrSessionExpired    = errors.New("voting session has expired")
	ErrElectionNotFound  = errors.New("election not found")
	ErrElectionInactive  = errors.New("election is not open for voting")
	ErrElectionEnded     = errors.New("election has ended")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryRequired  = errors.New("category is required for this election")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrResultsWithheld   = errors.New("results are not available for this election")

	// ErrDuplicateVote is returned for every rejected vote; the two
	// refinements below tell the voter which rule they hit
	ErrDuplicateVote          = errors.New("duplicate vote")
	ErrBallotUsed             = fmt.Errorf("%w: ballot already used", ErrDuplicateVote)
	ErrCandidateAlreadyChosen = fmt.Errorf("%w: already voted for this candidate", ErrDuplicateVote)
)
