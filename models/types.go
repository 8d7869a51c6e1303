// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Turnout denominator modes
const (
	TurnoutActiveSessions = "active"
	TurnoutIssuedSessions = "issued"
)

// Request types

type CreateElectionRequest struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	BannerURL        string     `json:"banner_url"`
	StartsAt         *time.Time `json:"starts_at"`
	EndsAt           *time.Time `json:"ends_at"`
	AllowViewResults bool       `json:"allow_view_results"`
}

type UpdateElectionRequest struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	BannerURL        *string `json:"banner_url"`
	AllowViewResults *bool   `json:"allow_view_results"`
}

type SetElectionStatusRequest struct {
	Active *bool `json:"active"`
}

type ScheduleRequest struct {
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
	OrderIndex  int    `json:"order_index"`
	Active      *bool  `json:"active"`
}

type CandidateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PhotoURL    string `json:"photo_url"`
	OrderIndex  int    `json:"order_index"`
}

type IssueSessionsRequest struct {
	Count            int `json:"count"`
	ExpiresInMinutes int `json:"expires_in_minutes"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
	AdminKey   string `json:"admin_key"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

type IssuedSession struct {
	Session   VotingSession `json:"session"`
	VotingURL string        `json:"voting_url"`
}

type IssueSessionsResponse struct {
	Sessions []IssuedSession `json:"sessions"`
}

type DeactivateResponse struct {
	Deactivated int64 `json:"deactivated"`
}

// CategoryPicks reports a voter's prior picks within one category
type CategoryPicks struct {
	CategoryID   *string  `json:"category_id"`
	CandidateIDs []string `json:"candidate_ids"`
	Remaining    int      `json:"remaining"`
}

// Ballot is everything a voter needs after scanning a QR code
type Ballot struct {
	Session    VotingSession   `json:"session"`
	Election   Election        `json:"election"`
	Categories []Category      `json:"categories"`
	Candidates []Candidate     `json:"candidates"`
	Picks      []CategoryPicks `json:"picks"`
	VoteCap    int             `json:"vote_cap"`
}

type CastVoteResponse struct {
	Vote      Vote `json:"vote"`
	Remaining int  `json:"remaining"`
}

// Domain types

type Election struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	BannerURL        string     `json:"banner_url"`
	StartsAt         *time.Time `json:"starts_at,omitempty"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`
	Active           bool       `json:"active"`
	AllowViewResults bool       `json:"allow_view_results"`
	CreatedAt        time.Time  `json:"created_at"`
}

type Category struct {
	ID          string `json:"id"`
	ElectionID  string `json:"election_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
	OrderIndex  int    `json:"order_index"`
	Active      bool   `json:"active"`
}

type Candidate struct {
	ID          string `json:"id"`
	ElectionID  string `json:"election_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PhotoURL    string `json:"photo_url"`
	OrderIndex  int    `json:"order_index"`
}

type ElectionDetail struct {
	Election   Election    `json:"election"`
	Categories []Category  `json:"categories"`
	Candidates []Candidate `json:"candidates"`
}

type VotingSession struct {
	ID         string     `json:"id"`
	ElectionID string     `json:"election_id"`
	QRCode     string     `json:"qr_code"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type Vote struct {
	ID          string    `json:"id"`
	ElectionID  string    `json:"election_id"`
	CategoryID  *string   `json:"category_id"`
	CandidateID string    `json:"candidate_id"`
	VoterToken  string    `json:"-"` // Never expose in JSON
	Slot        int       `json:"-"`
	IPHash      *string   `json:"-"`
	UserAgent   *string   `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryKey returns the uniqueness key of the vote's category ("" when uncategorised)
func (v Vote) CategoryKey() string {
	return CategoryKey(v.CategoryID)
}

func CategoryKey(categoryID *string) string {
	if categoryID == nil {
		return ""
	}
	return *categoryID
}

// Result types

// CandidateResult is one candidate's standing within a scope. Both shares
// are percentages rounded to two decimals.
type CandidateResult struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	PhotoURL    string `json:"photo_url"`
	Votes       int    `json:"votes"`
	// Percentage is Votes over all votes cast in the scope. It sums to 100
	// across candidates.
	Percentage float64 `json:"percentage"`
	// BallotShare is Votes over the distinct voters in the scope, i.e. the
	// share of ballots that picked this candidate. With more than one pick
	// per voter it can exceed Percentage and does not sum to 100.
	BallotShare float64 `json:"ballot_share"`
	Rank        int     `json:"rank"` // 1-indexed ranking
}

type ScopeResult struct {
	CategoryID     *string           `json:"category_id"`
	Name           string            `json:"name"`
	TotalVoters    int               `json:"total_voters"`
	TotalVotes     int               `json:"total_votes"`
	TurnoutPercent int               `json:"turnout_percent"`
	Candidates     []CandidateResult `json:"candidates"`
}

// Key identifies the scope for category selection
func (s ScopeResult) Key() string {
	return CategoryKey(s.CategoryID)
}

type ElectionResults struct {
	ElectionID       string        `json:"election_id"`
	Title            string        `json:"title"`
	EndsAt           *time.Time    `json:"ends_at,omitempty"`
	EligibleSessions int           `json:"eligible_sessions"`
	Scopes           []ScopeResult `json:"categories"`
	SelectedCategory string        `json:"selected_category"`
	RemainingSeconds int64         `json:"remaining_seconds"`
	ComputedAt       time.Time     `json:"computed_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
