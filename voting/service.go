// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/qr-ballot/auth"
	"github.com/danielhkuo/qr-ballot/cache"
	"github.com/danielhkuo/qr-ballot/models"
	"github.com/danielhkuo/qr-ballot/store"
	"github.com/danielhkuo/qr-ballot/tally"
)

// tokenAttempts bounds retries when a freshly minted session token collides
const tokenAttempts = 3

type Options struct {
	// VoteCap is the number of distinct candidates a voter token may pick
	// per category
	VoteCap int
	// BaseURL is prepended to /voter?qrcode=... in voting URLs
	BaseURL string
	// TurnoutBase selects the turnout denominator (active or issued sessions)
	TurnoutBase string
	// Cache is optional
	Cache cache.ResultsCache
	Now   func() time.Time
}

// Service implements the voter flow and session issuance on top of a Store
type Service struct {
	store *store.Store
	opts  Options

	// cacheMu orders result cache writes against invalidations; gens counts
	// invalidations per election
	cacheMu sync.Mutex
	gens    map[string]uint64
}

func New(st *store.Store, opts Options) *Service {
	if opts.VoteCap < 1 {
		opts.VoteCap = 1
	}
	if opts.TurnoutBase == "" {
		opts.TurnoutBase = models.TurnoutActiveSessions
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: st, opts: opts, gens: make(map[string]uint64)}
}

func (s *Service) VoteCap() int { return s.opts.VoteCap }

// Now is the service clock, used for expiry and voting window checks
func (s *Service) Now() time.Time { return s.opts.Now() }

// ResolveSession looks up the session for a scanned QR token and checks that
// it can still be used
func (s *Service) ResolveSession(ctx context.Context, token string) (*models.VotingSession, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrSessionNotFound
	}

	vs, err := s.store.GetSessionByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if !vs.Active {
		return nil, ErrSessionInactive
	}
	if vs.ExpiresAt != nil && !s.Now().Before(*vs.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	return vs, nil
}

// openElection loads an election and checks it is accepting votes
func (s *Service) openElection(ctx context.Context, electionID string) (*models.Election, error) {
	e, err := s.store.GetElection(ctx, electionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrElectionNotFound
	}
	if err != nil {
		return nil, err
	}

	now := s.Now()
	if !e.Active {
		return nil, ErrElectionInactive
	}
	if e.StartsAt != nil && now.Before(*e.StartsAt) {
		return nil, fmt.Errorf("%w: voting opens at %s", ErrElectionInactive, e.StartsAt.UTC().Format(time.RFC3339))
	}
	if e.EndsAt != nil && !now.Before(*e.EndsAt) {
		return nil, ErrElectionEnded
	}
	return e, nil
}

func activeCategories(categories []models.Category) []models.Category {
	active := make([]models.Category, 0, len(categories))
	for _, c := range categories {
		if c.Active {
			active = append(active, c)
		}
	}
	return active
}

// LoadBallot resolves a QR token into everything the voter page shows,
// including the picks this token already made
func (s *Service) LoadBallot(ctx context.Context, token string) (*models.Ballot, error) {
	vs, err := s.ResolveSession(ctx, token)
	if err != nil {
		return nil, err
	}

	e, err := s.openElection(ctx, vs.ElectionID)
	if err != nil {
		return nil, err
	}

	categories, err := s.store.ListCategories(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	categories = activeCategories(categories)

	candidates, err := s.store.ListCandidates(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	votes, err := s.store.ListVotesByToken(ctx, e.ID, vs.QRCode)
	if err != nil {
		return nil, err
	}

	picked := make(map[string][]string)
	for _, v := range votes {
		picked[v.CategoryKey()] = append(picked[v.CategoryKey()], v.CandidateID)
	}

	var scopes []*string
	if len(categories) == 0 {
		scopes = []*string{nil}
	}
	for i := range categories {
		scopes = append(scopes, &categories[i].ID)
	}

	picks := make([]models.CategoryPicks, 0, len(scopes))
	for _, id := range scopes {
		ids := picked[models.CategoryKey(id)]
		if ids == nil {
			ids = []string{}
		}
		picks = append(picks, models.CategoryPicks{
			CategoryID:   id,
			CandidateIDs: ids,
			Remaining:    max(s.opts.VoteCap-len(ids), 0),
		})
	}

	return &models.Ballot{
		Session:    *vs,
		Election:   *e,
		Categories: categories,
		Candidates: candidates,
		Picks:      picks,
		VoteCap:    s.opts.VoteCap,
	}, nil
}

// CastRequest is one pick made through a scanned QR token
type CastRequest struct {
	Token       string
	CategoryID  string
	CandidateID string
	IPHash      *string
	UserAgent   *string
}

// CastVote validates a pick and records it. The category is required when the
// election has at least one active category and ignored otherwise. Returns the
// recorded vote and how many picks the voter has left in that category.
func (s *Service) CastVote(ctx context.Context, req CastRequest) (*models.Vote, int, error) {
	vs, err := s.ResolveSession(ctx, req.Token)
	if err != nil {
		return nil, 0, err
	}

	e, err := s.openElection(ctx, vs.ElectionID)
	if err != nil {
		return nil, 0, err
	}

	if _, err := s.store.GetCandidate(ctx, e.ID, req.CandidateID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, 0, ErrCandidateNotFound
		}
		return nil, 0, err
	}

	categories, err := s.store.ListCategories(ctx, e.ID)
	if err != nil {
		return nil, 0, err
	}

	var categoryID *string
	if active := activeCategories(categories); len(active) > 0 {
		if req.CategoryID == "" {
			return nil, 0, ErrCategoryRequired
		}
		for _, c := range active {
			if c.ID == req.CategoryID {
				id := c.ID
				categoryID = &id
				break
			}
		}
		if categoryID == nil {
			return nil, 0, ErrCategoryNotFound
		}
	}

	v := &models.Vote{
		ElectionID:  e.ID,
		CategoryID:  categoryID,
		CandidateID: req.CandidateID,
		VoterToken:  vs.QRCode,
		IPHash:      req.IPHash,
		UserAgent:   req.UserAgent,
		CreatedAt:   s.Now(),
	}

	remaining, err := s.Admit(ctx, v)
	if err != nil {
		return nil, 0, err
	}

	s.InvalidateResults(ctx, e.ID)
	return v, remaining, nil
}

// nextSlot decides whether a voter with the given prior votes in a category
// may pick candidateID, and which free slot the pick occupies
func nextSlot(prior []models.Vote, candidateID string, voteCap int) (int, error) {
	if len(prior) >= voteCap {
		return 0, ErrBallotUsed
	}

	used := make(map[int]bool, len(prior))
	for _, p := range prior {
		if p.CandidateID == candidateID {
			return 0, ErrCandidateAlreadyChosen
		}
		used[p.Slot] = true
	}

	for slot := 0; slot < voteCap; slot++ {
		if !used[slot] {
			return slot, nil
		}
	}
	return 0, ErrBallotUsed
}

// Admit records v if its voter token has a free slot in v's category and has
// not picked v's candidate there yet. The vote table's unique constraints on
// (candidate) and (slot) make the insert itself the decision: a concurrent
// request that wins the race turns our insert into a conflict, after which
// the prior votes are re-read and the rules applied again. Each conflict
// means another vote landed, so the loop settles within VoteCap+1 rounds.
func (s *Service) Admit(ctx context.Context, v *models.Vote) (int, error) {
	for attempt := 0; attempt <= s.opts.VoteCap; attempt++ {
		prior, err := s.store.ListVoterVotes(ctx, v.ElectionID, v.CategoryKey(), v.VoterToken)
		if err != nil {
			return 0, err
		}

		slot, err := nextSlot(prior, v.CandidateID, s.opts.VoteCap)
		if err != nil {
			return 0, err
		}

		v.ID = ""
		v.Slot = slot
		err = s.store.InsertVote(ctx, v)
		if errors.Is(err, store.ErrConflict) {
			slog.Debug("vote insert conflicted, re-checking",
				"election_id", v.ElectionID,
				"category_key", v.CategoryKey(),
				"slot", slot,
				"attempt", attempt,
			)
			continue
		}
		if err != nil {
			return 0, err
		}

		return s.opts.VoteCap - len(prior) - 1, nil
	}

	return 0, fmt.Errorf("vote admission did not settle after %d attempts", s.opts.VoteCap+1)
}

func (s *Service) electionExists(ctx context.Context, electionID string) error {
	_, err := s.store.GetElection(ctx, electionID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrElectionNotFound
	}
	return err
}

func (s *Service) newSession(electionID string, expiresAt *time.Time) (models.VotingSession, error) {
	now := s.Now()
	token, err := auth.GenerateSessionToken(electionID, now)
	if err != nil {
		return models.VotingSession{}, err
	}
	return models.VotingSession{
		ElectionID: electionID,
		QRCode:     token,
		Active:     true,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}, nil
}

func (s *Service) issued(vs models.VotingSession) models.IssuedSession {
	return models.IssuedSession{Session: vs, VotingURL: auth.VotingURL(s.opts.BaseURL, vs.QRCode)}
}

// RegenerateSession deactivates every active session of the election and
// issues a single new one. Returns the new session with its voting URL and
// the number of sessions that were deactivated.
func (s *Service) RegenerateSession(ctx context.Context, electionID string, expiresAt *time.Time) (*models.IssuedSession, int64, error) {
	if err := s.electionExists(ctx, electionID); err != nil {
		return nil, 0, err
	}

	for attempt := 0; attempt < tokenAttempts; attempt++ {
		vs, err := s.newSession(electionID, expiresAt)
		if err != nil {
			return nil, 0, err
		}

		deactivated, err := s.store.ReplaceActiveSession(ctx, &vs)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}

		s.InvalidateResults(ctx, electionID)
		issued := s.issued(vs)
		return &issued, deactivated, nil
	}

	return nil, 0, errors.New("failed to mint a unique session token")
}

// IssueSessions creates count additional active sessions for bulk printing.
// Existing sessions stay active.
func (s *Service) IssueSessions(ctx context.Context, electionID string, count int, expiresAt *time.Time) ([]models.IssuedSession, error) {
	if err := s.electionExists(ctx, electionID); err != nil {
		return nil, err
	}

	sessions := make([]models.VotingSession, 0, count)
	for i := 0; i < count; i++ {
		vs, err := s.newSession(electionID, expiresAt)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, vs)
	}

	if err := s.store.CreateSessions(ctx, sessions); err != nil {
		return nil, err
	}
	s.InvalidateResults(ctx, electionID)

	issued := make([]models.IssuedSession, 0, len(sessions))
	for _, vs := range sessions {
		issued = append(issued, s.issued(vs))
	}
	return issued, nil
}

// ListSessions returns an election's sessions with their voting URLs
func (s *Service) ListSessions(ctx context.Context, electionID string, activeOnly bool) ([]models.IssuedSession, error) {
	if err := s.electionExists(ctx, electionID); err != nil {
		return nil, err
	}

	sessions, err := s.store.ListSessions(ctx, electionID, activeOnly)
	if err != nil {
		return nil, err
	}

	issued := make([]models.IssuedSession, 0, len(sessions))
	for _, vs := range sessions {
		issued = append(issued, s.issued(vs))
	}
	return issued, nil
}

// SessionURL returns the voting URL of one of an election's sessions
func (s *Service) SessionURL(ctx context.Context, electionID, sessionID string) (string, error) {
	vs, err := s.store.GetSession(ctx, electionID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return auth.VotingURL(s.opts.BaseURL, vs.QRCode), nil
}

func (s *Service) DeactivateSession(ctx context.Context, electionID, sessionID string) error {
	err := s.store.DeactivateSession(ctx, electionID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	s.InvalidateResults(ctx, electionID)
	return nil
}

// Results returns an election's tally. Public callers are refused with
// ErrResultsWithheld unless the election allows viewing results. selected is
// the category the viewer had open; it falls back to the first scope when it
// no longer exists.
func (s *Service) Results(ctx context.Context, electionID, selected string, public bool) (*models.ElectionResults, error) {
	e, err := s.store.GetElection(ctx, electionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrElectionNotFound
	}
	if err != nil {
		return nil, err
	}

	if public && !e.AllowViewResults {
		return nil, ErrResultsWithheld
	}

	res := s.cachedResults(ctx, electionID)
	if res == nil {
		gen := s.resultsGeneration(electionID)
		res, err = s.computeResults(ctx, e)
		if err != nil {
			return nil, err
		}
		s.storeResults(ctx, electionID, gen, res)
	}

	now := s.Now()
	res.Title = e.Title
	res.EndsAt = e.EndsAt
	res.SelectedCategory = tally.SelectCategory(res.Scopes, selected)
	res.RemainingSeconds = tally.Seconds(tally.Remaining(e.EndsAt, now))
	return res, nil
}

func (s *Service) cachedResults(ctx context.Context, electionID string) *models.ElectionResults {
	if s.opts.Cache == nil {
		return nil
	}
	res, ok, err := s.opts.Cache.Get(ctx, electionID)
	if err != nil {
		slog.Warn("failed to read cached results", "error", err, "election_id", electionID)
		return nil
	}
	if !ok {
		return nil
	}
	return res
}

func (s *Service) resultsGeneration(electionID string) uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.gens[electionID]
}

// storeResults caches res unless the election was invalidated since gen was
// read, in which case res may predate the change
func (s *Service) storeResults(ctx context.Context, electionID string, gen uint64, res *models.ElectionResults) {
	if s.opts.Cache == nil {
		return
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.gens[electionID] != gen {
		return
	}
	if err := s.opts.Cache.Set(ctx, electionID, res); err != nil {
		slog.Warn("failed to cache results", "error", err, "election_id", electionID)
	}
}

func (s *Service) computeResults(ctx context.Context, e *models.Election) (*models.ElectionResults, error) {
	categories, err := s.store.ListCategories(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.store.ListCandidates(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	votes, err := s.store.ListVotes(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	eligible, err := s.store.CountSessions(ctx, e.ID, s.opts.TurnoutBase == models.TurnoutActiveSessions)
	if err != nil {
		return nil, err
	}

	res := tally.Compute(tally.Input{
		Election:   *e,
		Categories: activeCategories(categories),
		Candidates: candidates,
		Votes:      votes,
		Eligible:   eligible,
		Now:        s.Now(),
	})
	return &res, nil
}

// InvalidateResults drops any cached results of the election. Results being
// computed concurrently are not cached afterwards. The generation is local to
// this process, so with a shared Redis cache another instance may still
// write a stale tally that lives until the TTL.
func (s *Service) InvalidateResults(ctx context.Context, electionID string) {
	if s.opts.Cache == nil {
		return
	}

	s.cacheMu.Lock()
	s.gens[electionID]++
	s.cacheMu.Unlock()

	if err := s.opts.Cache.Invalidate(ctx, electionID); err != nil {
		slog.Warn("failed to invalidate cached results", "error", err, "election_id", electionID)
	}
}
