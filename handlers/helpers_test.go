// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"testing"
	"time"

	"github.com/danielhkuo/qr-ballot/cache"
	"github.com/danielhkuo/qr-ballot/cliparse"
	"github.com/danielhkuo/qr-ballot/store"
	"github.com/danielhkuo/qr-ballot/testutil"
	"github.com/danielhkuo/qr-ballot/voting"
)

type testEnv struct {
	db  *sql.DB
	st  *store.Store
	svc *voting.Service
	cfg cliparse.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithClock(t, nil)
}

// newTestEnvAt freezes the service clock at now
func newTestEnvAt(t *testing.T, now time.Time) *testEnv {
	t.Helper()
	return newTestEnvWithClock(t, func() time.Time { return now })
}

func newTestEnvWithClock(t *testing.T, clock func() time.Time) *testEnv {
	t.Helper()
	db, st := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	svc := voting.New(st, voting.Options{
		VoteCap:     cfg.VoteCap,
		BaseURL:     cfg.PublicBaseURL,
		TurnoutBase: cfg.TurnoutBase,
		Cache:       cache.NewMemory(cfg.CacheTTL),
		Now:         clock,
	})
	return &testEnv{db: db, st: st, svc: svc, cfg: cfg}
}

func (e *testEnv) elections() *ElectionHandler {
	return NewElectionHandler(e.st, e.svc, e.cfg)
}

func (e *testEnv) sessions() *SessionHandler {
	return NewSessionHandler(e.svc, e.cfg)
}

func (e *testEnv) voter() *VoterHandler {
	return NewVoterHandler(e.svc, e.cfg)
}

func (e *testEnv) results() *ResultsHandler {
	return NewResultsHandler(e.svc, e.cfg)
}

// ballotFixture is an election with categories {A, B}, candidates {X, Y, Z}
// and one active session
type ballotFixture struct {
	electionID string
	adminKey   string
	categoryA  string
	categoryB  string
	x, y, z    string
	token      string
}

func (e *testEnv) newBallot(t *testing.T, opts ...testutil.ElectionOption) ballotFixture {
	t.Helper()
	var f ballotFixture
	f.electionID, f.adminKey = testutil.CreateTestElection(t, e.st, e.cfg, opts...)
	f.categoryA = testutil.AddTestCategory(t, e.st, f.electionID, "Best Dressed", 0)
	f.categoryB = testutil.AddTestCategory(t, e.st, f.electionID, "Most Likely to Succeed", 1)
	f.x = testutil.AddTestCandidate(t, e.st, f.electionID, "Ada", 0)
	f.y = testutil.AddTestCandidate(t, e.st, f.electionID, "Grace", 1)
	f.z = testutil.AddTestCandidate(t, e.st, f.electionID, "Linus", 2)
	f.token = testutil.CreateTestSession(t, e.st, f.electionID, true, nil)
	return f
}

// inFuture is a helper for expiry fixtures
func inFuture(d time.Duration) *time.Time {
	t := time.Now().Add(d)
	return &t
}
