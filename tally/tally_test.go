// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/qr-ballot/models"
)

func strPtr(s string) *string { return &s }

func vote(category *string, candidate, token string) models.Vote {
	return models.Vote{CategoryID: category, CandidateID: candidate, VoterToken: token}
}

var (
	testElection  = models.Election{ID: "e1", Title: "Spring Ball"}
	candidatesXYZ = []models.Candidate{
		{ID: "x", Name: "X", OrderIndex: 0},
		{ID: "y", Name: "Y", OrderIndex: 1},
		{ID: "z", Name: "Z", OrderIndex: 2},
	}
)

func sumPercentages(s models.ScopeResult) float64 {
	var total float64
	for _, c := range s.Candidates {
		total += c.Percentage
	}
	return total
}

func TestCompute_DistinctVoterCounting(t *testing.T) {
	a := strPtr("A")
	res := Compute(Input{
		Election:   testElection,
		Categories: []models.Category{{ID: "A", Name: "King"}},
		Candidates: candidatesXYZ,
		Votes: []models.Vote{
			vote(a, "x", "t1"),
			vote(a, "y", "t1"),
			vote(a, "x", "t2"),
			vote(a, "x", "t2"), // duplicate row counts once
			vote(a, "z", "t3"),
		},
		Eligible: 4,
	})

	require.Len(t, res.Scopes, 1)
	scope := res.Scopes[0]

	assert.Equal(t, "King", scope.Name)
	assert.Equal(t, 3, scope.TotalVoters)
	assert.Equal(t, 4, scope.TotalVotes)
	assert.Equal(t, 75, scope.TurnoutPercent)

	require.Len(t, scope.Candidates, 3)
	assert.Equal(t, "x", scope.Candidates[0].CandidateID)
	assert.Equal(t, 2, scope.Candidates[0].Votes)
	assert.Equal(t, 1, scope.Candidates[0].Rank)
	assert.InDelta(t, 50.0, scope.Candidates[0].Percentage, 0.01)
	assert.InDelta(t, 66.67, scope.Candidates[0].BallotShare, 0.01)

	assert.InDelta(t, 100.0, sumPercentages(scope), 0.05)
}

// Percentage divides by votes cast, BallotShare by distinct voters
func TestCompute_ShareDenominators(t *testing.T) {
	a := strPtr("A")
	res := Compute(Input{
		Election:   testElection,
		Categories: []models.Category{{ID: "A", Name: "King"}},
		Candidates: candidatesXYZ,
		Votes: []models.Vote{
			vote(a, "x", "t1"),
			vote(a, "y", "t1"),
			vote(a, "x", "t2"),
			vote(a, "y", "t2"),
		},
		Eligible: 2,
	})

	scope := res.Scopes[0]
	require.Equal(t, 4, scope.TotalVotes)
	require.Equal(t, 2, scope.TotalVoters)

	var ballotShares float64
	for _, c := range scope.Candidates {
		wantPct := float64(c.Votes) / float64(scope.TotalVotes) * 100
		wantShare := float64(c.Votes) / float64(scope.TotalVoters) * 100
		assert.InDelta(t, wantPct, c.Percentage, 0.01, c.CandidateID)
		assert.InDelta(t, wantShare, c.BallotShare, 0.01, c.CandidateID)
		assert.GreaterOrEqual(t, c.BallotShare, c.Percentage, c.CandidateID)
		ballotShares += c.BallotShare
	}

	// Every voter picked both x and y
	assert.InDelta(t, 100.0, sumPercentages(scope), 0.05)
	assert.InDelta(t, 200.0, ballotShares, 0.05)
}

func TestCompute_PercentagesSumTo100(t *testing.T) {
	a := strPtr("A")
	votes := []models.Vote{}
	tokens := []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7"}
	picks := []string{"x", "y", "z", "x", "y", "x", "z"}
	for i, tok := range tokens {
		votes = append(votes, vote(a, picks[i], tok))
		if i%2 == 0 {
			votes = append(votes, vote(a, picks[(i+1)%len(picks)], tok))
		}
	}

	res := Compute(Input{
		Election:   testElection,
		Categories: []models.Category{{ID: "A", Name: "A"}},
		Candidates: candidatesXYZ,
		Votes:      votes,
		Eligible:   10,
	})

	assert.InDelta(t, 100.0, sumPercentages(res.Scopes[0]), 0.05)
}

func TestCompute_ZeroVotes(t *testing.T) {
	res := Compute(Input{
		Election:   testElection,
		Categories: []models.Category{{ID: "A", Name: "A"}, {ID: "B", Name: "B"}},
		Candidates: candidatesXYZ,
		Eligible:   0,
	})

	require.Len(t, res.Scopes, 2)
	for _, scope := range res.Scopes {
		assert.Equal(t, 0, scope.TotalVoters)
		assert.Equal(t, 0, scope.TurnoutPercent)
		for _, c := range scope.Candidates {
			assert.Equal(t, 0, c.Votes)
			assert.Zero(t, c.Percentage)
			assert.Zero(t, c.BallotShare)
			assert.Equal(t, 1, c.Rank)
		}
	}
}

func TestCompute_StableTies(t *testing.T) {
	res := Compute(Input{
		Election:   testElection,
		Candidates: candidatesXYZ,
		Votes: []models.Vote{
			vote(nil, "z", "t1"),
			vote(nil, "y", "t2"),
			vote(nil, "x", "t3"),
			vote(nil, "z", "t4"),
		},
		Eligible: 4,
	})

	scope := res.Scopes[0]
	ids := []string{}
	ranks := []int{}
	for _, c := range scope.Candidates {
		ids = append(ids, c.CandidateID)
		ranks = append(ranks, c.Rank)
	}

	assert.Equal(t, []string{"z", "x", "y"}, ids)
	assert.Equal(t, []int{1, 2, 2}, ranks)
}

func TestCompute_UncategorisedFallback(t *testing.T) {
	res := Compute(Input{
		Election:   testElection,
		Candidates: candidatesXYZ,
		Votes: []models.Vote{
			vote(nil, "x", "t1"),
			vote(nil, "y", "t2"),
		},
		Eligible: 2,
	})

	require.Len(t, res.Scopes, 1)
	assert.Nil(t, res.Scopes[0].CategoryID)
	assert.Equal(t, OverallScope, res.Scopes[0].Name)
	assert.Equal(t, 100, res.Scopes[0].TurnoutPercent)
	assert.Equal(t, "", res.SelectedCategory)
}

func TestCompute_CategoriesAreIndependent(t *testing.T) {
	a, b := strPtr("A"), strPtr("B")
	res := Compute(Input{
		Election:   testElection,
		Categories: []models.Category{{ID: "A", Name: "A"}, {ID: "B", Name: "B"}},
		Candidates: candidatesXYZ,
		Votes: []models.Vote{
			vote(a, "x", "t1"),
			vote(b, "y", "t1"),
			vote(b, "y", "t2"),
			vote(nil, "z", "t3"), // stray uncategorised vote is ignored
		},
		Eligible: 2,
	})

	require.Len(t, res.Scopes, 2)
	assert.Equal(t, "A", res.SelectedCategory)

	assert.Equal(t, 1, res.Scopes[0].TotalVoters)
	assert.Equal(t, 50, res.Scopes[0].TurnoutPercent)
	assert.Equal(t, "x", res.Scopes[0].Candidates[0].CandidateID)

	assert.Equal(t, 2, res.Scopes[1].TotalVoters)
	assert.Equal(t, 100, res.Scopes[1].TurnoutPercent)
	assert.Equal(t, "y", res.Scopes[1].Candidates[0].CandidateID)
}

func TestCompute_IgnoresUnknownCandidates(t *testing.T) {
	res := Compute(Input{
		Election:   testElection,
		Candidates: candidatesXYZ,
		Votes:      []models.Vote{vote(nil, "deleted", "t1")},
		Eligible:   1,
	})

	assert.Equal(t, 0, res.Scopes[0].TotalVoters)
}

func TestTurnout(t *testing.T) {
	tests := []struct {
		voters, eligible, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{4, 3, 133},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Turnout(tt.voters, tt.eligible), "Turnout(%d, %d)", tt.voters, tt.eligible)
	}
}

func TestSelectCategory(t *testing.T) {
	scopes := []models.ScopeResult{
		{CategoryID: strPtr("A")},
		{CategoryID: strPtr("B")},
	}

	assert.Equal(t, "B", SelectCategory(scopes, "B"))
	assert.Equal(t, "A", SelectCategory(scopes, "gone"))
	assert.Equal(t, "A", SelectCategory(scopes, ""))
	assert.Equal(t, "", SelectCategory(nil, "B"))
}

func TestRemaining(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(90*time.Second + 500*time.Millisecond)

	assert.Equal(t, time.Duration(0), Remaining(nil, now))
	assert.Equal(t, int64(90), Seconds(Remaining(&end, now)))
	assert.Equal(t, int64(30), Seconds(Remaining(&end, now.Add(time.Minute))))
	assert.Equal(t, time.Duration(0), Remaining(&end, now.Add(time.Hour)))
}

func TestWatcher_KeepsSelectionAndRecomputesCountdown(t *testing.T) {
	start := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Minute)

	var mu sync.Mutex
	calls := 0
	clock := start

	fetch := func(ctx context.Context) (*models.ElectionResults, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		scopes := []models.ScopeResult{{CategoryID: strPtr("A")}, {CategoryID: strPtr("B")}}
		if calls >= 3 {
			// B was deleted
			scopes = scopes[:1]
		}
		return &models.ElectionResults{EndsAt: &end, Scopes: scopes, RemainingSeconds: 999}, nil
	}

	w := &Watcher{
		Interval: 5 * time.Millisecond,
		Fetch:    fetch,
		Selected: "B",
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(10 * time.Second)
			return clock
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var updates []models.ElectionResults
	err := w.Run(ctx, func(res *models.ElectionResults, err error) {
		require.NoError(t, err)
		updates = append(updates, *res)
		if len(updates) == 3 {
			cancel()
		}
	})

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, updates, 3)

	assert.Equal(t, "B", updates[0].SelectedCategory)
	assert.Equal(t, "B", updates[1].SelectedCategory)
	assert.Equal(t, "A", updates[2].SelectedCategory)

	assert.Equal(t, int64(50), updates[0].RemainingSeconds)
	assert.Equal(t, int64(40), updates[1].RemainingSeconds)
	assert.Equal(t, int64(30), updates[2].RemainingSeconds)
}

func TestWatcher_ReportsFetchErrors(t *testing.T) {
	boom := errors.New("connection refused")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []error
	err := Watch(ctx, 5*time.Millisecond, "", func(ctx context.Context) (*models.ElectionResults, error) {
		return nil, boom
	}, func(res *models.ElectionResults, err error) {
		assert.Nil(t, res)
		got = append(got, err)
		if len(got) == 2 {
			cancel()
		}
	})

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, got, 2)
	assert.ErrorIs(t, got[0], boom)
}

func TestWatcher_InvalidInterval(t *testing.T) {
	w := &Watcher{Fetch: func(ctx context.Context) (*models.ElectionResults, error) { return nil, nil }}
	assert.Error(t, w.Run(context.Background(), func(*models.ElectionResults, error) {}))
}
