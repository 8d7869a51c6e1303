// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"math"
	"sort"
	"time"

	"github.com/danielhkuo/qr-ballot/models"
)

// OverallScope names the single scope of an election without categories
const OverallScope = "Overall"

// Input is everything Compute needs; it never touches the database
type Input struct {
	Election   models.Election
	Categories []models.Category
	Candidates []models.Candidate
	Votes      []models.Vote
	// Eligible is the turnout denominator (number of sessions)
	Eligible int
	Now      time.Time
}

// Compute ranks the candidates of every category of an election. Elections
// without categories get one scope covering the uncategorised votes.
func Compute(in Input) models.ElectionResults {
	res := models.ElectionResults{
		ElectionID:       in.Election.ID,
		Title:            in.Election.Title,
		EndsAt:           in.Election.EndsAt,
		EligibleSessions: in.Eligible,
		ComputedAt:       in.Now,
		RemainingSeconds: Seconds(Remaining(in.Election.EndsAt, in.Now)),
	}

	if len(in.Categories) == 0 {
		var uncategorised []models.Vote
		for _, v := range in.Votes {
			if v.CategoryID == nil {
				uncategorised = append(uncategorised, v)
			}
		}
		res.Scopes = []models.ScopeResult{
			tallyScope(nil, OverallScope, in.Candidates, uncategorised, in.Eligible),
		}
	} else {
		byCategory := make(map[string][]models.Vote)
		for _, v := range in.Votes {
			if v.CategoryID == nil {
				continue
			}
			byCategory[*v.CategoryID] = append(byCategory[*v.CategoryID], v)
		}

		res.Scopes = make([]models.ScopeResult, 0, len(in.Categories))
		for _, c := range in.Categories {
			id := c.ID
			res.Scopes = append(res.Scopes, tallyScope(&id, c.Name, in.Candidates, byCategory[c.ID], in.Eligible))
		}
	}

	res.SelectedCategory = SelectCategory(res.Scopes, "")
	return res
}

// tallyScope counts distinct voter tokens per candidate. A voter who picks two
// candidates counts once for each of them and once in TotalVoters.
func tallyScope(categoryID *string, name string, candidates []models.Candidate, votes []models.Vote, eligible int) models.ScopeResult {
	index := make(map[string]int, len(candidates))
	for i, c := range candidates {
		index[c.ID] = i
	}

	voters := make(map[string]struct{})
	perCandidate := make([]map[string]struct{}, len(candidates))
	for _, v := range votes {
		i, ok := index[v.CandidateID]
		if !ok {
			continue
		}
		voters[v.VoterToken] = struct{}{}
		if perCandidate[i] == nil {
			perCandidate[i] = make(map[string]struct{})
		}
		perCandidate[i][v.VoterToken] = struct{}{}
	}

	totalVotes := 0
	for _, set := range perCandidate {
		totalVotes += len(set)
	}

	results := make([]models.CandidateResult, len(candidates))
	for i, c := range candidates {
		count := len(perCandidate[i])
		results[i] = models.CandidateResult{
			CandidateID: c.ID,
			Name:        c.Name,
			PhotoURL:    c.PhotoURL,
			Votes:       count,
			Percentage:  percent(count, totalVotes),
			BallotShare: percent(count, len(voters)),
		}
	}

	// Ties keep candidate order
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Votes > results[j].Votes
	})
	for i := range results {
		if i > 0 && results[i].Votes == results[i-1].Votes {
			results[i].Rank = results[i-1].Rank
		} else {
			results[i].Rank = i + 1
		}
	}

	return models.ScopeResult{
		CategoryID:     categoryID,
		Name:           name,
		TotalVoters:    len(voters),
		TotalVotes:     totalVotes,
		TurnoutPercent: Turnout(len(voters), eligible),
		Candidates:     results,
	}
}

// percent returns part/whole*100 rounded to two decimals, 0 when whole is 0
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}

// Turnout is voters/eligible as a whole percentage, 0 when nobody is eligible.
// It is not clamped: deactivating sessions after voting can push it past 100.
func Turnout(voters, eligible int) int {
	if eligible <= 0 {
		return 0
	}
	return int(math.Round(float64(voters) / float64(eligible) * 100))
}

// SelectCategory keeps the previously selected category while it still
// exists and falls back to the first scope otherwise
func SelectCategory(scopes []models.ScopeResult, previous string) string {
	for _, s := range scopes {
		if s.Key() == previous {
			return previous
		}
	}
	if len(scopes) == 0 {
		return ""
	}
	return scopes[0].Key()
}

// Remaining is the time left until endsAt, never negative. It is always
// derived from the absolute end time so repeated calls cannot drift.
func Remaining(endsAt *time.Time, now time.Time) time.Duration {
	if endsAt == nil {
		return 0
	}
	d := endsAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Seconds truncates a duration to whole seconds
func Seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
