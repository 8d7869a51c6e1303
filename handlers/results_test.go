// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/qr-ballot/models"
	"github.com/danielhkuo/qr-ballot/tally"
	"github.com/danielhkuo/qr-ballot/testutil"
)

func publicResultsRequest(electionID, category string) *http.Request {
	target := "/voter/results?election=" + electionID
	if category != "" {
		target += "&category=" + category
	}
	return httptest.NewRequest("GET", target, nil)
}

func TestPublicResultsWithheld(t *testing.T) {
	env := newTestEnv(t)
	f := env.newBallot(t)

	w := httptest.NewRecorder()
	env.results().PublicResults(w, publicResultsRequest(f.electionID, ""))
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = httptest.NewRecorder()
	env.results().PublicResults(w, httptest.NewRequest("GET", "/voter/results", nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = httptest.NewRecorder()
	env.results().PublicResults(w, publicResultsRequest("missing", ""))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestPublicResults(t *testing.T) {
	env := newTestEnv(t)
	f := env.newBallot(t, testutil.WithResultsVisible())
	voter := env.voter()

	second := testutil.CreateTestSession(t, env.st, f.electionID, true, nil)
	for _, v := range []struct{ token, category, candidate string }{
		{f.token, f.categoryA, f.x},
		{f.token, f.categoryA, f.y},
		{second, f.categoryA, f.x},
		{second, f.categoryB, f.z},
	} {
		w := httptest.NewRecorder()
		voter.CastVote(w, voteRequest(v.token, v.category, v.candidate))
		testutil.AssertStatus(t, w, http.StatusCreated)
	}

	w := httptest.NewRecorder()
	env.results().PublicResults(w, publicResultsRequest(f.electionID, f.categoryB))
	testutil.AssertStatus(t, w, http.StatusOK)

	var res models.ElectionResults
	testutil.AssertJSON(t, w, &res)

	if res.SelectedCategory != f.categoryB {
		t.Errorf("Expected selected category %s, got %s", f.categoryB, res.SelectedCategory)
	}
	if res.EligibleSessions != 2 {
		t.Errorf("Expected 2 eligible sessions, got %d", res.EligibleSessions)
	}
	if len(res.Scopes) != 2 {
		t.Fatalf("Expected 2 category scopes, got %d", len(res.Scopes))
	}

	a := res.Scopes[0]
	if a.TotalVoters != 2 || a.TotalVotes != 3 || a.TurnoutPercent != 100 {
		t.Errorf("Unexpected totals for A: voters=%d votes=%d turnout=%d", a.TotalVoters, a.TotalVotes, a.TurnoutPercent)
	}
	if a.Candidates[0].CandidateID != f.x || a.Candidates[0].Votes != 2 || a.Candidates[0].Rank != 1 {
		t.Errorf("Expected Ada to lead A with 2 votes, got %+v", a.Candidates[0])
	}
	if a.Candidates[0].Percentage != 66.67 || a.Candidates[0].BallotShare != 100 {
		t.Errorf("Unexpected shares for leader: %+v", a.Candidates[0])
	}

	b := res.Scopes[1]
	if b.TotalVoters != 1 || b.TurnoutPercent != 50 {
		t.Errorf("Unexpected totals for B: voters=%d turnout=%d", b.TotalVoters, b.TurnoutPercent)
	}
}

func TestPublicResultsUnknownCategoryFallsBack(t *testing.T) {
	env := newTestEnv(t)
	f := env.newBallot(t, testutil.WithResultsVisible())

	w := httptest.NewRecorder()
	env.results().PublicResults(w, publicResultsRequest(f.electionID, "gone"))
	testutil.AssertStatus(t, w, http.StatusOK)

	var res models.ElectionResults
	testutil.AssertJSON(t, w, &res)
	if res.SelectedCategory != f.categoryA {
		t.Errorf("Expected fallback to first category %s, got %s", f.categoryA, res.SelectedCategory)
	}
}

func TestAdminResults(t *testing.T) {
	env := newTestEnv(t)
	f := env.newBallot(t)
	handler := env.results()

	req := testutil.MakeRequest("GET", "/elections/"+f.electionID+"/results", nil, map[string]string{"X-Admin-Key": "wrong"})
	req.SetPathValue("id", f.electionID)
	w := httptest.NewRecorder()
	handler.AdminResults(w, req)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	// Withheld results stay visible to the admin
	req = testutil.MakeRequest("GET", "/elections/"+f.electionID+"/results", nil, map[string]string{"X-Admin-Key": f.adminKey})
	req.SetPathValue("id", f.electionID)
	w = httptest.NewRecorder()
	handler.AdminResults(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var res models.ElectionResults
	testutil.AssertJSON(t, w, &res)
	if res.Title != "Test Election" {
		t.Errorf("Expected title 'Test Election', got '%s'", res.Title)
	}
}

func TestAdminResultsUncategorised(t *testing.T) {
	env := newTestEnv(t)
	electionID, adminKey := testutil.CreateTestElection(t, env.st, env.cfg)
	x := testutil.AddTestCandidate(t, env.st, electionID, "Ada", 0)
	token := testutil.CreateTestSession(t, env.st, electionID, true, nil)

	w := httptest.NewRecorder()
	env.voter().CastVote(w, voteRequest(token, "", x))
	testutil.AssertStatus(t, w, http.StatusCreated)

	req := testutil.MakeRequest("GET", "/elections/"+electionID+"/results", nil, map[string]string{"X-Admin-Key": adminKey})
	req.SetPathValue("id", electionID)
	w = httptest.NewRecorder()
	env.results().AdminResults(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var res models.ElectionResults
	testutil.AssertJSON(t, w, &res)
	if len(res.Scopes) != 1 || res.Scopes[0].Name != tally.OverallScope {
		t.Fatalf("Expected a single %s scope, got %+v", tally.OverallScope, res.Scopes)
	}
	if res.Scopes[0].Candidates[0].Votes != 1 || res.Scopes[0].Candidates[0].Percentage != 100 {
		t.Errorf("Unexpected result: %+v", res.Scopes[0].Candidates[0])
	}
}
