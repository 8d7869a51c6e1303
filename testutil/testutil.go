// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/qr-ballot/auth"
	"github.com/danielhkuo/qr-ballot/cliparse"
	"github.com/danielhkuo/qr-ballot/db"
	"github.com/danielhkuo/qr-ballot/models"
	"github.com/danielhkuo/qr-ballot/store"
)

// SetupTestDB creates a fresh in-memory sqlite database with the full schema.
// Every call gets its own database, closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := "file:test-" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := db.Open("sqlite", url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SetupTestStore returns a store over a fresh test database
func SetupTestStore(t *testing.T) (*sql.DB, *store.Store) {
	t.Helper()
	conn := SetupTestDB(t)
	return conn, store.New(conn)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   "file::memory:",
		DatabaseType:  "sqlite",
		AdminKeySalt:  "test-admin-salt",
		PublicBaseURL: "https://vote.example.com",
		VoteCap:       2,
		TurnoutBase:   models.TurnoutActiveSessions,
		CacheTTL:      time.Minute,
	}
}

// ElectionOption customises CreateTestElection
type ElectionOption func(e *models.Election)

func WithResultsVisible() ElectionOption {
	return func(e *models.Election) { e.AllowViewResults = true }
}

func WithInactive() ElectionOption {
	return func(e *models.Election) { e.Active = false }
}

func WithWindow(startsAt, endsAt time.Time) ElectionOption {
	return func(e *models.Election) {
		e.StartsAt = &startsAt
		e.EndsAt = &endsAt
	}
}

// CreateTestElection creates an active election and returns its ID and admin key
func CreateTestElection(t *testing.T, st *store.Store, cfg cliparse.Config, opts ...ElectionOption) (electionID, adminKey string) {
	t.Helper()

	electionID, _ = auth.GenerateID(16)
	e := &models.Election{
		ID:          electionID,
		Title:       "Test Election",
		Description: "A test election",
		Active:      true,
		CreatedAt:   time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := st.CreateElection(context.Background(), e); err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return electionID, auth.GenerateAdminKey(electionID, cfg.AdminKeySalt)
}

// AddTestCategory adds an active category and returns its ID
func AddTestCategory(t *testing.T, st *store.Store, electionID, name string, order int) string {
	t.Helper()

	c := &models.Category{ElectionID: electionID, Name: name, OrderIndex: order, Active: true}
	if err := st.CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("Failed to create test category: %v", err)
	}
	return c.ID
}

// AddTestCandidate adds a candidate and returns its ID
func AddTestCandidate(t *testing.T, st *store.Store, electionID, name string, order int) string {
	t.Helper()

	c := &models.Candidate{ElectionID: electionID, Name: name, OrderIndex: order}
	if err := st.CreateCandidate(context.Background(), c); err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}
	return c.ID
}

// CreateTestSession issues a voting session without touching other sessions
// and returns its QR token
func CreateTestSession(t *testing.T, st *store.Store, electionID string, active bool, expiresAt *time.Time) string {
	t.Helper()

	token, err := auth.GenerateSessionToken(electionID, time.Now())
	if err != nil {
		t.Fatalf("Failed to generate session token: %v", err)
	}

	vs := models.VotingSession{
		ElectionID: electionID,
		QRCode:     token,
		Active:     active,
		CreatedAt:  time.Now(),
		ExpiresAt:  expiresAt,
	}
	if err := st.CreateSessions(context.Background(), []models.VotingSession{vs}); err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}
	return token
}

// InsertTestVote stores a vote directly, bypassing admission control
func InsertTestVote(t *testing.T, st *store.Store, electionID string, categoryID *string, candidateID, voterToken string, slot int) {
	t.Helper()

	v := &models.Vote{
		ElectionID:  electionID,
		CategoryID:  categoryID,
		CandidateID: candidateID,
		VoterToken:  voterToken,
		Slot:        slot,
		CreatedAt:   time.Now(),
	}
	if err := st.InsertVote(context.Background(), v); err != nil {
		t.Fatalf("Failed to insert test vote: %v", err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// StrPtr returns a pointer to s
func StrPtr(s string) *string {
	return &s
}
