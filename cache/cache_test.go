// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/danielhkuo/qr-ballot/models"
)

func sampleResults(id string) *models.ElectionResults {
	return &models.ElectionResults{
		ElectionID:       id,
		Title:            "Prom Court",
		EligibleSessions: 10,
		Scopes: []models.ScopeResult{{
			Name:        "Overall",
			TotalVoters: 3,
			Candidates: []models.CandidateResult{
				{CandidateID: "c1", Name: "Ada", Votes: 3, Percentage: 100, Rank: 1},
			},
		}},
	}
}

func exerciseCache(t *testing.T, c ResultsCache) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "e1"); err != nil || ok {
		t.Fatalf("Expected miss on empty cache, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "e1", sampleResults("e1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := c.Get(ctx, "e1")
	if err != nil || !ok {
		t.Fatalf("Expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Title != "Prom Court" || len(got.Scopes) != 1 || got.Scopes[0].Candidates[0].Votes != 3 {
		t.Errorf("Unexpected cached results: %+v", got)
	}

	if _, ok, _ := c.Get(ctx, "e2"); ok {
		t.Error("Expected miss for a different election")
	}

	if err := c.Invalidate(ctx, "e1"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "e1"); ok {
		t.Error("Expected miss after invalidation")
	}
}

func TestMemory(t *testing.T) {
	exerciseCache(t, NewMemory(time.Minute))
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory(time.Minute)
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	ctx := context.Background()
	m.Set(ctx, "e1", sampleResults("e1"))

	now = now.Add(59 * time.Second)
	if _, ok, _ := m.Get(ctx, "e1"); !ok {
		t.Error("Expected hit before TTL")
	}

	now = now.Add(time.Second)
	if _, ok, _ := m.Get(ctx, "e1"); ok {
		t.Error("Expected miss at TTL")
	}
}

func TestMemory_ZeroTTLDisables(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()
	m.Set(ctx, "e1", sampleResults("e1"))
	if _, ok, _ := m.Get(ctx, "e1"); ok {
		t.Error("Expected zero TTL to disable caching")
	}
}

func TestMemory_ReturnsCopy(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()
	m.Set(ctx, "e1", sampleResults("e1"))

	got, _, _ := m.Get(ctx, "e1")
	got.Title = "changed"

	again, _, _ := m.Get(ctx, "e1")
	if again.Title != "Prom Court" {
		t.Errorf("Cache entry was mutated through a returned value: %q", again.Title)
	}
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	r, err := NewRedis(context.Background(), "redis://"+addr+"/0", time.Minute)
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	defer r.Close()

	r.Invalidate(context.Background(), "e1")
	exerciseCache(t, r)
}

func TestNewRedis_InvalidURL(t *testing.T) {
	if _, err := NewRedis(context.Background(), "not a url", time.Minute); err == nil {
		t.Error("Expected error for invalid redis url")
	}
}
