// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/danielhkuo/qr-ballot/models"
)

// ResultsCache stores computed election results for a short time. A miss
// returns (nil, false, nil).
type ResultsCache interface {
	Get(ctx context.Context, electionID string) (*models.ElectionResults, bool, error)
	Set(ctx context.Context, electionID string, res *models.ElectionResults) error
	Invalidate(ctx context.Context, electionID string) error
}

func resultsKey(electionID string) string {
	return "qr-ballot:results:" + electionID
}

type memoryEntry struct {
	res     models.ElectionResults
	expires time.Time
}

// Memory is an in-process ResultsCache, used when no Redis is configured
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, electionID string) (*models.ElectionResults, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[resultsKey(electionID)]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, resultsKey(electionID))
		return nil, false, nil
	}

	res := e.res
	return &res, true, nil
}

func (m *Memory) Set(_ context.Context, electionID string, res *models.ElectionResults) error {
	if m.ttl <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[resultsKey(electionID)] = memoryEntry{res: *res, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, electionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, resultsKey(electionID))
	return nil
}
