// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"errors"
	"time"

	"github.com/danielhkuo/qr-ballot/models"
)

// FetchFunc loads a fresh copy of an election's results
type FetchFunc func(ctx context.Context) (*models.ElectionResults, error)

// Watcher re-fetches results on a fixed interval. It owns the viewer's
// selected category so a refresh never resets it, and it recomputes the
// countdown from the absolute end time on every tick.
type Watcher struct {
	Interval time.Duration
	Fetch    FetchFunc
	// Selected is the category key the viewer is looking at
	Selected string
	Now      func() time.Time
}

// Run fetches once immediately and then every Interval until ctx is done.
// Fetch errors are handed to onUpdate and the loop keeps polling.
func (w *Watcher) Run(ctx context.Context, onUpdate func(*models.ElectionResults, error)) error {
	if w.Interval <= 0 {
		return errors.New("watch interval must be positive")
	}
	if w.Fetch == nil {
		return errors.New("watch fetch function is required")
	}
	now := w.Now
	if now == nil {
		now = time.Now
	}

	refresh := func() {
		res, err := w.Fetch(ctx)
		if err != nil {
			onUpdate(nil, err)
			return
		}
		w.Selected = SelectCategory(res.Scopes, w.Selected)
		res.SelectedCategory = w.Selected
		res.RemainingSeconds = Seconds(Remaining(res.EndsAt, now()))
		onUpdate(res, nil)
	}

	refresh()

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := ctx.Err(); err != nil {
				return err
			}
			refresh()
		}
	}
}

// Watch is a convenience wrapper around Watcher.Run
func Watch(ctx context.Context, interval time.Duration, selected string, fetch FetchFunc, onUpdate func(*models.ElectionResults, error)) error {
	w := &Watcher{Interval: interval, Fetch: fetch, Selected: selected}
	return w.Run(ctx, onUpdate)
}
