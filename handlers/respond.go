// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/qr-ballot/auth"
	"github.com/danielhkuo/qr-ballot/middleware"
	"github.com/danielhkuo/qr-ballot/store"
	"github.com/danielhkuo/qr-ballot/voting"
)

// maxBulkSessions caps one bulk issuance request
const maxBulkSessions = 500

// errorStatus maps domain errors to HTTP status codes. Zero means the error
// is unexpected and must be logged.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, voting.ErrSessionNotFound),
		errors.Is(err, voting.ErrElectionNotFound),
		errors.Is(err, voting.ErrCategoryNotFound),
		errors.Is(err, voting.ErrCandidateNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, voting.ErrSessionInactive),
		errors.Is(err, voting.ErrSessionExpired):
		return http.StatusGone
	case errors.Is(err, voting.ErrElectionInactive),
		errors.Is(err, voting.ErrElectionEnded),
		errors.Is(err, voting.ErrDuplicateVote):
		return http.StatusConflict
	case errors.Is(err, voting.ErrCategoryRequired):
		return http.StatusBadRequest
	case errors.Is(err, voting.ErrResultsWithheld):
		return http.StatusForbidden
	}
	return 0
}

// writeError writes the response for err. Expected outcomes carry their own
// message; anything else is logged with msg and args and hidden behind a
// generic 500.
func writeError(w http.ResponseWriter, err error, msg string, args ...any) {
	if status := errorStatus(err); status != 0 {
		middleware.ErrorResponse(w, status, err.Error())
		return
	}
	slog.Error(msg, append([]any{"error", err}, args...)...)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
}

// requireAdmin checks the X-Admin-Key header against the election ID
func requireAdmin(w http.ResponseWriter, r *http.Request, electionID, salt string) bool {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(electionID, adminKey, salt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return false
	}
	return true
}

// parseOptionalJSON is ParseJSONBody that accepts an empty body
func parseOptionalJSON(r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	err := middleware.ParseJSONBody(r, v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// validWindow reports whether endsAt is after startsAt when both are set
func validWindow(startsAt, endsAt *time.Time) bool {
	return startsAt == nil || endsAt == nil || endsAt.After(*startsAt)
}

// expiryFromMinutes turns a lifetime in minutes into an absolute expiry;
// zero means the session never expires
func expiryFromMinutes(now time.Time, minutes int) *time.Time {
	if minutes <= 0 {
		return nil
	}
	t := now.Add(time.Duration(minutes) * time.Minute)
	return &t
}
