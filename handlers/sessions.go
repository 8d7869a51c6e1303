// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/skip2/go-qrcode"

	"github.com/danielhkuo/qr-ballot/cliparse"
	"github.com/danielhkuo/qr-ballot/middleware"
	"github.com/danielhkuo/qr-ballot/models"
	"github.com/danielhkuo/qr-ballot/voting"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

type SessionHandler struct {
	svc *voting.Service
	cfg cliparse.Config
}

func NewSessionHandler(svc *voting.Service, cfg cliparse.Config) *SessionHandler {
	return &SessionHandler{svc: svc, cfg: cfg}
}

// adminElectionID returns the {id} path value once the admin key checks out
func (h *SessionHandler) adminElectionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election ID is required")
		return "", false
	}
	if !requireAdmin(w, r, electionID, h.cfg.AdminKeySalt) {
		return "", false
	}
	return electionID, true
}

// Regenerate handles POST /elections/{id}/sessions/regenerate
func (h *SessionHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.adminElectionID(w, r)
	if !ok {
		return
	}

	var req models.IssueSessionsRequest
	if err := parseOptionalJSON(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ExpiresInMinutes < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "expires_in_minutes cannot be negative")
		return
	}

	issued, deactivated, err := h.svc.RegenerateSession(r.Context(), electionID, expiryFromMinutes(h.svc.Now(), req.ExpiresInMinutes))
	if err != nil {
		writeError(w, err, "failed to regenerate session", "election_id", electionID)
		return
	}

	slog.Info("voting session regenerated",
		"election_id", electionID,
		"session_id", issued.Session.ID,
		"deactivated", deactivated,
	)
	middleware.JSONResponse(w, http.StatusCreated, issued)
}

// Bulk handles POST /elections/{id}/sessions/bulk
func (h *SessionHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.adminElectionID(w, r)
	if !ok {
		return
	}

	var req models.IssueSessionsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Count < 1 || req.Count > maxBulkSessions {
		middleware.ErrorResponse(w, http.StatusBadRequest, "count must be between 1 and "+strconv.Itoa(maxBulkSessions))
		return
	}
	if req.ExpiresInMinutes < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "expires_in_minutes cannot be negative")
		return
	}

	issued, err := h.svc.IssueSessions(r.Context(), electionID, req.Count, expiryFromMinutes(h.svc.Now(), req.ExpiresInMinutes))
	if err != nil {
		writeError(w, err, "failed to issue sessions", "election_id", electionID)
		return
	}

	slog.Info("voting sessions issued", "election_id", electionID, "count", len(issued))
	middleware.JSONResponse(w, http.StatusCreated, models.IssueSessionsResponse{Sessions: issued})
}

// List handles GET /elections/{id}/sessions
// ?all=true includes inactive sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.adminElectionID(w, r)
	if !ok {
		return
	}

	activeOnly := r.URL.Query().Get("all") != "true"
	sessions, err := h.svc.ListSessions(r.Context(), electionID, activeOnly)
	if err != nil {
		writeError(w, err, "failed to list sessions", "election_id", electionID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.IssueSessionsResponse{Sessions: sessions})
}

// Deactivate handles POST /elections/{id}/sessions/{sessionID}/deactivate
func (h *SessionHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.adminElectionID(w, r)
	if !ok {
		return
	}

	sessionID := r.PathValue("sessionID")
	if err := h.svc.DeactivateSession(r.Context(), electionID, sessionID); err != nil {
		writeError(w, err, "failed to deactivate session", "session_id", sessionID)
		return
	}

	slog.Info("voting session deactivated", "election_id", electionID, "session_id", sessionID)
	middleware.JSONResponse(w, http.StatusOK, models.DeactivateResponse{Deactivated: 1})
}

// QRCode handles GET /elections/{id}/sessions/{sessionID}/qr.png
// ?size=N sets the image width in pixels
func (h *SessionHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	electionID, ok := h.adminElectionID(w, r)
	if !ok {
		return
	}

	size := defaultQRSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 64 || n > maxQRSize {
			middleware.ErrorResponse(w, http.StatusBadRequest, "size must be between 64 and "+strconv.Itoa(maxQRSize))
			return
		}
		size = n
	}

	sessionID := r.PathValue("sessionID")
	votingURL, err := h.svc.SessionURL(r.Context(), electionID, sessionID)
	if err != nil {
		writeError(w, err, "failed to load session", "session_id", sessionID)
		return
	}

	png, err := qrcode.Encode(votingURL, qrcode.Medium, size)
	if err != nil {
		slog.Error("failed to encode QR code", "error", err, "session_id", sessionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
