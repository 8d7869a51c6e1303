// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/qr-ballot/cliparse"
	"github.com/danielhkuo/qr-ballot/middleware"
	"github.com/danielhkuo/qr-ballot/voting"
)

type ResultsHandler struct {
	svc *voting.Service
	cfg cliparse.Config
}

func NewResultsHandler(svc *voting.Service, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{svc: svc, cfg: cfg}
}

// PublicResults handles GET /voter/results?election=<id>&category=<id>
// Responds 403 while the election withholds its results
func (h *ResultsHandler) PublicResults(w http.ResponseWriter, r *http.Request) {
	electionID := r.URL.Query().Get("election")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election is required")
		return
	}

	res, err := h.svc.Results(r.Context(), electionID, r.URL.Query().Get("category"), true)
	if err != nil {
		writeError(w, err, "failed to compute results", "election_id", electionID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, res)
}

// AdminResults handles GET /elections/{id}/results?category=<id>
// Always available to the election's admin
func (h *ResultsHandler) AdminResults(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election ID is required")
		return
	}
	if !requireAdmin(w, r, electionID, h.cfg.AdminKeySalt) {
		return
	}

	res, err := h.svc.Results(r.Context(), electionID, r.URL.Query().Get("category"), false)
	if err != nil {
		writeError(w, err, "failed to compute results", "election_id", electionID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, res)
}
