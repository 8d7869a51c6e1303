// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/qr-ballot/auth"
	"github.com/danielhkuo/qr-ballot/cliparse"
	"github.com/danielhkuo/qr-ballot/middleware"
	"github.com/danielhkuo/qr-ballot/models"
	"github.com/danielhkuo/qr-ballot/voting"
)

type VoterHandler struct {
	svc *voting.Service
	cfg cliparse.Config
}

func NewVoterHandler(svc *voting.Service, cfg cliparse.Config) *VoterHandler {
	return &VoterHandler{svc: svc, cfg: cfg}
}

// GetBallot handles GET /voter?qrcode=<token>
func (h *VoterHandler) GetBallot(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("qrcode")
	if token == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "qrcode is required")
		return
	}

	ballot, err := h.svc.LoadBallot(r.Context(), token)
	if err != nil {
		writeError(w, err, "failed to load ballot")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, ballot)
}

// CastVote handles POST /voter/vote?qrcode=<token>&category=<id>&candidate=<id>
func (h *VoterHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("qrcode")
	candidateID := q.Get("candidate")

	if token == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "qrcode is required")
		return
	}
	if candidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate is required")
		return
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r, h.cfg.TrustProxy), h.cfg.AdminKeySalt)
	req := voting.CastRequest{
		Token:       token,
		CategoryID:  q.Get("category"),
		CandidateID: candidateID,
		IPHash:      &ipHash,
	}
	if ua := r.UserAgent(); ua != "" {
		req.UserAgent = &ua
	}

	vote, remaining, err := h.svc.CastVote(r.Context(), req)
	if err != nil {
		writeError(w, err, "failed to record vote", "candidate_id", candidateID)
		return
	}

	slog.Info("vote recorded",
		"election_id", vote.ElectionID,
		"category_id", models.CategoryKey(vote.CategoryID),
		"candidate_id", vote.CandidateID,
		"remaining", remaining,
	)

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		Vote:      *vote,
		Remaining: remaining,
	})
}
