// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/qr-ballot/auth"
	"github.com/danielhkuo/qr-ballot/cliparse"
	"github.com/danielhkuo/qr-ballot/middleware"
	"github.com/danielhkuo/qr-ballot/models"
	"github.com/danielhkuo/qr-ballot/store"
	"github.com/danielhkuo/qr-ballot/voting"
)

type ElectionHandler struct {
	store *store.Store
	svc   *voting.Service
	cfg   cliparse.Config
}

func NewElectionHandler(st *store.Store, svc *voting.Service, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{store: st, svc: svc, cfg: cfg}
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if !validWindow(req.StartsAt, req.EndsAt) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "ends_at must be after starts_at")
		return
	}

	electionID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate election ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	e := &models.Election{
		ID:               electionID,
		Title:            req.Title,
		Description:      req.Description,
		BannerURL:        req.BannerURL,
		StartsAt:         req.StartsAt,
		EndsAt:           req.EndsAt,
		Active:           true,
		AllowViewResults: req.AllowViewResults,
		CreatedAt:        time.Now(),
	}
	if err := h.store.CreateElection(r.Context(), e); err != nil {
		slog.Error("failed to insert election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	slog.Info("election created", "election_id", electionID, "title", e.Title)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: electionID,
		AdminKey:   auth.GenerateAdminKey(electionID, h.cfg.AdminKeySalt),
	})
}

// ListElections handles GET /elections
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	elections, err := h.store.ListElections(r.Context())
	if err != nil {
		writeError(w, err, "failed to list elections")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, elections)
}

// GetElection handles GET /elections/{id}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")

	e, err := h.store.GetElection(r.Context(), electionID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		writeError(w, err, "failed to query election", "election_id", electionID)
		return
	}

	categories, err := h.store.ListCategories(r.Context(), electionID)
	if err != nil {
		writeError(w, err, "failed to query categories", "election_id", electionID)
		return
	}

	candidates, err := h.store.ListCandidates(r.Context(), electionID)
	if err != nil {
		writeError(w, err, "failed to query candidates", "election_id", electionID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionDetail{
		Election:   *e,
		Categories: categories,
		Candidates: candidates,
	})
}

// loadElection fetches the election named by the {id} path value after
// checking the admin key. On failure the response is already written.
func (h *ElectionHandler) loadElection(w http.ResponseWriter, r *http.Request) (*models.Election, bool) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election ID is required")
		return nil, false
	}
	if !requireAdmin(w, r, electionID, h.cfg.AdminKeySalt) {
		return nil, false
	}

	e, err := h.store.GetElection(r.Context(), electionID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return nil, false
	}
	if err != nil {
		writeError(w, err, "failed to query election", "election_id", electionID)
		return nil, false
	}
	return e, true
}

// UpdateElection handles PUT /elections/{id}
func (h *ElectionHandler) UpdateElection(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadElection(w, r)
	if !ok {
		return
	}

	var req models.UpdateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		e.Title = title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.BannerURL != nil {
		e.BannerURL = *req.BannerURL
	}
	if req.AllowViewResults != nil {
		e.AllowViewResults = *req.AllowViewResults
	}

	if err := h.store.UpdateElection(r.Context(), e); err != nil {
		writeError(w, err, "failed to update election", "election_id", e.ID)
		return
	}
	h.svc.InvalidateResults(r.Context(), e.ID)

	slog.Info("election updated", "election_id", e.ID)
	middleware.JSONResponse(w, http.StatusOK, e)
}

// SetStatus handles POST /elections/{id}/status
func (h *ElectionHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadElection(w, r)
	if !ok {
		return
	}

	var req models.SetElectionStatusRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Active == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "active is required")
		return
	}

	if err := h.store.SetElectionActive(r.Context(), e.ID, *req.Active); err != nil {
		writeError(w, err, "failed to update election status", "election_id", e.ID)
		return
	}
	e.Active = *req.Active

	slog.Info("election status changed", "election_id", e.ID, "active", e.Active)
	middleware.JSONResponse(w, http.StatusOK, e)
}

// SetSchedule handles PUT /elections/{id}/schedule
func (h *ElectionHandler) SetSchedule(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadElection(w, r)
	if !ok {
		return
	}

	var req models.ScheduleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if !validWindow(req.StartsAt, req.EndsAt) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "ends_at must be after starts_at")
		return
	}

	if err := h.store.SetElectionSchedule(r.Context(), e.ID, req.StartsAt, req.EndsAt); err != nil {
		writeError(w, err, "failed to update election schedule", "election_id", e.ID)
		return
	}
	h.svc.InvalidateResults(r.Context(), e.ID)
	e.StartsAt, e.EndsAt = req.StartsAt, req.EndsAt

	slog.Info("election schedule changed", "election_id", e.ID)
	middleware.JSONResponse(w, http.StatusOK, e)
}

// DeleteElection handles DELETE /elections/{id}
func (h *ElectionHandler) DeleteElection(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadElection(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteElection(r.Context(), e.ID); err != nil {
		writeError(w, err, "failed to delete election", "election_id", e.ID)
		return
	}
	h.svc.InvalidateResults(r.Context(), e.ID)

	slog.Info("election deleted", "election_id", e.ID)
	w.WriteHeader(http.StatusNoContent)
}

// CreateCategory handles POST /elections/{id}/categories
func (h *ElectionHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadElection(w, r)
	if !ok {
		return
	}

	var req models.CategoryRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	c := &models.Category{
		ElectionID:  e.ID,
		Name:        req.Name,
		Description: req.Description,
		IconURL:     req.IconURL,
		OrderIndex:  req.OrderIndex,
		Active:      req.Active == nil || *req.Active,
	}
	if err := h.store.CreateCategory(r.Context(), c); err != nil {
		writeError(w, err, "failed to insert category", "election_id", e.ID)
		return
	}
	h.svc.InvalidateResults(r.Context(), e.ID)

	slog.Info("category created", "election_id", e.ID, "category_id", c.ID)
	middleware.JSONResponse(w, http.StatusCreated, c)
}

// UpdateCategory handles PUT /elections/{id}/categories/{categoryID}
func (h *ElectionHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadElection(w, r)
	if !ok {
		return
	}

	c, err := h.store.GetCategory(r.Context(), e.ID, r.PathValue("categoryID"))
	if err != nil {
		writeError(w, err, "failed to query category", "election_id", e.ID)
		return
	}

	var req models.CategoryRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	c.Name = req.Name
	c.Description = req.Description
	c.IconURL = req.IconURL
	c.OrderIndex = req.OrderIndex
	if req.Active != nil {
		c.Active = *req.Active
	}

	if err := h.store.UpdateCategory(r.Context(), c); err != nil {
		writeError(w, err, "failed to update category", "category_id", c.ID)
		return
	}
	h.svc.InvalidateResults(r.Context(), e.ID)

	middleware.JSONResponse(w, http.StatusOK, c)
}

// DeleteCategory handles DELETE /elections/{id}/categories/{categoryID}
func (h *ElectionHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadElection(w, r)
	if !ok {
		return
	}

	categoryID := r.PathValue("categoryID")
	if err := h.store.DeleteCategory(r.Context(), e.ID, categoryID); err != nil {
		writeError(w, err, "failed to delete category", "category_id", categoryID)
		return
	}
	h.svc.InvalidateResults(r.Context(), e.ID)

	slog.Info("category deleted", "election_id", e.ID, "category_id", categoryID)
	w.WriteHeader(http.StatusNoContent)
}

// CreateCandidate handles POST /elections/{id}/candidates
func (h *ElectionHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadElection(w, r)
	if !ok {
		return
	}

	var req models.CandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	c := &models.Candidate{
		ElectionID:  e.ID,
		Name:        req.Name,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
		OrderIndex:  req.OrderIndex,
	}
	if err := h.store.CreateCandidate(r.Context(), c); err != nil {
		writeError(w, err, "failed to insert candidate", "election_id", e.ID)
		return
	}
	h.svc.InvalidateResults(r.Context(), e.ID)

	slog.Info("candidate created", "election_id", e.ID, "candidate_id", c.ID)
	middleware.JSONResponse(w, http.StatusCreated, c)
}

// UpdateCandidate handles PUT /elections/{id}/candidates/{candidateID}
func (h *ElectionHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadElection(w, r)
	if !ok {
		return
	}

	c, err := h.store.GetCandidate(r.Context(), e.ID, r.PathValue("candidateID"))
	if err != nil {
		writeError(w, err, "failed to query candidate", "election_id", e.ID)
		return
	}

	var req models.CandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	c.Name = req.Name
	c.Description = req.Description
	c.PhotoURL = req.PhotoURL
	c.OrderIndex = req.OrderIndex

	if err := h.store.UpdateCandidate(r.Context(), c); err != nil {
		writeError(w, err, "failed to update candidate", "candidate_id", c.ID)
		return
	}
	h.svc.InvalidateResults(r.Context(), e.ID)

	middleware.JSONResponse(w, http.StatusOK, c)
}

// DeleteCandidate handles DELETE /elections/{id}/candidates/{candidateID}
func (h *ElectionHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadElection(w, r)
	if !ok {
		return
	}

	candidateID := r.PathValue("candidateID")
	if err := h.store.DeleteCandidate(r.Context(), e.ID, candidateID); err != nil {
		writeError(w, err, "failed to delete candidate", "candidate_id", candidateID)
		return
	}
	h.svc.InvalidateResults(r.Context(), e.ID)

	slog.Info("candidate deleted", "election_id", e.ID, "candidate_id", candidateID)
	w.WriteHeader(http.StatusNoContent)
}
