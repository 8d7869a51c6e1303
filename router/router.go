// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/qr-ballot/cliparse"
	"github.com/danielhkuo/qr-ballot/handlers"
	"github.com/danielhkuo/qr-ballot/middleware"
	"github.com/danielhkuo/qr-ballot/store"
	"github.com/danielhkuo/qr-ballot/voting"
)

func NewRouter(st *store.Store, svc *voting.Service, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(st, svc, cfg)
	sessionHandler := handlers.NewSessionHandler(svc, cfg)
	voterHandler := handlers.NewVoterHandler(svc, cfg)
	resultsHandler := handlers.NewResultsHandler(svc, cfg)

	// Voter routes are public and rate limited per client
	limiter := middleware.NewRateLimiter(cfg.VoteRateLimit, cfg.TrustProxy)
	voter := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.WithRateLimit(limiter, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Elections
	mux.HandleFunc("POST /elections", middleware.WithLogging(electionHandler.CreateElection))
	mux.HandleFunc("GET /elections", middleware.WithLogging(electionHandler.ListElections))
	mux.HandleFunc("GET /elections/{id}", middleware.WithLogging(electionHandler.GetElection))
	mux.HandleFunc("PUT /elections/{id}", middleware.WithLogging(electionHandler.UpdateElection))
	mux.HandleFunc("DELETE /elections/{id}", middleware.WithLogging(electionHandler.DeleteElection))
	mux.HandleFunc("POST /elections/{id}/status", middleware.WithLogging(electionHandler.SetStatus))
	mux.HandleFunc("PUT /elections/{id}/schedule", middleware.WithLogging(electionHandler.SetSchedule))

	// Categories and candidates (admin)
	mux.HandleFunc("POST /elections/{id}/categories", middleware.WithLogging(electionHandler.CreateCategory))
	mux.HandleFunc("PUT /elections/{id}/categories/{categoryID}", middleware.WithLogging(electionHandler.UpdateCategory))
	mux.HandleFunc("DELETE /elections/{id}/categories/{categoryID}", middleware.WithLogging(electionHandler.DeleteCategory))
	mux.HandleFunc("POST /elections/{id}/candidates", middleware.WithLogging(electionHandler.CreateCandidate))
	mux.HandleFunc("PUT /elections/{id}/candidates/{candidateID}", middleware.WithLogging(electionHandler.UpdateCandidate))
	mux.HandleFunc("DELETE /elections/{id}/candidates/{candidateID}", middleware.WithLogging(electionHandler.DeleteCandidate))

	// Voting sessions (admin)
	mux.HandleFunc("POST /elections/{id}/sessions/regenerate", middleware.WithLogging(sessionHandler.Regenerate))
	mux.HandleFunc("POST /elections/{id}/sessions/bulk", middleware.WithLogging(sessionHandler.Bulk))
	mux.HandleFunc("GET /elections/{id}/sessions", middleware.WithLogging(sessionHandler.List))
	mux.HandleFunc("POST /elections/{id}/sessions/{sessionID}/deactivate", middleware.WithLogging(sessionHandler.Deactivate))
	mux.HandleFunc("GET /elections/{id}/sessions/{sessionID}/qr.png", middleware.WithLogging(sessionHandler.QRCode))

	// Results (admin)
	mux.HandleFunc("GET /elections/{id}/results", middleware.WithLogging(resultsHandler.AdminResults))

	// Voter flow (public, keyed by the scanned QR token)
	mux.HandleFunc("GET /voter", voter(voterHandler.GetBallot))
	mux.HandleFunc("POST /voter/vote", voter(voterHandler.CastVote))
	mux.HandleFunc("GET /voter/results", voter(resultsHandler.PublicResults))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("qr-ballot API v1"))
	})

	return mux
}
