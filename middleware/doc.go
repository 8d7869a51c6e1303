// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status, duration_ms).

# Rate Limiting

Voter routes are wrapped with a per-client token bucket
(golang.org/x/time/rate), keyed by GetClientIP:

	limiter := middleware.NewRateLimiter(cfg.VoteRateLimit, cfg.TrustProxy)
	mux.HandleFunc("POST /voter/vote", middleware.WithRateLimit(limiter, h.CastVote))

The burst is twice the per-second rate. Requests over budget get 429 with
Retry-After. A rate of 0 disables limiting. Buckets idle for ten minutes are
dropped by a scan that runs at most once a minute.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Admin-Key.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies:

	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the client IP:

	ip := middleware.GetClientIP(r, cfg.TrustProxy)

Without TrustProxy the peer address is used and forwarded headers are
ignored. With it, the last X-Forwarded-For hop (the one appended by the
proxy) wins, then X-Real-IP.

Used for rate limiting and for the salted IP hash stored with each vote.
*/
package middleware
