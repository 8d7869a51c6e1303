// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the qr-ballot API server.

qr-ballot runs in-person elections where each voter scans a QR code. The
scanned token opens a ballot with one contest per category; every token may
pick up to a fixed number of distinct candidates in each category. Admins
manage elections with a per-election admin key and watch live results.

# Starting the Server

The server reads CLI flags, environment variables, and an optional .env file:

	DATABASE_URL=file:ballot.db ADMIN_KEY_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -admin-salt ...

# Configuration

Required settings:

  - DATABASE_URL (-d): database connection string
  - ADMIN_KEY_SALT (-admin-salt): secret for admin keys and IP hashing

Optional settings:

  - PORT (-p): server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - PUBLIC_BASE_URL (-base-url): base of the voting URLs encoded in QR codes
  - VOTE_CAP (-vote-cap): picks per voter per category (default: 2)
  - TURNOUT_BASE (-turnout-base): active or issued sessions (default: active)
  - REDIS_URL (-redis): shared results cache; in-process cache otherwise
  - RESULTS_CACHE_TTL (-cache-ttl): results cache lifetime (default: 5s)
  - VOTE_RATE_LIMIT (-rate): voter requests per second per client (default: 5)

# Architecture

  - handlers: HTTP request handlers (elections, sessions, voter flow, results)
  - router: route definitions using Go 1.22+ routing
  - middleware: CORS, logging, rate limiting, JSON helpers
  - voting: session resolution, QR tokens, vote admission, results gate
  - tally: pure results aggregation and the polling watcher
  - store: SQL persistence for postgres and sqlite
  - cache: results cache (memory or redis)
  - report: terminal rendering used by cmd/tally
  - models, auth, db, cliparse: types, keys and tokens, schema, configuration

See package documentation for each component.
*/
package main
