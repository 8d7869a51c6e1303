// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Database connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - AdminKeySalt: Secret for admin key HMAC and IP hashing (required)
  - PublicBaseURL: Base of voting links printed into QR codes
  - VoteCap: Picks allowed per voter per category (default: 2)
  - TurnoutBase: active or issued sessions as turnout denominator (default: active)
  - RedisURL: Enables the Redis results cache when set
  - CacheTTL: Results cache lifetime (default: 5s)
  - VoteRateLimit: Voter requests per second per client (default: 5, 0 disables)
  - TrustProxy: Read client IPs from X-Forwarded-For (default: false)

# CLI Flags

	-p             Server port
	-d             Database URL
	-t             Database type
	--base-url     Public base URL
	--vote-cap     Picks per category
	--turnout-base Turnout denominator
	--redis        Redis URL
	--cache-ttl    Results cache TTL
	--rate         Voter rate limit
	--trust-proxy  Trust forwarded client IP headers
	--admin-salt   Admin key salt

# Environment Variables

Flags fall back to environment variables, which may also come from a .env
file in the working directory:

	PORT              → -p
	DATABASE_URL      → -d
	DATABASE_TYPE     → -t
	PUBLIC_BASE_URL   → --base-url
	VOTE_CAP          → --vote-cap
	TURNOUT_BASE      → --turnout-base
	REDIS_URL         → --redis
	RESULTS_CACHE_TTL → --cache-ttl
	VOTE_RATE_LIMIT   → --rate
	TRUST_PROXY       → --trust-proxy
	ADMIN_KEY_SALT    → --admin-salt

CLI flags take precedence over environment variables, including explicit
zero values: -cache-ttl 0 disables caching and -vote-cap 0 is an error.

# Tally Command

ParseTallyFlags parses the tally command (-d, -t, -e, --category, --watch,
--turnout-base). Database and turnout settings fall back to the same
DATABASE_URL, DATABASE_TYPE and TURNOUT_BASE variables as the server.
*/
package cliparse
