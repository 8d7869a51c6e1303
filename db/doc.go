// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates its schema.

# Connecting

Open accepts the configured database type and URL:

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

"postgres" uses github.com/lib/pq. "sqlite" uses modernc.org/sqlite, turns on
foreign keys through the _pragma DSN parameter and limits the pool to a single
connection so in-memory databases stay consistent.

# Schema Creation

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - election: title, media, time window, active and allow_view_results flags
  - category: optional sub-contests, ordered by order_index
  - candidate: per-election candidates, ordered by order_index
  - voting_session: issued QR tokens (qr_code is unique)
  - vote: append-only picks

# Relationships

	election 1──* category
	election 1──* candidate
	election 1──* voting_session
	election 1──* vote
	category 1──* vote (nullable)
	candidate 1──* vote

All foreign keys use ON DELETE CASCADE.

# Vote Admission Constraints

Two unique constraints make double voting impossible regardless of
request interleaving:

	UNIQUE (election_id, category_key, voter_token, candidate_id)
	UNIQUE (election_id, category_key, voter_token, slot)

category_key is the category id, or '' for uncategorised votes, because NULLs
never collide in a unique constraint. slot is bounded by the configured vote cap
at insert time, so the second constraint caps the number of picks.
*/
package db
