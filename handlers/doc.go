// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the qr-ballot API.

# Handler Types

Each handler is a struct built by a constructor that takes its dependencies:

  - ElectionHandler: elections, categories, and candidates
  - SessionHandler: QR voting sessions, bulk issuance, and QR images
  - VoterHandler: ballot lookup and vote casting by scanned token
  - ResultsHandler: public and admin results

Business rules live in the voting package; handlers parse requests, check
the admin key, and map domain errors to status codes:

	electionHandler := handlers.NewElectionHandler(st, svc, cfg)
	voterHandler := handlers.NewVoterHandler(svc, cfg)

# Admin Operations

Admin routes take the election ID from the path and require the X-Admin-Key
header returned when the election was created. Every mutation drops the
cached results of the election.

# Voter Flow

Voters never authenticate. The qrcode query parameter carries the session
token printed in the QR code:

	GET  /voter?qrcode=...                               → GetBallot
	POST /voter/vote?qrcode=...&category=...&candidate=... → CastVote

A token may pick a limited number of distinct candidates per category.
Rejected picks answer 409 with a message saying whether the ballot is used
up or the candidate was already chosen.

# Error Mapping

	404 unknown session, election, category, candidate
	410 inactive or expired session
	409 election closed or ended, duplicate vote
	403 results withheld from the public
	500 anything else, logged and reported as "Database error"
*/
package handlers
