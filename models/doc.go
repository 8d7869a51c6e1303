// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateElectionRequest: title, description, banner_url, time window, results flag
  - UpdateElectionRequest: partial update of the same fields
  - SetElectionStatusRequest: active
  - ScheduleRequest: starts_at, ends_at
  - CategoryRequest, CandidateRequest: name, description, media, order_index
  - IssueSessionsRequest: count, expires_in_minutes

# Response Types

  - CreateElectionResponse: election_id, admin_key
  - IssuedSession: session plus its voting URL
  - Ballot: resolved session with election, categories, candidates and prior picks
  - CastVoteResponse: recorded vote and remaining picks
  - ElectionResults: per-category rankings and turnout
  - ErrorResponse: error, message

# Domain Types

  - Election: a voting event with a time window and two flags (active, allow_view_results)
  - Category: optional sub-contest of an election
  - Candidate: visible in every category of its election
  - VotingSession: an issued QR token; the token doubles as the voter's identity
  - Vote: append-only pick, keyed by (election, category, voter token, candidate)

Votes without a category use the empty string as their CategoryKey so that
uniqueness constraints hold for uncategorised elections too.
*/
package models
