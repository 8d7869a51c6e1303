// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting implements the voter flow: resolving a scanned QR token,
admitting picks, issuing sessions and serving results.

# Sessions

A voting session is one scannable ballot-access token. ResolveSession fails
with ErrSessionNotFound, ErrSessionInactive or ErrSessionExpired; any of them
ends the scan attempt.

Sessions are issued two ways:

  - RegenerateSession deactivates every active session of the election and
    issues one new session, so exactly one is active afterwards
  - IssueSessions adds any number of active sessions for bulk printing

Tokens look like <election id>-<unix millis>-<random>; the random suffix keeps
tokens minted in the same millisecond distinct.

# Admission

For a given (election, category, voter token) a voter may pick at most
VoteCap distinct candidates. A repeated candidate is rejected with
ErrCandidateAlreadyChosen and a pick past the cap with ErrBallotUsed; both
match errors.Is(err, ErrDuplicateVote).

The rule is enforced by the database, not by the read that precedes the
insert. Each vote occupies a slot in [0, VoteCap) and the vote table is unique
on (election, category, token, candidate) and on (election, category, token,
slot). Admit picks the first free slot, inserts, and on a unique violation
re-reads the prior votes and tries again. Two concurrent requests for the same
token can never both take the last slot or both record the same candidate.

Categories are independent: a voter's picks in one category never count
against another. When an election has no active categories, votes are cast
without a category and form a single scope.

# Results

Results are computed by package tally and cached per election when a
cache.ResultsCache is configured. Every recorded vote and every session change
invalidates the cached copy. The countdown and the selected category are
applied per request on top of the cached tally.
*/
package voting
