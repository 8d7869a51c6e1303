// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides authentication and token generation utilities.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(electionID, salt)
	err := auth.ValidateAdminKey(electionID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same election ID and salt always produce the same key. This allows
validation without storing the key in the database.

# Session Tokens

Session tokens are the payload printed into QR codes:

	token, err := auth.GenerateSessionToken(electionID, time.Now())
	link := auth.VotingURL(cfg.PublicBaseURL, token)

A token is the election ID, the mint time in Unix milliseconds and a random
base62 suffix. The token also serves as the voter's pseudonymous identity when
votes are de-duplicated.

# ID Generation

Random hex IDs for elections:

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

Votes record a salted hash of the client address, never the address itself:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
