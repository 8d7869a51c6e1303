// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the qr-ballot API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(st, svc, cfg)

# Endpoints

Health:

	GET /health

Elections:

	POST   /elections               - Create election (returns admin_key)
	GET    /elections               - List elections
	GET    /elections/{id}          - Election with categories and candidates
	PUT    /elections/{id}          - Update details (admin)
	DELETE /elections/{id}          - Delete with everything it owns (admin)
	POST   /elections/{id}/status   - Open or close voting (admin)
	PUT    /elections/{id}/schedule - Edit the voting window (admin)

Categories and candidates (admin, requires X-Admin-Key):

	POST|PUT|DELETE /elections/{id}/categories[/{categoryID}]
	POST|PUT|DELETE /elections/{id}/candidates[/{candidateID}]

Voting sessions (admin):

	POST /elections/{id}/sessions/regenerate             - Replace the active QR code
	POST /elections/{id}/sessions/bulk                   - Issue many QR codes for printing
	GET  /elections/{id}/sessions                        - List sessions with voting URLs
	POST /elections/{id}/sessions/{sessionID}/deactivate - Revoke one QR code
	GET  /elections/{id}/sessions/{sessionID}/qr.png     - QR code image

Results:

	GET /elections/{id}/results - Admin results, always available

Voter flow (public, rate limited per client):

	GET  /voter?qrcode=...                               - Ballot for a scanned QR code
	POST /voter/vote?qrcode=...&category=...&candidate=... - Cast one pick
	GET  /voter/results?election=...&category=...       - Results when the election allows it
*/
package router
