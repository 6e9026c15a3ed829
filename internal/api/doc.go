// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

/*
Package api provides the HTTP surface of the team website backend.

# Routes

Public:
  - GET  /health: liveness and database ping
  - GET  /api/players, /api/managers, /api/trophies: newest first, capped
  - POST /api/contact: JSON contact submission
  - POST /api/admin/login, /api/admin/logout, GET /api/admin/status

Admin session required:
  - POST   /api/{players,managers,trophies}: multipart create with optional image
  - PUT    /api/{players,managers,trophies}/{id}/image: replace the image
  - DELETE /api/{players,managers,trophies}/{id}
  - GET    /api/registered-users: contact submissions

# Middleware

The global chain is RealIP, correlation id, request log, panic recovery,
gzip request inflate, gzip response compression, security headers and CORS.
The /api group adds the per-IP rate limit, body size limits, suspicious
request logging, session resolution and the Origin check for unsafe
methods.

# Errors

Every failure is rendered by ErrorWriter as

	{"error": {"code": "...", "message": "...", "details": ..., "correlationId": "..."}}

with the status chosen by the error kind. Handlers never write error
bodies themselves.
*/
package api
