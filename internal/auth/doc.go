// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

/*
Package auth provides admin authentication for Roster.

Sessions are server-side records keyed by an opaque id. The id travels in a
cookie signed with SESSION_SECRET (gorilla/securecookie); the session state
itself never leaves the server.

Key Components:

  - SessionStore: persistence for sessions. Backends are the relational
    database (default), BadgerDB and an in-process map.
  - SessionManager: resolves the session for each request, renews the cookie
    (rolling expiry), rotates ids on login and guards admin routes.
  - Service: username/password login against the admins table with bcrypt,
    a minimum response time and a per-IP failed-login limiter.
  - Handlers: POST /api/admin/login, POST /api/admin/logout and
    GET /api/admin/status.
  - OriginCheck: refuses mutating cross-origin requests from untrusted origins.

Session State:

A session is either anonymous or admin. Admin state records the admin id and
the login time. Anonymous sessions are not persisted; a row is written only
when a login promotes the session.

Failed Logins:

Only failed attempts count against the login limiter. Once an IP reaches the
configured number of failures inside the window, further attempts are refused
with ErrLoginRateLimited until the window ends, whether or not the
credentials are correct.
*/
package auth
