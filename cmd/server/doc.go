// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

/*
Command server runs the team website backend.

Startup order:

 1. Configuration: koanf v2 (defaults, optional config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. Database: pgx or SQLite through the query gateway, schema and bootstrap admin
 4. Session store: database, BadgerDB or memory
 5. Object store: Cloudinary, S3-compatible or memory, behind a circuit breaker
 6. Image processor and upload validator
 7. Record services, login service, session manager
 8. Supervisor tree: HTTP server and pruners

# Configuration

	NODE_ENV=production           # development, production or test
	PORT=3000
	DATABASE_URL=postgres://...   # or sqlite://roster.db
	SESSION_SECRET=<32+ chars>
	DEFAULT_ADMIN_USERNAME=admin
	DEFAULT_ADMIN_PASSWORD=<password>
	OBJECT_STORE=cloudinary       # cloudinary, s3 or memory
	CLOUDINARY_CLOUD_NAME=...
	CLOUDINARY_API_KEY=...
	CLOUDINARY_API_SECRET=...
	CORS_ORIGINS=https://team.example.com
	LOG_LEVEL=info
	LOG_FORMAT=json

Outside production a missing Cloudinary account selects the in-memory store,
whose objects are served under /media/.

# Signals

SIGINT and SIGTERM stop accepting connections and drain in-flight requests
for SHUTDOWN_TIMEOUT (default 10s). A panic during startup or shutdown exits
with status 1.
*/
package main
