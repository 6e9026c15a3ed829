// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

/*
Package entity implements the roster services behind the HTTP API.

Players, managers and trophies share one template, ImageService, which
lists rows and composes the upload pipeline for mutations:

	file validator -> image processor -> object store put -> row write

The relational row owns a reference to the image object. The two are kept
consistent with explicit compensation rather than a transaction spanning
both stores:

  - a failed insert or update deletes the object that was just uploaded
  - a successful image replace deletes the previous object
  - a deleted row takes its object with it

Compensating deletes are best-effort. Their failures are logged and
swallowed, so an orphaned object is possible but a row never points at an
object that was not uploaded.

Contacts is the simpler contact form service: validated insert and a capped
newest-first listing.
*/
package entity
