// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

// Package services adapts server components to the suture.Service
// interface: the HTTP server and periodic maintenance tasks.
package services
