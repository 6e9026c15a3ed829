// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/roster/internal/logging"
)

// MessageResponse is the body of mutations that return no record.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreatedResponse is returned by successful creates.
type CreatedResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// ImageResponse is returned by a successful image replace.
type ImageResponse struct {
	Message  string `json:"message"`
	ImageURL string `json:"imageUrl"`
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.CtxError(r.Context()).Err(err).Msg("Failed to encode response")
	}
}
