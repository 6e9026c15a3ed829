// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package api

import (
	"net/http"

	"github.com/tomtom215/roster/internal/entity"
	"github.com/tomtom215/roster/internal/validation"
)

type contactHandlers struct {
	svc     *entity.Contacts
	onError func(http.ResponseWriter, *http.Request, error)
}

// Submit handles POST /api/contact.
func (h *contactHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var in validation.ContactInput
	if verr := validation.DecodeJSON(r.Body, &in); verr != nil {
		h.onError(w, r, verr)
		return
	}

	id, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.onError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, CreatedResponse{ID: id, Message: "Contact submitted successfully"})
}

// List handles GET /api/registered-users. Admin only.
func (h *contactHandlers) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.svc.List(r.Context())
	if err != nil {
		h.onError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, contacts)
}
