// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package api

import (
	"net/http"
	"net/url"

	"github.com/tomtom215/roster/internal/entity"
	"github.com/tomtom215/roster/internal/validation"
)

// imageHandlers serves list, create, update-image and delete for one
// image-bearing record type.
type imageHandlers[T, In any] struct {
	svc      *entity.ImageService[T, In]
	label    string
	fromForm func(url.Values) (In, *validation.RequestValidationError)
	maxFile  int64
	onError  func(http.ResponseWriter, *http.Request, error)
}

// List handles GET /api/{records}.
func (h *imageHandlers[T, In]) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.List(r.Context())
	if err != nil {
		h.onError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, records)
}

// Create handles POST /api/{records}.
func (h *imageHandlers[T, In]) Create(w http.ResponseWriter, r *http.Request) {
	values, upload, err := readForm(r, entity.DefaultImageField, h.maxFile)
	if err != nil {
		h.onError(w, r, err)
		return
	}

	in, verr := h.fromForm(values)
	if verr != nil {
		h.onError(w, r, verr)
		return
	}

	id, err := h.svc.Create(r.Context(), in, upload)
	if err != nil {
		h.onError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, CreatedResponse{ID: id, Message: h.label + " created successfully"})
}

// UpdateImage handles PUT /api/{records}/{id}/image.
func (h *imageHandlers[T, In]) UpdateImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.onError(w, r, err)
		return
	}

	_, upload, err := readForm(r, entity.DefaultImageField, h.maxFile)
	if err != nil {
		h.onError(w, r, err)
		return
	}

	imageURL, err := h.svc.UpdateImage(r.Context(), id, upload)
	if err != nil {
		h.onError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, ImageResponse{Message: h.label + " image updated successfully", ImageURL: imageURL})
}

// Delete handles DELETE /api/{records}/{id}.
func (h *imageHandlers[T, In]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.onError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.onError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, MessageResponse{Message: h.label + " deleted successfully"})
}
