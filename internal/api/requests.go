// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/roster/internal/entity"
	"github.com/tomtom215/roster/internal/validation"
)

// errMalformedBody is returned for bodies that cannot be parsed at all.
var errMalformedBody = errors.New("request body is malformed")

const (
	// maxFormValueBytes caps each non-file multipart field.
	maxFormValueBytes = 64 << 10
	// maxFormParts caps the number of multipart parts read.
	maxFormParts = 32
)

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.NewFieldError("id", "id", "id must be a positive integer")
	}
	return id, nil
}

// readForm reads a multipart or urlencoded body into memory. The file part
// named fileField, if present, is returned as an Upload of at most maxFile
// bytes; other file parts are rejected. Nothing is written to disk.
func readForm(r *http.Request, fileField string, maxFile int64) (url.Values, *entity.Upload, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, nil, validation.NewFieldError("body", "content_type", "body must be multipart/form-data")
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", errMalformedBody, err)
		}
		return r.PostForm, nil, nil
	case "multipart/form-data":
	default:
		return nil, nil, validation.NewFieldError("body", "content_type", "body must be multipart/form-data")
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", errMalformedBody, err)
	}

	values := url.Values{}
	var upload *entity.Upload
	for parts := 0; ; parts++ {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, bodyError(err)
		}
		if parts >= maxFormParts {
			_ = part.Close()
			return nil, nil, validation.NewFieldError("body", "max", "too many form fields")
		}

		name := part.FormName()
		if part.FileName() == "" {
			data, err := io.ReadAll(io.LimitReader(part, maxFormValueBytes+1))
			_ = part.Close()
			if err != nil {
				return nil, nil, bodyError(err)
			}
			if len(data) > maxFormValueBytes {
				return nil, nil, validation.NewFieldError(name, "max", fmt.Sprintf("%s is too long", name))
			}
			values.Add(name, string(data))
			continue
		}

		if name != fileField || upload != nil {
			_ = part.Close()
			return nil, nil, validation.NewFieldError(name, "unexpected", fmt.Sprintf("unexpected file field %s", name))
		}
		data, err := io.ReadAll(io.LimitReader(part, maxFile+1))
		_ = part.Close()
		if err != nil {
			return nil, nil, bodyError(err)
		}
		if int64(len(data)) > maxFile {
			return nil, nil, validation.NewFieldError(name, "max", fmt.Sprintf("%s must be at most %d bytes", name, maxFile))
		}
		if len(data) == 0 {
			// An empty file input means no file was chosen.
			continue
		}
		upload = &entity.Upload{
			Field:       name,
			Filename:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Data:        data,
		}
	}
	return values, upload, nil
}

// bodyError keeps body-size failures recognizable and marks the rest malformed.
func bodyError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return err
	}
	return fmt.Errorf("%w: %w", errMalformedBody, err)
}
