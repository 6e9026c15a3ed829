// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package validation

import (
	"bytes"
	"fmt"
	"mime"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// scanWindow is how many leading bytes are searched for scripting markers.
const scanWindow = 1024

var safeFilenamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// scriptMarkers are rejected when found in the first scanWindow bytes.
var scriptMarkers = [][]byte{
	[]byte("<script"),
	[]byte("javascript:"),
	[]byte("vbscript:"),
	[]byte("eval("),
	[]byte("<iframe"),
	[]byte("<object"),
	[]byte("<embed"),
	[]byte("<?php"),
	[]byte("onerror="),
	[]byte("onload="),
}

// extensionsByType lists the filename extensions accepted for each MIME type.
var extensionsByType = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/webp": {".webp"},
	"image/gif":  {".gif"},
}

// FileValidator checks uploaded files before they reach the image processor.
type FileValidator struct {
	allowed map[string]bool
	maxSize int64
}

// NewFileValidator creates a validator for the given MIME allowlist and size cap.
func NewFileValidator(allowedTypes []string, maxSize int64) *FileValidator {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[normalizeMIME(t)] = true
	}
	return &FileValidator{allowed: allowed, maxSize: maxSize}
}

// MaxSize returns the configured size cap in bytes.
func (v *FileValidator) MaxSize() int64 {
	return v.maxSize
}

func normalizeMIME(t string) string {
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		t = mt
	}
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "image/jpg" || t == "image/pjpeg" {
		t = "image/jpeg"
	}
	return t
}

// Validate checks an upload held in memory. field names the form field for
// error reporting. It returns nil only if every check passes.
func (v *FileValidator) Validate(field, filename, declaredType string, data []byte) *RequestValidationError {
	declared := normalizeMIME(declaredType)

	if !v.allowed[declared] {
		return NewFieldError(field, "mimetype", fmt.Sprintf("%s must be one of the allowed image types", field))
	}
	if len(data) == 0 {
		return NewFieldError(field, "required", fmt.Sprintf("%s is empty", field))
	}
	if int64(len(data)) > v.maxSize {
		return NewFieldError(field, "max", fmt.Sprintf("%s must be at most %d bytes", field, v.maxSize))
	}
	if !mimetype.Detect(data).Is(declared) {
		return NewFieldError(field, "signature", fmt.Sprintf("%s content does not match its declared type", field))
	}
	if msg := checkFilename(filename, declared); msg != "" {
		return NewFieldError(field, "filename", fmt.Sprintf("%s %s", field, msg))
	}
	if ContainsScriptMarker(data) {
		return NewFieldError(field, "content", fmt.Sprintf("%s contains disallowed content", field))
	}
	return nil
}

func checkFilename(name, declared string) string {
	if !safeFilenamePattern.MatchString(name) {
		return "filename may contain only letters, digits, dots, underscores and hyphens"
	}
	if strings.Count(name, ".") != 1 || strings.HasPrefix(name, ".") {
		return "filename must have exactly one extension"
	}
	ext := strings.ToLower(path.Ext(name))
	for _, allowed := range extensionsByType[declared] {
		if ext == allowed {
			return ""
		}
	}
	return "filename extension does not match the file type"
}

// ContainsScriptMarker reports whether the leading bytes carry markup or
// script fragments that have no business inside an image.
func ContainsScriptMarker(data []byte) bool {
	head := data
	if len(head) > scanWindow {
		head = head[:scanWindow]
	}
	head = bytes.ToLower(head)
	for _, m := range scriptMarkers {
		if bytes.Contains(head, m) {
			return true
		}
	}
	return false
}
