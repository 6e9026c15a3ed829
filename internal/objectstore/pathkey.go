// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package objectstore

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"
)

const (
	maxSafeNameLen = 64
	randomBytes    = 8
)

// NewKey builds a collision-resistant object key of the form
// {folder}/{unix-millis}-{random}-{safe-name}{ext}. ext replaces the
// extension of the original name because stored images are re-encoded.
func NewKey(folder, originalName, ext string, now time.Time) string {
	buf := make([]byte, randomBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand does not fail on supported platforms.
		panic(fmt.Sprintf("objectstore: read random bytes: %v", err))
	}
	base := SafeName(originalName)
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%s/%d-%s-%s%s", folder, now.UnixMilli(), hex.EncodeToString(buf), base, ext)
}

// SafeName reduces an original filename to the characters allowed in keys:
// ASCII letters, digits, dot, underscore and hyphen. Spaces become hyphens
// and any directory part is discarded. It never returns an empty string.
func SafeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), ".-")
	if len(out) > maxSafeNameLen {
		out = out[len(out)-maxSafeNameLen:]
	}
	if out == "" {
		return "image"
	}
	return out
}
