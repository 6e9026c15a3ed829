// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package objectstore

import (
	"testing"

	"github.com/tomtom215/roster/internal/config"
)

func TestCloudinaryKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		key  string
		want bool
	}{
		{"https://res.cloudinary.com/team/image/upload/v1712345678/players/1-ab-kai.webp", "players/1-ab-kai.webp", true},
		{"https://res.cloudinary.com/team/image/upload/players/1-ab-kai.webp", "players/1-ab-kai.webp", true},
		{"https://res.cloudinary.com/team/image/upload/v1/trophies/2-cd-cup.webp?_a=x", "trophies/2-cd-cup.webp", true},
		{"https://example.com/media/players/1.webp", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		key, ok := cloudinaryKey(tt.url)
		if key != tt.key || ok != tt.want {
			t.Errorf("cloudinaryKey(%q) = %q, %v", tt.url, key, ok)
		}
	}
}

func TestPublicID(t *testing.T) {
	t.Parallel()

	if got := publicID("players/1-ab-kai.webp"); got != "players/1-ab-kai" {
		t.Errorf("publicID = %q", got)
	}
}

func TestTransientMessage(t *testing.T) {
	t.Parallel()

	if !transientMessage("Rate Limit Exceeded") {
		t.Error("rate limit should be transient")
	}
	if transientMessage("Invalid image file") {
		t.Error("invalid image should be permanent")
	}
}

func TestNewCloudinary(t *testing.T) {
	t.Parallel()

	if _, err := NewCloudinary(config.CloudinaryConfig{CloudName: "team"}); err == nil {
		t.Error("incomplete credentials should fail")
	}

	c, err := NewCloudinary(config.CloudinaryConfig{CloudName: "team", APIKey: "key", APISecret: "secret"})
	if err != nil {
		t.Fatalf("NewCloudinary: %v", err)
	}
	if c.Name() != "cloudinary" {
		t.Errorf("Name() = %q", c.Name())
	}
}
