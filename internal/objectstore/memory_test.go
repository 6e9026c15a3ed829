// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMemory_PutGetDelete(t *testing.T) {
	t.Parallel()

	m := NewMemory("/media")
	ctx := context.Background()
	data := []byte("RIFF....WEBP")

	url, err := m.Put(ctx, "players/1-abc-photo.webp", data, "image/webp")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "/media/players/1-abc-photo.webp" {
		t.Errorf("url = %q", url)
	}

	data[0] = 'X' // stored bytes are a copy
	got, ct, ok := m.Get("players/1-abc-photo.webp")
	if !ok || string(got) != "RIFF....WEBP" || ct != "image/webp" {
		t.Errorf("Get = %q, %q, %v", got, ct, ok)
	}

	key, ok := m.KeyFromURL(url)
	if !ok || key != "players/1-abc-photo.webp" {
		t.Errorf("KeyFromURL = %q, %v", key, ok)
	}

	if err := m.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := m.Delete(ctx, key); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d after delete", m.Len())
	}
}

func TestMemory_CanceledContext(t *testing.T) {
	t.Parallel()

	m := NewMemory(DefaultMemoryBaseURL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Put(ctx, "k", []byte("x"), "image/webp")
	if !IsTransient(err) {
		t.Errorf("Put on canceled context: %v", err)
	}
	if m.Len() != 0 {
		t.Error("nothing should be stored")
	}
}

func TestMemory_KeyFromURL(t *testing.T) {
	t.Parallel()

	m := NewMemory(DefaultMemoryBaseURL)
	tests := []struct {
		url  string
		key  string
		want bool
	}{
		{"/media/trophies/1-a-cup.webp", "trophies/1-a-cup.webp", true},
		{"https://example.com/media/managers/2-b-x.webp", "managers/2-b-x.webp", true},
		{"/media/", "", false},
		{"https://res.cloudinary.com/x/image/upload/a.webp", "", false},
	}
	for _, tt := range tests {
		key, ok := m.KeyFromURL(tt.url)
		if key != tt.key || ok != tt.want {
			t.Errorf("KeyFromURL(%q) = %q, %v", tt.url, key, ok)
		}
	}
}

func TestMemory_ServeHTTP(t *testing.T) {
	t.Parallel()

	m := NewMemory(DefaultMemoryBaseURL)
	url, err := m.Put(context.Background(), "players/1-a-p.webp", []byte("webp-bytes"), "image/webp")
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(m)
	defer srv.Close()

	resp, err := http.Get(srv.URL + url)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "webp-bytes" {
		t.Errorf("GET = %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("Content-Type") != "image/webp" {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}

	key, _ := m.KeyFromURL(url)
	_ = m.Delete(context.Background(), key)

	resp, err = http.Get(srv.URL + url)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodPost, url, nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST = %d, want 405", rec.Code)
	}
}
