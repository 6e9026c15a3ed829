// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/tomtom215/roster/internal/logging"
)

// recordError captures the error passed to an ErrorFunc and writes its status.
type recordError struct {
	err error
}

func (re *recordError) handle(w http.ResponseWriter, _ *http.Request, err error) {
	re.err = err
	status := http.StatusBadRequest
	if errors.Is(err, ErrPayloadTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	w.WriteHeader(status)
}

func echoBody(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			t.Errorf("read body: %v", err)
			return
		}
		_, _ = w.Write(data)
	})
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestCompression(t *testing.T) {
	t.Parallel()

	payload := strings.Repeat(`{"name":"Kai Jensen"}`, 100)
	tests := []struct {
		name        string
		accept      string
		contentType string
		wantGzip    bool
	}{
		{"json with gzip accepted", "gzip, deflate", "application/json", true},
		{"no accept header", "", "application/json", false},
		{"gzip refused with q=0", "gzip;q=0", "application/json", false},
		{"images pass through", "gzip", "image/webp", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = io.WriteString(w, payload)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/players", nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Encoding", tt.accept)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			gotGzip := rec.Header().Get("Content-Encoding") == "gzip"
			if gotGzip != tt.wantGzip {
				t.Fatalf("Content-Encoding gzip = %v, want %v", gotGzip, tt.wantGzip)
			}
			body := rec.Body.Bytes()
			if gotGzip {
				zr, err := gzip.NewReader(bytes.NewReader(body))
				if err != nil {
					t.Fatalf("gzip reader: %v", err)
				}
				body, err = io.ReadAll(zr)
				if err != nil {
					t.Fatalf("inflate: %v", err)
				}
			}
			if string(body) != payload {
				t.Errorf("body mismatch after decoding (%d bytes)", len(body))
			}
		})
	}
}

func TestCompression_NoContent(t *testing.T) {
	t.Parallel()
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodDelete, "/api/players/1", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "" || rec.Body.Len() != 0 {
		t.Errorf("204 response was encoded: %v, %d bytes", rec.Header(), rec.Body.Len())
	}
}

func TestDecompress(t *testing.T) {
	t.Parallel()

	t.Run("inflates gzip body", func(t *testing.T) {
		t.Parallel()
		re := &recordError{}
		handler := Decompress(re.handle)(echoBody(t))

		req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewReader(gzipBytes(t, []byte(`{"a":1}`))))
		req.Header.Set("Content-Encoding", "gzip")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Body.String() != `{"a":1}` || re.err != nil {
			t.Errorf("body = %q, err = %v", rec.Body.String(), re.err)
		}
	})

	t.Run("rejects non gzip body", func(t *testing.T) {
		t.Parallel()
		re := &recordError{}
		handler := Decompress(re.handle)(echoBody(t))

		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("plain text"))
		req.Header.Set("Content-Encoding", "gzip")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if !errors.Is(re.err, ErrBadContentEncoding) {
			t.Errorf("error = %v, want ErrBadContentEncoding", re.err)
		}
	})

	t.Run("limit applies to inflated size", func(t *testing.T) {
		t.Parallel()
		re := &recordError{}
		handler := Decompress(re.handle)(BodyLimit(1024, 1024, re.handle)(echoBody(t)))

		big := gzipBytes(t, []byte(`{"x":"`+strings.Repeat("a", 4096)+`"}`))
		req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewReader(big))
		req.Header.Set("Content-Encoding", "gzip")
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge || !errors.Is(re.err, ErrPayloadTooLarge) {
			t.Errorf("status = %d, err = %v; want 413 and ErrPayloadTooLarge", rec.Code, re.err)
		}
	})
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	const limit = 64
	tests := []struct {
		name        string
		body        string
		contentType string
		chunked     bool
		wantStatus  int
		wantErr     error
	}{
		{"small json passes", `{"name":"Mia"}`, "application/json", false, http.StatusOK, nil},
		{"declared oversize json", `{"x":"` + strings.Repeat("a", 100) + `"}`, "application/json", false, http.StatusRequestEntityTooLarge, ErrPayloadTooLarge},
		{"chunked oversize json", `{"x":"` + strings.Repeat("a", 100) + `"}`, "application/json; charset=utf-8", true, http.StatusRequestEntityTooLarge, ErrPayloadTooLarge},
		{"oversize multipart fails on read", strings.Repeat("b", 100), "multipart/form-data; boundary=x", true, http.StatusRequestEntityTooLarge, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			re := &recordError{}
			handler := BodyLimit(limit, limit, re.handle)(echoBody(t))

			var body io.Reader = strings.NewReader(tt.body)
			if tt.chunked {
				// Hide the length so the request is sent without Content-Length.
				body = io.MultiReader(body)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/contact", body)
			req.Header.Set("Content-Type", tt.contentType)
			if tt.chunked {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !errors.Is(re.err, tt.wantErr) {
				t.Errorf("error = %v, want %v", re.err, tt.wantErr)
			}
			if tt.wantStatus == http.StatusOK && rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	for _, hsts := range []bool{false, true} {
		handler := SecurityHeaders(SecurityHeadersConfig{
			HSTS:       hsts,
			CDNOrigins: []string{"https://res.cloudinary.com"},
		})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		h := rec.Header()

		if h.Get("X-Content-Type-Options") != "nosniff" || h.Get("X-Frame-Options") != "DENY" {
			t.Errorf("missing hardening headers: %v", h)
		}
		if h.Get("Referrer-Policy") == "" {
			t.Error("missing Referrer-Policy")
		}
		if got := h.Get("Strict-Transport-Security") != ""; got != hsts {
			t.Errorf("HSTS present = %v, want %v", got, hsts)
		}
		csp := h.Get("Content-Security-Policy")
		if !strings.Contains(csp, "img-src 'self' data: blob: https://res.cloudinary.com") {
			t.Errorf("CSP %q does not allow the CDN for images", csp)
		}
		if !strings.Contains(csp, "frame-ancestors 'none'") {
			t.Errorf("CSP %q missing frame-ancestors", csp)
		}
	}
}

func TestSuspiciousRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		target   string
		body     string
		ua       string
		wantTags []string
	}{
		{"clean request", "/api/players", `{"name":"Kai"}`, "Mozilla/5.0", nil},
		{"sql injection in query", "/api/players?id=1%20UNION%20SELECT%20password", "", "Mozilla/5.0", []string{"sql_injection"}},
		{"xss in body", "/api/contact", `{"name":"<script>alert(1)</script>"}`, "Mozilla/5.0", []string{"xss_attempt"}},
		{"scanner agent", "/api/players", "", "sqlmap/1.7", []string{"suspicious_user_agent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var logs bytes.Buffer
			security := logging.NewSecurityLoggerWithLogger(zerolog.New(&logs))
			handler := SuspiciousRequests(security)(echoBody(t))

			method := http.MethodGet
			var body io.Reader
			if tt.body != "" {
				method = http.MethodPost
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(method, tt.target, body)
			req.Header.Set("User-Agent", tt.ua)
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Body.String() != tt.body {
				t.Errorf("body not restored: %q", rec.Body.String())
			}
			if len(tt.wantTags) == 0 {
				if logs.Len() != 0 {
					t.Errorf("unexpected security log: %s", logs.String())
				}
				return
			}
			for _, tag := range tt.wantTags {
				if !strings.Contains(logs.String(), tag) {
					t.Errorf("security log %q missing tag %s", logs.String(), tag)
				}
			}
			if !strings.Contains(logs.String(), `"event":"suspicious_request"`) {
				t.Errorf("security log %q missing event name", logs.String())
			}
		})
	}
}

func TestRequestLog_CapturesStatus(t *testing.T) {
	t.Parallel()

	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	rec.WriteHeader(http.StatusTeapot)
	rec.WriteHeader(http.StatusOK)
	if _, err := rec.Write([]byte("short and stout")); err != nil {
		t.Fatal(err)
	}
	if rec.statusCode != http.StatusTeapot || rec.bytes != 15 {
		t.Errorf("recorded %d / %d bytes, want 418 / 15", rec.statusCode, rec.bytes)
	}

	handler := RequestLog(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	out := httptest.NewRecorder()
	handler.ServeHTTP(out, httptest.NewRequest(http.MethodPost, "/api/contact", nil))
	if out.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", out.Code)
	}
}
