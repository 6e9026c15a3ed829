// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package middleware

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/tomtom215/roster/internal/logging"
)

// ErrBadContentEncoding is passed to the error handler when a request body
// claims gzip encoding but is not a gzip stream.
var ErrBadContentEncoding = errors.New("request body is not valid gzip")

// ErrorFunc writes an error response in the caller's format.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// gzipResponseWriter decides on the first write whether the response is
// worth compressing. Already compressed payloads (images) pass through.
type gzipResponseWriter struct {
	http.ResponseWriter
	gz          *gzip.Writer
	decided     bool
	compressing bool
}

func (w *gzipResponseWriter) decide(status int) {
	if w.decided {
		return
	}
	w.decided = true

	h := w.Header()
	ct := h.Get("Content-Type")
	if status < 200 || status == http.StatusNoContent || status == http.StatusNotModified ||
		h.Get("Content-Encoding") != "" || strings.HasPrefix(ct, "image/") {
		return
	}
	w.compressing = true
	w.gz.Reset(w.ResponseWriter)
	h.Set("Content-Encoding", "gzip")
	h.Del("Content-Length")
}

func (w *gzipResponseWriter) WriteHeader(status int) {
	w.decide(status)
	w.ResponseWriter.WriteHeader(status)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.decided {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	if w.compressing {
		return w.gz.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *gzipResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

// Compression gzips responses for clients that send Accept-Encoding: gzip.
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Encoding")
		if r.Method == http.MethodHead || !acceptsGzip(r.Header.Get("Accept-Encoding")) {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzipWriterPool.Get().(*gzip.Writer)
		gzw := &gzipResponseWriter{ResponseWriter: w, gz: gz}
		defer func() {
			if gzw.compressing {
				if err := gz.Close(); err != nil {
					logging.CtxDebug(r.Context()).Err(err).Msg("Failed to flush gzip response")
				}
			}
			gz.Reset(io.Discard)
			gzipWriterPool.Put(gz)
		}()

		next.ServeHTTP(gzw, r)
	})
}

func acceptsGzip(header string) bool {
	for _, part := range strings.Split(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			continue
		}
		return strings.ReplaceAll(strings.TrimSpace(params), " ", "") != "q=0"
	}
	return false
}

// Decompress inflates request bodies sent with Content-Encoding: gzip.
// Place BodyLimit after it so the limit applies to the inflated size.
func Decompress(onError ErrorFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.EqualFold(strings.TrimSpace(r.Header.Get("Content-Encoding")), "gzip") ||
				r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			zr, err := gzip.NewReader(r.Body)
			if err != nil {
				logging.CtxDebug(r.Context()).Err(err).Msg("Rejected gzip request body")
				onError(w, r, ErrBadContentEncoding)
				return
			}
			defer zr.Close()

			r.Body = struct {
				io.Reader
				io.Closer
			}{zr, r.Body}
			r.Header.Del("Content-Encoding")
			r.Header.Del("Content-Length")
			r.ContentLength = -1
			next.ServeHTTP(w, r)
		})
	}
}
