// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package objectstore

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultMemoryBaseURL is the URL prefix under which the memory store's
// handler is mounted.
const DefaultMemoryBaseURL = "/media/"

type memoryObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// Memory is a volatile in-process store for development and tests. Its
// objects are served by ServeHTTP so returned URLs dereference.
type Memory struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemory creates an empty store whose URLs start with baseURL.
func NewMemory(baseURL string) *Memory {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Memory{baseURL: baseURL, objects: make(map[string]memoryObject)}
}

// Name implements Store.
func (m *Memory) Name() string { return "memory" }

// Put implements Store.
func (m *Memory) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &Error{Op: "put", Key: key, Transient: true, Err: err}
	}
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	m.objects[key] = memoryObject{data: cp, contentType: contentType, modified: time.Now()}
	m.mu.Unlock()

	return m.baseURL + key, nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return &Error{Op: "delete", Key: key, Transient: true, Err: err}
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// KeyFromURL implements Store.
func (m *Memory) KeyFromURL(url string) (string, bool) {
	if i := strings.Index(url, m.baseURL); i >= 0 {
		if key := url[i+len(m.baseURL):]; key != "" {
			return key, true
		}
	}
	return "", false
}

// Get returns a copy of the object stored under key.
func (m *Memory) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", false
	}
	cp := make([]byte, len(obj.data))
	copy(cp, obj.data)
	return cp, obj.contentType, true
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// ServeHTTP serves stored objects by URL path. Mount it at the base URL
// without stripping the prefix.
func (m *Memory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	key, ok := m.KeyFromURL(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	m.mu.RLock()
	obj, found := m.objects[key]
	m.mu.RUnlock()
	if !found {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", obj.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Last-Modified", obj.modified.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(obj.data)
	}
}
