// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package database

import "testing"

func TestParseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url     string
		dialect Dialect
		driver  string
		dsn     string
		memory  bool
		wantErr bool
	}{
		{url: "postgres://u:p@db:5432/roster", dialect: DialectPostgres, driver: "pgx", dsn: "postgres://u:p@db:5432/roster"},
		{url: "postgresql://db/roster?sslmode=require", dialect: DialectPostgres, driver: "pgx", dsn: "postgresql://db/roster?sslmode=require"},
		{url: "sqlite://data/roster.db", dialect: DialectSQLite, driver: "sqlite", dsn: "data/roster.db?" + sqlitePragmas},
		{url: "sqlite://file:t?mode=memory&cache=shared", dialect: DialectSQLite, driver: "sqlite", dsn: "file:t?mode=memory&cache=shared&" + sqlitePragmas, memory: true},
		{url: ":memory:", dialect: DialectSQLite, driver: "sqlite", dsn: ":memory:?" + sqlitePragmas, memory: true},
		{url: "", wantErr: true},
		{url: "mysql://root@db/roster", wantErr: true},
	}

	for _, tt := range tests {
		src, err := parseURL(tt.url)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseURL(%q) expected error", tt.url)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseURL(%q): %v", tt.url, err)
			continue
		}
		if src.dialect != tt.dialect || src.driver != tt.driver || src.dsn != tt.dsn || src.memory != tt.memory {
			t.Errorf("parseURL(%q) = %+v", tt.url, src)
		}
	}
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"postgres://user:secret@db/roster": "postgres://user:****@db/roster",
		"postgres://user@db/roster":        "postgres://user@db/roster",
		"mysql://db/roster":                "mysql://db/roster",
	}
	for in, want := range tests {
		if got := redactURL(in); got != want {
			t.Errorf("redactURL(%q) = %q, want %q", in, got, want)
		}
	}
}
