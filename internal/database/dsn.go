// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package database

import (
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

// Dialect identifies the SQL flavor behind a gateway.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// sqlitePragmas are applied to every SQLite connection.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// dataSource is a parsed DATABASE_URL.
type dataSource struct {
	dialect Dialect
	driver  string
	dsn     string
	memory  bool
}

// parseURL maps a DATABASE_URL onto a database/sql driver name and DSN.
func parseURL(raw string) (dataSource, error) {
	url := strings.TrimSpace(raw)
	switch {
	case url == "":
		return dataSource{}, fmt.Errorf("database url is empty")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return dataSource{dialect: DialectPostgres, driver: "pgx", dsn: url}, nil
	case strings.HasPrefix(url, "sqlite://"):
		return sqliteSource(strings.TrimPrefix(url, "sqlite://")), nil
	case strings.HasPrefix(url, "file:"), url == ":memory:":
		return sqliteSource(url), nil
	default:
		return dataSource{}, fmt.Errorf("unsupported database url scheme in %q", redactURL(url))
	}
}

func sqliteSource(dsn string) dataSource {
	memory := dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dataSource{
		dialect: DialectSQLite,
		driver:  "sqlite",
		dsn:     dsn + sep + sqlitePragmas,
		memory:  memory,
	}
}

// redactURL hides the password component of a connection URL for logging.
func redactURL(url string) string {
	scheme := strings.Index(url, "://")
	at := strings.LastIndex(url, "@")
	if scheme < 0 || at < scheme {
		return url
	}
	userinfo := url[scheme+3 : at]
	if colon := strings.Index(userinfo, ":"); colon >= 0 {
		return url[:scheme+3] + userinfo[:colon] + ":****" + url[at:]
	}
	return url
}
