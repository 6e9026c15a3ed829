// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package validation

import (
	"net/url"
	"regexp"
	"strings"
)

// Suspicious request tags reported by Classify.
const (
	TagSQLInjection        = "sql_injection"
	TagXSSAttempt          = "xss_attempt"
	TagPathTraversal       = "path_traversal"
	TagSuspiciousUserAgent = "suspicious_user_agent"
)

var (
	sqlInjectionPattern = regexp.MustCompile(`(?i)(\bunion\b[\s/*]+\bselect\b|\bor\b\s+['"]?\d+['"]?\s*=\s*['"]?\d+|;\s*(drop|delete|truncate|alter|insert|update)\b|--\s*$|/\*.*\*/|\bsleep\s*\(|\bbenchmark\s*\(|'\s*or\s*'[^']*'\s*=\s*')`)
	xssPattern          = regexp.MustCompile(`(?i)(<\s*script|javascript\s*:|\bon(error|load|click|mouseover)\s*=|<\s*iframe|<\s*img[^>]+src\s*=|document\.cookie)`)
	traversalPattern    = regexp.MustCompile(`(?i)(\.\./|\.\.\\|%2e%2e(%2f|%5c|/)|\.\.%2f|%252e%252e)`)
	scannerAgentPattern = regexp.MustCompile(`(?i)(sqlmap|nikto|nmap|masscan|acunetix|nessus|dirbuster|gobuster|wpscan|havij|zgrab)`)
)

// Classify inspects a request for common attack signatures and returns the
// matching tags in a stable order. It never blocks a request; callers log
// the result.
func Classify(path, rawQuery, body, userAgent string) []string {
	query := rawQuery
	if unescaped, err := url.QueryUnescape(rawQuery); err == nil {
		query = unescaped
	}
	haystack := strings.Join([]string{path, query, body}, "\n")

	var tags []string
	if sqlInjectionPattern.MatchString(query) || sqlInjectionPattern.MatchString(body) {
		tags = append(tags, TagSQLInjection)
	}
	if xssPattern.MatchString(haystack) {
		tags = append(tags, TagXSSAttempt)
	}
	if traversalPattern.MatchString(path) || traversalPattern.MatchString(rawQuery) || traversalPattern.MatchString(query) {
		tags = append(tags, TagPathTraversal)
	}
	if scannerAgentPattern.MatchString(userAgent) {
		tags = append(tags, TagSuspiciousUserAgent)
	}
	return tags
}
