// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// PasswordPolicy defines requirements for the bootstrap admin password.
type PasswordPolicy struct {
	MinLength int
	// MinCharClasses is how many of upper, lower, digit and symbol must appear.
	MinCharClasses           int
	ForbidCommonPasswords    bool
	ForbidUsernameSimilarity bool
}

// AdminPasswordPolicy returns the policy enforced on DEFAULT_ADMIN_PASSWORD in production.
func AdminPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:                12,
		MinCharClasses:           3,
		ForbidCommonPasswords:    true,
		ForbidUsernameSimilarity: true,
	}
}

func countCharClasses(password string) int {
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	n := 0
	for _, ok := range []bool{upper, lower, digit, symbol} {
		if ok {
			n++
		}
	}
	return n
}

var commonPasswords = map[string]bool{
	"password": true, "password123": true, "password1234": true, "admin": true, "admin123": true,
	"administrator": true, "123456789012": true, "qwertyuiop": true, "letmein": true, "welcome123": true,
	"changeme": true, "changeme123": true, "iloveyou": true, "esports": true, "esports123": true,
}

// Violations returns every rule the password breaks.
func (p PasswordPolicy) Violations(password, username string) []string {
	var errs []string
	if len(password) < p.MinLength {
		errs = append(errs, fmt.Sprintf("password must be at least %d characters (got %d)", p.MinLength, len(password)))
	}
	if classes := countCharClasses(password); classes < p.MinCharClasses {
		errs = append(errs, fmt.Sprintf("password must mix at least %d of upper, lower, digit and symbol characters", p.MinCharClasses))
	}
	lower := strings.ToLower(password)
	if p.ForbidCommonPasswords && commonPasswords[lower] {
		errs = append(errs, "password is too common")
	}
	if p.ForbidUsernameSimilarity && username != "" && strings.Contains(lower, strings.ToLower(username)) {
		errs = append(errs, "password must not contain the username")
	}
	return errs
}

// ValidateWithError returns an error describing all violations, or nil.
func (p PasswordPolicy) ValidateWithError(password, username string) error {
	if v := p.Violations(password, username); len(v) > 0 {
		return errors.New(strings.Join(v, "; "))
	}
	return nil
}
