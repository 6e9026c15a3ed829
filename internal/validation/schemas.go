// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package validation

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// PlayerInput is the validated payload for creating a player.
type PlayerInput struct {
	Name         string `json:"name" validate:"required,min=1,max=100,personname"`
	JerseyNumber int    `json:"jerseyNumber" validate:"required,min=1,max=99"`
	Stars        int    `json:"stars" validate:"required,min=1,max=5"`
}

// ManagerInput is the validated payload for creating a manager.
type ManagerInput struct {
	Name string `json:"name" validate:"required,min=1,max=100,personname"`
	Role string `json:"role" validate:"required,min=1,max=100,personname"`
}

// TrophyInput is the validated payload for creating a trophy.
type TrophyInput struct {
	Name string `json:"name" validate:"required,min=1,max=200,title"`
	Year int    `json:"year" validate:"required,min=1900,notfuture"`
}

// ContactInput is the validated payload for a contact submission.
type ContactInput struct {
	Name     string `json:"name" validate:"required,min=1,max=100,personname"`
	Email    string `json:"email" validate:"required,max=254,email"`
	Whatsapp string `json:"whatsapp" validate:"required,whatsapp"`
}

// LoginInput is the validated payload for admin login.
type LoginInput struct {
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Password string `json:"password" validate:"required,max=128"`
}

// formReader pulls sanitized fields out of multipart or urlencoded values
// and records coercion failures per field.
type formReader struct {
	values url.Values
	errs   *RequestValidationError
	failed map[string]bool
}

func newFormReader(values url.Values) *formReader {
	return &formReader{values: SanitizeValues(values), failed: make(map[string]bool)}
}

func (f *formReader) str(key string) string {
	return f.values.Get(key)
}

// int coerces a numeric-looking string. Empty input yields zero so that the
// schema reports the field as required.
func (f *formReader) int(key string) int {
	raw := strings.TrimSpace(f.values.Get(key))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		if fl, ferr := strconv.ParseFloat(raw, 64); ferr == nil && fl == float64(int(fl)) {
			return int(fl)
		}
		f.fail(key, "number", fmt.Sprintf("%s must be a whole number", key))
		return 0
	}
	return n
}

func (f *formReader) fail(field, tag, message string) {
	if f.errs == nil {
		f.errs = &RequestValidationError{}
	}
	f.errs.add(field, tag, message)
	f.failed[field] = true
}

// finish validates the record, dropping schema errors for fields that already
// failed coercion.
func (f *formReader) finish(record interface{}) *RequestValidationError {
	verr := ValidateStruct(record)
	if verr != nil && len(f.failed) > 0 {
		kept := verr.errors[:0]
		for _, e := range verr.errors {
			if !f.failed[e.field] {
				kept = append(kept, e)
			}
		}
		verr.errors = kept
		if len(kept) == 0 {
			verr = nil
		}
	}
	return merge(f.errs, verr)
}

// PlayerFromForm builds and validates a PlayerInput from form values.
func PlayerFromForm(values url.Values) (PlayerInput, *RequestValidationError) {
	f := newFormReader(values)
	in := PlayerInput{
		Name:         f.str("name"),
		JerseyNumber: f.int("jerseyNumber"),
		Stars:        f.int("stars"),
	}
	return in, f.finish(&in)
}

// ManagerFromForm builds and validates a ManagerInput from form values.
func ManagerFromForm(values url.Values) (ManagerInput, *RequestValidationError) {
	f := newFormReader(values)
	in := ManagerInput{
		Name: f.str("name"),
		Role: f.str("role"),
	}
	return in, f.finish(&in)
}

// TrophyFromForm builds and validates a TrophyInput from form values.
func TrophyFromForm(values url.Values) (TrophyInput, *RequestValidationError) {
	f := newFormReader(values)
	in := TrophyInput{
		Name: f.str("name"),
		Year: f.int("year"),
	}
	return in, f.finish(&in)
}

// NormalizeWhatsapp reduces a phone number to an optional leading + followed
// by digits only.
func NormalizeWhatsapp(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateContact normalizes and validates a contact submission in place.
// The email is lowercased only after it has passed validation.
func ValidateContact(in *ContactInput) *RequestValidationError {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Whatsapp = NormalizeWhatsapp(in.Whatsapp)
	if verr := ValidateStruct(in); verr != nil {
		return verr
	}
	in.Email = strings.ToLower(in.Email)
	return nil
}

// ValidateLogin validates a login payload.
func ValidateLogin(in *LoginInput) *RequestValidationError {
	in.Username = strings.TrimSpace(in.Username)
	return ValidateStruct(in)
}
