// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

// Package validation gates every mutating request: record schemas on top of
// go-playground/validator v10, string and object sanitization, upload file
// checks, and a read-only suspicious-request classifier.
//
// Example usage:
//
//	in, verr := validation.PlayerFromForm(r.MultipartForm.Value)
//	if verr != nil {
//	    return verr // mapped to 400 VALIDATION_ERROR by the API layer
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	// personNamePattern is the restricted alphabet for names and roles:
	// letters, combining marks, spaces, apostrophes, periods and hyphens.
	personNamePattern = regexp.MustCompile(`^[\p{L}\p{M}][\p{L}\p{M} '.\-]*$`)

	// titlePattern is the alphabet for trophy names, which may carry digits.
	titlePattern = regexp.MustCompile(`^[\p{L}\p{M}\p{N}][\p{L}\p{M}\p{N} '.,&()#:\-]*$`)

	whatsappPattern = regexp.MustCompile(`^\+?\d{10,15}$`)
)

// ValidationError represents a single field validation error.
type ValidationError struct {
	field   string
	tag     string
	param   string
	message string
}

// Field returns the JSON field name that failed validation.
func (e *ValidationError) Field() string {
	return e.field
}

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string {
	return e.tag
}

// Param returns the parameter for the validation tag (e.g., "100" for "max=100").
func (e *ValidationError) Param() string {
	return e.param
}

// Error returns a human-readable error message.
func (e *ValidationError) Error() string {
	return e.message
}

// RequestValidationError represents a collection of validation errors.
type RequestValidationError struct {
	errors []ValidationError
}

// NewFieldError builds a RequestValidationError for a single field.
func NewFieldError(field, tag, message string) *RequestValidationError {
	return &RequestValidationError{errors: []ValidationError{{field: field, tag: tag, message: message}}}
}

// Errors returns the slice of validation errors.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

// Fields returns the names of the fields that failed.
func (ve *RequestValidationError) Fields() []string {
	fields := make([]string, len(ve.errors))
	for i, e := range ve.errors {
		fields[i] = e.field
	}
	return fields
}

// Error implements the error interface, returning a combined error message.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.errors))
	for i, err := range ve.errors {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

func (ve *RequestValidationError) add(field, tag, message string) {
	ve.errors = append(ve.errors, ValidationError{field: field, tag: tag, message: message})
}

// merge combines two possibly-nil error sets.
func merge(a, b *RequestValidationError) *RequestValidationError {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		a.errors = append(a.errors, b.errors...)
		return a
	}
}

// APIError is the transport-neutral shape of a validation failure.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError converts validation errors to the VALIDATION_ERROR format.
func (ve *RequestValidationError) ToAPIError() *APIError {
	if len(ve.errors) == 0 {
		return &APIError{Code: "VALIDATION_ERROR", Message: "Validation failed"}
	}

	fields := make([]map[string]interface{}, len(ve.errors))
	for i, err := range ve.errors {
		fields[i] = map[string]interface{}{
			"field":   err.field,
			"message": err.message,
		}
	}

	details := map[string]interface{}{"fields": fields}
	if len(ve.errors) == 1 {
		details["field"] = ve.errors[0].field
	}

	return &APIError{
		Code:    "VALIDATION_ERROR",
		Message: ve.Error(),
		Details: details,
	}
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report JSON names so messages match what the client sent.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		mustRegister("personname", func(fl validator.FieldLevel) bool {
			return personNamePattern.MatchString(fl.Field().String())
		})
		mustRegister("title", func(fl validator.FieldLevel) bool {
			return titlePattern.MatchString(fl.Field().String())
		})
		mustRegister("whatsapp", func(fl validator.FieldLevel) bool {
			return whatsappPattern.MatchString(fl.Field().String())
		})
		// notfuture bounds a year to at most one year ahead of the current one.
		mustRegister("notfuture", func(fl validator.FieldLevel) bool {
			return fl.Field().Int() <= int64(time.Now().Year()+1)
		})
	})

	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

// ValidateStruct validates a struct using the singleton validator.
// Returns nil if validation passes.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return NewFieldError("unknown", "unknown", err.Error())
	}

	out := &RequestValidationError{errors: make([]ValidationError, len(validationErrs))}
	for i, fieldErr := range validationErrs {
		out.errors[i] = ValidationError{
			field:   fieldErr.Field(),
			tag:     fieldErr.Tag(),
			param:   fieldErr.Param(),
			message: translateError(fieldErr),
		}
	}
	return out
}

var errorMessageTemplates = map[string]string{
	"required":   "%s is required",
	"email":      "%s must be a valid email address",
	"alphanum":   "%s must contain only letters and numbers",
	"personname": "%s may contain only letters, spaces, apostrophes, periods and hyphens",
	"title":      "%s contains unsupported characters",
	"whatsapp":   "%s must be 10 to 15 digits, optionally prefixed with +",
	"notfuture":  "%s cannot be more than one year in the future",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
}

func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
