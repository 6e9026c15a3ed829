// Roster - Esports Team Website and Admin API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roster

package validation

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// maxSanitizePasses bounds the strip/unescape loop used to reach a tag-free fixed point.
const maxSanitizePasses = 4

var (
	stripPolicy     *bluemonday.Policy
	stripPolicyOnce sync.Once
)

// forbiddenKeys are dropped from every decoded object before it reaches a record.
var forbiddenKeys = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
}

// verbatimKeys hold secrets that are compared, never stored or rendered.
var verbatimKeys = map[string]bool{
	"password": true,
}

func policy() *bluemonday.Policy {
	stripPolicyOnce.Do(func() {
		stripPolicy = bluemonday.StrictPolicy()
	})
	return stripPolicy
}

// StripControl removes C0 control characters (0x00-0x1F) and DEL (0x7F).
func StripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// SanitizeString applies the string pipeline used for every free-text field:
// strip control characters, normalize to NFKC, then remove all HTML.
// Entities produced by the HTML pass are decoded again so stored values hold
// plain text; the loop stops once no markup remains.
func SanitizeString(s string) string {
	s = norm.NFKC.String(StripControl(s))
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(policy().Sanitize(s))
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimSpace(StripControl(s))
}

// SanitizeValue walks a decoded JSON value, dropping forbidden keys and
// sanitizing every string. Numbers are rendered as their literal text so
// numeric-looking values reach the string-typed records unchanged.
func SanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			if forbiddenKeys[k] {
				continue
			}
			if verbatimKeys[k] {
				if n, ok := item.(json.Number); ok {
					item = n.String()
				}
				out[k] = item
				continue
			}
			out[SanitizeString(k)] = SanitizeValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = SanitizeValue(item)
		}
		return out
	case string:
		return SanitizeString(val)
	case json.Number:
		return val.String()
	default:
		return val
	}
}

// SanitizeValues returns a sanitized copy of query-string or multipart form
// values without the forbidden keys.
func SanitizeValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, vs := range values {
		if forbiddenKeys[k] {
			continue
		}
		clean := make([]string, len(vs))
		for i, v := range vs {
			clean[i] = SanitizeString(v)
		}
		out[SanitizeString(k)] = clean
	}
	return out
}

// DecodeJSON decodes a JSON object from r, sanitizes it and stores it in dst.
// dst must point to a struct whose fields are strings or string-compatible.
func DecodeJSON(r io.Reader, dst interface{}) *RequestValidationError {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return NewFieldError("body", "required", "request body is required")
		}
		return NewFieldError("body", "json", "request body must be valid JSON")
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return NewFieldError("body", "json", "request body must be a JSON object")
	}

	clean, err := json.Marshal(SanitizeValue(obj))
	if err != nil {
		return NewFieldError("body", "json", fmt.Sprintf("request body could not be processed: %v", err))
	}
	if err := json.NewDecoder(bytes.NewReader(clean)).Decode(dst); err != nil {
		return NewFieldError("body", "json", "request body has fields of the wrong type")
	}
	return nil
}
