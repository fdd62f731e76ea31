// Package security provides input sanitization for free-text values.
package security

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips unsafe markup from arbitrary values before they are
// persisted or re-rendered.
//
// This is a blocklist-style defense in depth, not a substitute for
// context-aware output encoding at render time: templates still escape.
type Sanitizer struct {
	policy *bluemonday.Policy
}

var (
	// jsURIPattern matches javascript: URIs, tolerating whitespace the way
	// browsers do when parsing the scheme.
	jsURIPattern = regexp.MustCompile(`(?i)j\s*a\s*v\s*a\s*s\s*c\s*r\s*i\s*p\s*t\s*:`)

	// eventHandlerPattern matches inline event-handler attributes such as
	// onclick= or onerror =.
	eventHandlerPattern = regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)
)

// NewSanitizer creates a sanitizer with a strict policy: every HTML element
// is removed, and script/style blocks are dropped together with their
// contents.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// SanitizeInput cleans a value of arbitrary shape.
//
// Strings are stripped of markup, javascript: URIs and inline event
// handlers. Slices and maps are sanitized recursively. Nil normalizes to an
// empty string; other primitives pass through unchanged. The operation is
// idempotent: sanitizing already-clean input returns it as is.
func (s *Sanitizer) SanitizeInput(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return s.sanitizeString(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = s.SanitizeInput(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = s.SanitizeInput(item)
		}
		return out
	default:
		return value
	}
}

// SanitizeString cleans a single string value.
func (s *Sanitizer) SanitizeString(input string) string {
	return s.sanitizeString(input)
}

func (s *Sanitizer) sanitizeString(input string) string {
	cleaned := s.policy.Sanitize(input)
	cleaned = jsURIPattern.ReplaceAllString(cleaned, "")
	cleaned = eventHandlerPattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}
