package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for the failure classes the pipelines distinguish.
// Wrap with fmt.Errorf("...: %w", Err...) and check with errors.Is.
var (
	// ErrModel marks a provider call that failed or returned unparseable
	// output. Never retried automatically.
	ErrModel = errors.New("model request failed")

	// ErrStorage marks a persistence read/write failure.
	ErrStorage = errors.New("storage request failed")

	// ErrEmptyResponse marks a completion with no usable text. Recovered
	// locally into a placeholder advisory, never surfaced to callers.
	ErrEmptyResponse = errors.New("model returned no usable text")

	// ErrNotFound marks a lookup for a record that does not exist or is not
	// owned by the requester.
	ErrNotFound = errors.New("record not found")
)

// FieldErrors is a per-field validation error map. A non-empty map stops a
// pipeline before any network call is made.
type FieldErrors map[string]string

// Error implements error with a stable, field-sorted message.
func (f FieldErrors) Error() string {
	if len(f) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(f))
	for k := range f {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, k := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", k, f[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsFieldErrors extracts a FieldErrors map from an error chain.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
