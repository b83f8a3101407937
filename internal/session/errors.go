package session

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a single submission field violation.
type Kind string

const (
	InvalidChapterName Kind = "invalid_chapter_name"
	InvalidScore       Kind = "invalid_score"
	InvalidStatus      Kind = "invalid_status"
	DuplicateChapter   Kind = "duplicate_chapter"
)

// FieldError is one rejected field in a raw submission, naming the
// offending value.
type FieldError struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

func (e FieldError) Error() string {
	switch e.Kind {
	case InvalidChapterName:
		return fmt.Sprintf("invalid chapter name: %q", e.Value)
	case InvalidScore:
		return fmt.Sprintf("invalid score: %q (must be an integer 0-10)", e.Value)
	case InvalidStatus:
		return fmt.Sprintf("invalid status: %q", e.Value)
	case DuplicateChapter:
		return fmt.Sprintf("duplicate chapter: %q", e.Value)
	}
	return fmt.Sprintf("invalid field: %q", e.Value)
}

// ValidationError aggregates every field violation found in one submission.
// Violations are collected, not fail-fast, so a client sees all of them in a
// single round-trip.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "invalid submission: " + strings.Join(msgs, "; ")
}

// ErrUnknownOwner is returned when the submission's email does not resolve
// to a registered account. It is referential, not a shape error, and maps to
// a not-found response.
var ErrUnknownOwner = errors.New("owner email is not registered")
