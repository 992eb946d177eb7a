package models

import (
	"fmt"
	"strings"
)

// ParseError reports a malformed or unsupported input file. It is raised before
// the batch reaches matching.
type ParseError struct {
	File   string
	Row    int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("parse %s: row %d: %s", e.File, e.Row, e.Reason)
	}
	if e.File != "" {
		return fmt.Sprintf("parse %s: %s", e.File, e.Reason)
	}
	return "parse: " + e.Reason
}

// MatchAmbiguity is a non-fatal warning: several receipts carry the same identity.
type MatchAmbiguity struct {
	ReceiptID string
	Count     int
}

func (e *MatchAmbiguity) Error() string {
	return fmt.Sprintf("ambiguous receipt id %q: %d receipts, first one used", e.ReceiptID, e.Count)
}

// RuleViolation is the reason attached to a deterministic rejection.
type RuleViolation struct {
	Reason string
}

func (e *RuleViolation) Error() string {
	return e.Reason
}

// ExternalServiceError wraps a failure from an embedding or generation provider.
type ExternalServiceError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// InvalidInputError reports a contract violation such as a vector dimension mismatch.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// MultiError collects several validation problems.
type MultiError []error

func (m MultiError) Error() string {
	msgs := make([]string, len(m))
	for i, err := range m {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (m MultiError) Unwrap() []error {
	return m
}
