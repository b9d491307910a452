package analysis

import (
	"errors"
	"fmt"
)

const maxRawExcerpt = 500

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidRequest = errors.New("invalid analysis request")
)

// ParseError is returned when the reply carries nothing to parse.
type ParseError struct {
	Reason string
	// Raw holds at most 500 characters of the reply.
	Raw string
}

func newParseError(raw, reason string) *ParseError {
	r := []rune(raw)
	if len(r) > maxRawExcerpt {
		r = r[:maxRawExcerpt]
	}
	return &ParseError{Reason: reason, Raw: string(r)}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse recommendation: %s", e.Reason)
}

// FailureKind groups every way an analysis can fail.
type FailureKind string

const (
	FailureInvalidRequest FailureKind = "invalid_request"
	FailureUserNotFound   FailureKind = "user_not_found"
	FailureCredential     FailureKind = "credential"
	FailureRateLimit      FailureKind = "rate_limit"
	FailureTransport      FailureKind = "transport"
	FailureParse          FailureKind = "parse"
	FailureInternal       FailureKind = "internal"
)

// Failure is the single error shape returned by Service.Analyze.
type Failure struct {
	Kind    FailureKind
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("analysis %s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("analysis %s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Cause }

// KindOf returns the failure kind of err, or FailureInternal.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return FailureInternal
}
