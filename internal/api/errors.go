package api

import (
	"fmt"
	"strings"
)

// Kind classifies a gateway outcome. Every request either succeeds or fails
// with exactly one of these; nothing else escapes the client.
type Kind int

const (
	KindUnauthorized Kind = iota + 1
	KindServerError
	KindMalformedResponse
	KindNetworkFailure
	// KindRejected covers a non-auth 4xx that carries a backend detail
	// message, e.g. an upload refused because the CSV could not be parsed.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindServerError:
		return "server error"
	case KindMalformedResponse:
		return "malformed response"
	case KindNetworkFailure:
		return "network failure"
	case KindRejected:
		return "rejected"
	}
	return "unknown"
}

// Error is the gateway's typed failure.
type Error struct {
	Kind   Kind
	Status int    // HTTP status, 0 for transport failures
	Detail string // backend-provided detail, if any
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %s (status %d): %s", e.Kind, e.Status, e.Detail)
	}
	if e.Status > 0 {
		return fmt.Sprintf("api: %s (status %d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("api: %s", e.Kind)
}

// KindOf extracts the classification from an error returned by the client.
// Unrecognized errors report KindNetworkFailure, matching the policy that
// transport-level surprises surface as network failures.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	if ae, ok := err.(*Error); ok {
		return ae.Kind
	}
	if _, ok := err.(*ValidationError); ok {
		return KindRejected
	}
	return KindNetworkFailure
}

// ValidationError carries field-level messages from the registration
// endpoint. It is distinct from Error so callers can tell a rejected
// form apart from a transport problem.
type ValidationError struct {
	Field    string
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return "api: validation failed"
	}
	return fmt.Sprintf("api: %s: %s", e.Field, strings.Join(e.Messages, ", "))
}
