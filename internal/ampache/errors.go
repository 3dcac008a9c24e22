package ampache

import (
	"errors"
	"fmt"
	"strings"
)

// ErrServerNotConfigured is returned before any network I/O when no server
// URL has been set. It represents a legitimate "not set up yet" state, not a
// failure, and callers must not surface it as an error message.
var ErrServerNotConfigured = errors.New("server url not configured")

// ErrorCategory buckets server-reported errors into the domain taxonomy.
type ErrorCategory int

const (
	CategoryOther ErrorCategory = iota
	CategoryAccount
	CategoryEmpty
	CategoryDuplicate
	CategorySystem
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryAccount:
		return "account"
	case CategoryEmpty:
		return "empty"
	case CategoryDuplicate:
		return "duplicate"
	case CategorySystem:
		return "system"
	default:
		return "other"
	}
}

// Server error codes, per the Ampache API error contract.
const (
	codeAccessControl    = 4700
	codeInvalidHandshake = 4701
	codeAccessDenied     = 4703
	codeNotFound         = 4704
	codeMissing          = 4705
	codeDeprecated       = 4706
	codeBadRequest       = 4710
	codeFailedAccess     = 4742
	codeSystemFloor      = 5000
)

// ServerError is a domain error carried in a response envelope:
// the call reached the server and the server rejected it.
type ServerError struct {
	Code    int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// Category maps the server error code (and, for duplicates, the message) to
// the domain taxonomy. Account-category errors are the only ones that force
// local state mutation: a rejected credential can never be fixed by retrying
// with the same stored session.
func (e *ServerError) Category() ErrorCategory {
	switch e.Code {
	case codeAccessControl, codeInvalidHandshake, codeAccessDenied, codeFailedAccess:
		return CategoryAccount
	case codeNotFound, codeMissing:
		return CategoryEmpty
	}
	if strings.Contains(strings.ToLower(e.Message), "duplicate") {
		return CategoryDuplicate
	}
	if e.Code >= codeSystemFloor {
		return CategorySystem
	}
	return CategoryOther
}

// TransportError wraps a failure to reach the server at all (DNS, dial,
// timeout, broken body read).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is an HTTP-level failure: the server answered with a non-2xx
// status and no decodable error envelope.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}
