package jmap

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so callers can branch without matching error text.
type Kind string

const (
	KindTransport         Kind = "transport"
	KindAuthentication    Kind = "authentication"
	KindProtocol          Kind = "protocol"
	KindDecode            Kind = "decode"
	KindCapabilityMissing Kind = "capability_missing"
	KindNotFound          Kind = "not_found"
)

var (
	ErrTransport         = errors.New("transport failure")
	ErrAuthentication    = errors.New("authentication failure")
	ErrProtocol          = errors.New("protocol failure")
	ErrDecode            = errors.New("decode failure")
	ErrCapabilityMissing = errors.New("capability missing")
	ErrNotFound          = errors.New("resource not found")
)

// Error is the only error type returned across the package boundary.
type Error struct {
	Kind Kind
	// StatusCode and Body are set for authentication failures.
	StatusCode int
	Body       string
	// Detail carries the rejection payload or parser message.
	Detail string
	// Identifier is the queried address or ID for not-found errors, or the
	// capability URI for capability errors.
	Identifier string
	Err        error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindAuthentication:
		msg = fmt.Sprintf("authentication failed (%d): %s", e.StatusCode, strings.TrimSpace(e.Body))
		if e.Detail != "" {
			msg += " (" + e.Detail + ")"
		}
	case KindCapabilityMissing:
		msg = fmt.Sprintf("capability %s not available for this account", e.Identifier)
	case KindNotFound:
		msg = fmt.Sprintf("not found: %s", e.Identifier)
	default:
		msg = e.marker().Error()
		if e.Detail != "" {
			msg += ": " + e.Detail
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	return target == e.marker()
}

func (e *Error) marker() error {
	switch e.Kind {
	case KindTransport:
		return ErrTransport
	case KindAuthentication:
		return ErrAuthentication
	case KindDecode:
		return ErrDecode
	case KindCapabilityMissing:
		return ErrCapabilityMissing
	case KindNotFound:
		return ErrNotFound
	default:
		return ErrProtocol
	}
}

// TransportFailure reports that the network exchange could not complete.
func TransportFailure(err error) error {
	return &Error{Kind: KindTransport, Err: err}
}

// AuthenticationFailure reports a non-2xx HTTP status. The body is kept
// verbatim. The client reads at most 1 MiB of it and records a truncated or
// failed read in Detail.
func AuthenticationFailure(status int, body string) error {
	return &Error{Kind: KindAuthentication, StatusCode: status, Body: body}
}

// ProtocolFailure reports a request the endpoint accepted but rejected at the
// method level, or a result with an unexpected shape.
func ProtocolFailure(detail string) error {
	return &Error{Kind: KindProtocol, Detail: detail}
}

// DecodeFailure reports a body that does not match the expected schema.
func DecodeFailure(detail string, err error) error {
	return &Error{Kind: KindDecode, Detail: detail, Err: err}
}

// CapabilityMissing reports that the session has no account bound to capability.
func CapabilityMissing(capability string) error {
	return &Error{Kind: KindCapabilityMissing, Identifier: capability}
}

// ResourceNotFound reports that identifier did not appear in a listing.
func ResourceNotFound(identifier string) error {
	return &Error{Kind: KindNotFound, Identifier: identifier}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var jerr *Error
	if errors.As(err, &jerr) {
		return jerr.Kind
	}
	return ""
}
