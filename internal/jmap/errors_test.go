package jmap

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorKindsMatchTheirSentinelOnly(t *testing.T) {
	cases := []struct {
		err      error
		kind     Kind
		sentinel error
	}{
		{TransportFailure(errors.New("dial tcp")), KindTransport, ErrTransport},
		{AuthenticationFailure(401, "denied"), KindAuthentication, ErrAuthentication},
		{ProtocolFailure("notCreated"), KindProtocol, ErrProtocol},
		{DecodeFailure("parse", errors.New("eof")), KindDecode, ErrDecode},
		{CapabilityMissing("urn:x"), KindCapabilityMissing, ErrCapabilityMissing},
		{ResourceNotFound("a@b.c"), KindNotFound, ErrNotFound},
	}
	sentinels := []error{ErrTransport, ErrAuthentication, ErrProtocol, ErrDecode, ErrCapabilityMissing, ErrNotFound}

	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.kind {
			t.Fatalf("KindOf(%v) = %q, want %q", tc.err, got, tc.kind)
		}
		for _, sentinel := range sentinels {
			if want := sentinel == tc.sentinel; errors.Is(tc.err, sentinel) != want {
				t.Fatalf("errors.Is(%v, %v) = %v, want %v", tc.err, sentinel, !want, want)
			}
		}
	}
}

func TestKindOfSeesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("archive: %w", ResourceNotFound("x@example.com"))
	if KindOf(wrapped) != KindNotFound {
		t.Fatalf("expected not_found, got %q", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatal("plain errors have no kind")
	}
	if KindOf(nil) != "" {
		t.Fatal("nil has no kind")
	}
}

func TestErrorMessages(t *testing.T) {
	if msg := AuthenticationFailure(401, "bad token\n").Error(); msg != "authentication failed (401): bad token" {
		t.Fatalf("unexpected auth message %q", msg)
	}
	truncated := &Error{Kind: KindAuthentication, StatusCode: 502, Body: "xx", Detail: "body truncated to 2 bytes"}
	if msg := truncated.Error(); msg != "authentication failed (502): xx (body truncated to 2 bytes)" {
		t.Fatalf("unexpected truncated message %q", msg)
	}
	if msg := ResourceNotFound("x@example.com").Error(); !strings.Contains(msg, "x@example.com") {
		t.Fatalf("not found message should carry identifier: %q", msg)
	}
	if msg := DecodeFailure("parse response", errors.New("unexpected EOF")).Error(); msg != "decode failure: parse response: unexpected EOF" {
		t.Fatalf("unexpected decode message %q", msg)
	}
	cause := errors.New("connection refused")
	if err := TransportFailure(cause); !errors.Is(err, cause) {
		t.Fatal("transport failure should unwrap to its cause")
	}
}
