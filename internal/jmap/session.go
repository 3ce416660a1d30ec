package jmap

import (
	"context"
	"encoding/json"
	"net/http"
)

// Session is the subset of the session resource this client needs.
type Session struct {
	// PrimaryAccounts maps capability URIs to account identifiers.
	PrimaryAccounts map[string]string `json:"primaryAccounts"`
	Username        string            `json:"username,omitempty"`
}

// DiscoverSession fetches the session resource. It is never retried.
func (c *Client) DiscoverSession(ctx context.Context) (Session, error) {
	ctx = withCorrelation(ctx)
	data, err := c.exchange(ctx, http.MethodGet, c.sessionURL, nil)
	if err != nil {
		return Session{}, err
	}

	var payload struct {
		PrimaryAccounts *map[string]string `json:"primaryAccounts"`
		Username        string             `json:"username"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return Session{}, DecodeFailure("decode session", err)
	}
	if payload.PrimaryAccounts == nil {
		return Session{}, DecodeFailure("session is missing primaryAccounts", nil)
	}
	return Session{PrimaryAccounts: *payload.PrimaryAccounts, Username: payload.Username}, nil
}

// AccountID returns the account bound to capability. A missing binding is a
// scope or availability problem rather than an authentication one.
func (s Session) AccountID(capability string) (string, error) {
	id, ok := s.PrimaryAccounts[capability]
	if !ok || id == "" {
		return "", CapabilityMissing(capability)
	}
	return id, nil
}
