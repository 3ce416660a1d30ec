package maskedemail

import (
	"encoding/json"
	"fmt"
	"strings"

	"tmail/internal/jmap"
)

// SetError is a per-entry rejection from a set method.
type SetError struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Properties  []string `json:"properties,omitempty"`
}

func (e SetError) String() string {
	var b strings.Builder
	b.WriteString(e.Type)
	if e.Description != "" {
		b.WriteString(": ")
		b.WriteString(e.Description)
	}
	if len(e.Properties) > 0 {
		fmt.Fprintf(&b, " (properties: %s)", strings.Join(e.Properties, ", "))
	}
	return b.String()
}

// Outcome is the result of one keyed entry in a set response: exactly one of
// a success value or a rejection.
type Outcome[T any] struct {
	value    T
	rejected *SetError
	present  bool
}

// Succeeded wraps a success value.
func Succeeded[T any](value T) Outcome[T] {
	return Outcome[T]{value: value, present: true}
}

// Rejected wraps a rejection.
func Rejected[T any](rejection SetError) Outcome[T] {
	return Outcome[T]{rejected: &rejection, present: true}
}

// Value returns the success payload when the entry was accepted.
func (o Outcome[T]) Value() (T, bool) {
	return o.value, o.present && o.rejected == nil
}

// Rejection returns the rejection when the entry was refused.
func (o Outcome[T]) Rejection() (SetError, bool) {
	if o.rejected == nil {
		return SetError{}, false
	}
	return *o.rejected, true
}

// Err converts the outcome into a protocol failure naming section, or nil on
// success.
func (o Outcome[T]) Err(section string) error {
	if !o.present {
		return jmap.ProtocolFailure("unexpected response")
	}
	if o.rejected != nil {
		return jmap.ProtocolFailure(fmt.Sprintf("%s: %s", section, o.rejected))
	}
	return nil
}

// setResponse keeps the keyed sections raw so a null entry under "updated"
// still counts as present.
type setResponse struct {
	Created    map[string]json.RawMessage `json:"created"`
	NotCreated map[string]SetError        `json:"notCreated"`
	Updated    map[string]json.RawMessage `json:"updated"`
	NotUpdated map[string]SetError        `json:"notUpdated"`
}

func decodeSetResponse(payload json.RawMessage) (setResponse, error) {
	var resp setResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return setResponse{}, jmap.DecodeFailure("decode set response", err)
	}
	return resp, nil
}

// created returns the outcome for a create key. Success wins when the remote
// reports both.
func (r setResponse) created(key string) (Outcome[MaskedEmail], error) {
	if raw, ok := r.Created[key]; ok {
		var entity MaskedEmail
		if err := json.Unmarshal(raw, &entity); err != nil {
			if jmap.KindOf(err) != "" {
				return Outcome[MaskedEmail]{}, err
			}
			return Outcome[MaskedEmail]{}, jmap.DecodeFailure("decode created masked email", err)
		}
		return Succeeded(entity), nil
	}
	if rejection, ok := r.NotCreated[key]; ok {
		return Rejected[MaskedEmail](rejection), nil
	}
	return Outcome[MaskedEmail]{}, nil
}

// updated returns the outcome for an update key. Any value under "updated",
// including null, is success.
func (r setResponse) updated(id string) Outcome[json.RawMessage] {
	if raw, ok := r.Updated[id]; ok {
		return Succeeded(raw)
	}
	if rejection, ok := r.NotUpdated[id]; ok {
		return Rejected[json.RawMessage](rejection)
	}
	return Outcome[json.RawMessage]{}
}
