package maskedemail

import (
	"encoding/json"

	"tmail/internal/jmap"
)

// State is the lifecycle state reported by the remote. Values outside the
// known set are kept verbatim.
type State string

const (
	StateEnabled  State = "enabled"
	StateDisabled State = "disabled"
	StateDeleted  State = "deleted"
)

// Known reports whether s is one of the documented states.
func (s State) Known() bool {
	switch s {
	case StateEnabled, StateDisabled, StateDeleted:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// step. Deleted is terminal and nothing returns to enabled. When s is empty
// or unknown the remote decides.
func (s State) CanTransition(next State) bool {
	if !s.Known() {
		return true
	}
	switch s {
	case StateEnabled:
		return next == StateDisabled || next == StateDeleted
	case StateDisabled:
		return next == StateDisabled || next == StateDeleted
	default:
		return false
	}
}

// MaskedEmail is a remote alias address. Optional fields are empty when the
// remote omitted them.
type MaskedEmail struct {
	ID            string `json:"id,omitempty"`
	Email         string `json:"email"`
	State         State  `json:"state,omitempty"`
	ForDomain     string `json:"forDomain,omitempty"`
	Description   string `json:"description,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	LastMessageAt string `json:"lastMessageAt,omitempty"`
}

// UnmarshalJSON decodes a resource, tolerating absent optional fields and
// null values. A resource without an email address is rejected.
func (m *MaskedEmail) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID            *string `json:"id"`
		Email         *string `json:"email"`
		State         *string `json:"state"`
		ForDomain     *string `json:"forDomain"`
		Description   *string `json:"description"`
		CreatedAt     *string `json:"createdAt"`
		LastMessageAt *string `json:"lastMessageAt"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return jmap.DecodeFailure("decode masked email", err)
	}
	if wire.Email == nil {
		return jmap.DecodeFailure("masked email is missing email", nil)
	}
	*m = MaskedEmail{
		ID:            deref(wire.ID),
		Email:         *wire.Email,
		State:         State(deref(wire.State)),
		ForDomain:     deref(wire.ForDomain),
		Description:   deref(wire.Description),
		CreatedAt:     deref(wire.CreatedAt),
		LastMessageAt: deref(wire.LastMessageAt),
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IsActive reports whether the resource has not been deleted.
func (m MaskedEmail) IsActive() bool {
	return m.State != StateDeleted
}

// Filter returns the entries for which keep returns true, preserving order.
func Filter(list []MaskedEmail, keep func(MaskedEmail) bool) []MaskedEmail {
	out := make([]MaskedEmail, 0, len(list))
	for _, item := range list {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Enabled keeps only entries in the enabled state.
func Enabled(list []MaskedEmail) []MaskedEmail {
	return Filter(list, func(m MaskedEmail) bool { return m.State == StateEnabled })
}

// Active drops deleted entries.
func Active(list []MaskedEmail) []MaskedEmail {
	return Filter(list, MaskedEmail.IsActive)
}
