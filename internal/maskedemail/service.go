package maskedemail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"tmail/internal/jmap"
	"tmail/internal/logging"
)

const (
	// Capability is the URI under which masked email methods are offered.
	Capability = "https://www.fastmail.com/dev/maskedemail"

	methodGet   = "MaskedEmail/get"
	methodSet   = "MaskedEmail/set"
	methodError = "error"

	createKey = "new"
)

// Batcher is the protocol surface the service depends on.
type Batcher interface {
	DiscoverSession(ctx context.Context) (jmap.Session, error)
	ExecuteBatch(ctx context.Context, accountID string, using []string, calls []jmap.Call) (jmap.Results, error)
}

// Service performs masked email lifecycle operations.
type Service struct {
	client Batcher
	logger *slog.Logger
}

// NewService wraps client.
func NewService(client Batcher, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		logger: logging.NewComponentLogger(logger, "maskedemail"),
	}
}

// CreateOptions are the caller-supplied fields of a new masked email.
type CreateOptions struct {
	Description string
	ForDomain   string
}

// ResolveAccountID returns the account bound to the masked email capability.
func ResolveAccountID(session jmap.Session) (string, error) {
	return session.AccountID(Capability)
}

// AccountID discovers the session and resolves the masked email account.
func (s *Service) AccountID(ctx context.Context) (string, error) {
	session, err := s.client.DiscoverSession(ctx)
	if err != nil {
		return "", err
	}
	return ResolveAccountID(session)
}

// Create asks the remote to mint a new enabled masked email.
//
// Create is not idempotent: if the response is lost and the call is repeated,
// the remote mints a second address.
func (s *Service) Create(ctx context.Context, accountID string, opts CreateOptions) (MaskedEmail, error) {
	fields := map[string]any{"state": StateEnabled}
	if opts.Description != "" {
		fields["description"] = opts.Description
	}
	if opts.ForDomain != "" {
		fields["forDomain"] = opts.ForDomain
	}

	payload, err := s.call(ctx, accountID, methodSet, func(accountID string) any {
		return map[string]any{
			"accountId": accountID,
			"create":    map[string]any{createKey: fields},
		}
	})
	if err != nil {
		return MaskedEmail{}, err
	}
	resp, err := decodeSetResponse(payload)
	if err != nil {
		return MaskedEmail{}, err
	}
	outcome, err := resp.created(createKey)
	if err != nil {
		return MaskedEmail{}, err
	}
	if err := outcome.Err("notCreated"); err != nil {
		return MaskedEmail{}, err
	}
	created, _ := outcome.Value()
	s.logger.Info("masked email created",
		logging.String("id", created.ID),
		logging.String("for_domain", created.ForDomain))
	return created, nil
}

// List returns every masked email in the account in remote order, including
// disabled and deleted ones.
func (s *Service) List(ctx context.Context, accountID string) ([]MaskedEmail, error) {
	payload, err := s.call(ctx, accountID, methodGet, func(accountID string) any {
		return map[string]any{"accountId": accountID, "ids": nil}
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		List *[]MaskedEmail `json:"list"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		if jmap.KindOf(err) != "" {
			return nil, err
		}
		return nil, jmap.DecodeFailure("decode get response", err)
	}
	if resp.List == nil {
		return nil, jmap.ProtocolFailure("unexpected response: get result has no list")
	}
	list := *resp.List
	if list == nil {
		list = []MaskedEmail{}
	}
	return list, nil
}

// Archive disables the masked email with id. Archiving an already disabled
// entry is forwarded; the remote decides whether it is accepted.
func (s *Service) Archive(ctx context.Context, accountID, id string) error {
	return s.setState(ctx, accountID, id, StateDisabled)
}

// Destroy marks the masked email with id as deleted. The remote may retain
// the record; it simply stops appearing as active.
func (s *Service) Destroy(ctx context.Context, accountID, id string) error {
	return s.setState(ctx, accountID, id, StateDeleted)
}

// FindByAddress lists the account and returns the entry whose address equals
// address exactly.
func (s *Service) FindByAddress(ctx context.Context, accountID, address string) (MaskedEmail, error) {
	list, err := s.List(ctx, accountID)
	if err != nil {
		return MaskedEmail{}, err
	}
	for _, item := range list {
		if item.Email == address {
			return item, nil
		}
	}
	return MaskedEmail{}, jmap.ResourceNotFound(address)
}

// ArchiveByAddress resolves address and disables it. The returned entry
// carries the new state.
func (s *Service) ArchiveByAddress(ctx context.Context, accountID, address string) (MaskedEmail, error) {
	return s.transitionByAddress(ctx, accountID, address, StateDisabled)
}

// DestroyByAddress resolves address and deletes it.
func (s *Service) DestroyByAddress(ctx context.Context, accountID, address string) (MaskedEmail, error) {
	return s.transitionByAddress(ctx, accountID, address, StateDeleted)
}

func (s *Service) transitionByAddress(ctx context.Context, accountID, address string, next State) (MaskedEmail, error) {
	found, err := s.FindByAddress(ctx, accountID, address)
	if err != nil {
		return MaskedEmail{}, err
	}
	if found.ID == "" {
		return MaskedEmail{}, jmap.ProtocolFailure(fmt.Sprintf("masked email %s has no id", address))
	}
	if !found.State.CanTransition(next) {
		return MaskedEmail{}, jmap.ProtocolFailure(fmt.Sprintf("masked email %s cannot move from %s to %s", address, found.State, next))
	}
	if err := s.setState(ctx, accountID, found.ID, next); err != nil {
		return MaskedEmail{}, err
	}
	found.State = next
	return found, nil
}

func (s *Service) setState(ctx context.Context, accountID, id string, next State) error {
	if strings.TrimSpace(id) == "" {
		return jmap.ProtocolFailure("masked email id is required")
	}
	payload, err := s.call(ctx, accountID, methodSet, func(accountID string) any {
		return map[string]any{
			"accountId": accountID,
			"update":    map[string]any{id: map[string]any{"state": next}},
		}
	})
	if err != nil {
		return err
	}
	resp, err := decodeSetResponse(payload)
	if err != nil {
		return err
	}
	if err := resp.updated(id).Err("notUpdated"); err != nil {
		return err
	}
	s.logger.Info("masked email updated", logging.String("id", id), logging.String("state", string(next)))
	return nil
}

// call runs a single-method batch and returns the payload of its response,
// translating a method-level error response.
func (s *Service) call(ctx context.Context, accountID, method string, args jmap.ArgsBuilder) (json.RawMessage, error) {
	results, err := s.client.ExecuteBatch(ctx, accountID, []string{Capability}, []jmap.Call{{Method: method, Args: args}})
	if err != nil {
		return nil, err
	}
	result, ok := results.ByCallID(jmap.CallID(0))
	if !ok {
		return nil, jmap.ProtocolFailure("unexpected response: no result for " + method)
	}
	switch result.Method {
	case method:
		return result.Payload, nil
	case methodError:
		var methodErr SetError
		if err := json.Unmarshal(result.Payload, &methodErr); err != nil {
			return nil, jmap.DecodeFailure("decode method error", err)
		}
		return nil, jmap.ProtocolFailure(fmt.Sprintf("%s: %s", method, methodErr))
	default:
		return nil, jmap.ProtocolFailure(fmt.Sprintf("unexpected response: %s answered with %s", method, result.Method))
	}
}
