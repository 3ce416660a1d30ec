package jmap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"tmail/internal/logging"
)

// ArgsBuilder produces the arguments object of a method call for accountID.
type ArgsBuilder func(accountID string) any

// Call is one named method call in a batch.
type Call struct {
	Method string
	Args   ArgsBuilder
}

// Result is one entry of a batch response.
type Result struct {
	Method  string
	Payload json.RawMessage
	CallID  string
}

// Results holds batch results in response order.
type Results []Result

// ByCallID returns the result correlated with callID.
func (r Results) ByCallID(callID string) (Result, bool) {
	for _, result := range r {
		if result.CallID == callID {
			return result, true
		}
	}
	return Result{}, false
}

// CallID returns the identifier assigned to the call at index within a batch.
func CallID(index int) string {
	return strconv.Itoa(index)
}

// ExecuteBatch sends calls as one request and returns every response entry
// in response order. The core capability is always declared.
func (c *Client) ExecuteBatch(ctx context.Context, accountID string, using []string, calls []Call) (Results, error) {
	if len(calls) == 0 {
		return nil, ProtocolFailure("batch has no method calls")
	}
	ctx = withCorrelation(ctx)

	req := request{
		Using:       capabilities(using),
		MethodCalls: make([][3]any, 0, len(calls)),
	}
	methods := make([]string, 0, len(calls))
	for i, call := range calls {
		var args any = map[string]any{"accountId": accountID}
		if call.Args != nil {
			args = call.Args(accountID)
		}
		req.MethodCalls = append(req.MethodCalls, [3]any{call.Method, args, CallID(i)})
		methods = append(methods, call.Method)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, ProtocolFailure(fmt.Sprintf("encode request: %v", err))
	}

	logging.WithContext(ctx, c.logger).Debug("jmap batch",
		logging.Any("methods", methods),
		logging.Any("using", req.Using))

	data, err := c.exchange(ctx, http.MethodPost, c.apiURL, payload)
	if err != nil {
		return nil, err
	}

	resp, err := decodeResponse(data)
	if err != nil {
		return nil, err
	}

	results := make(Results, 0, len(resp.MethodResponses))
	for _, inv := range resp.MethodResponses {
		results = append(results, Result{Method: inv.name, Payload: inv.args, CallID: inv.callID})
	}
	return results, nil
}

func capabilities(using []string) []string {
	out := []string{CoreCapability}
	seen := map[string]struct{}{CoreCapability: {}}
	for _, capability := range using {
		if capability == "" {
			continue
		}
		if _, ok := seen[capability]; ok {
			continue
		}
		seen[capability] = struct{}{}
		out = append(out, capability)
	}
	return out
}
