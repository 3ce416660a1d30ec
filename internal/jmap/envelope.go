package jmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// responseSchema describes the batch response envelope: methodResponses is a
// list of [name, result, callId] triples.
const responseSchema = `{
  "type": "object",
  "required": ["methodResponses"],
  "properties": {
    "methodResponses": {
      "type": "array",
      "items": {
        "type": "array",
        "minItems": 3,
        "maxItems": 3,
        "prefixItems": [
          {"type": "string"},
          {"type": "object"},
          {"type": "string"}
        ]
      }
    },
    "sessionState": {"type": "string"}
  }
}`

// responseSchemaURL is absolute so validation messages do not depend on the
// working directory.
const responseSchemaURL = "mem://tmail/response.json"

var compileResponseSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(responseSchemaURL, strings.NewReader(responseSchema)); err != nil {
		return nil, fmt.Errorf("add response schema: %w", err)
	}
	return compiler.Compile(responseSchemaURL)
})

type request struct {
	Using       []string `json:"using"`
	MethodCalls [][3]any `json:"methodCalls"`
}

type response struct {
	MethodResponses []invocation `json:"methodResponses"`
	SessionState    string       `json:"sessionState,omitempty"`
}

type invocation struct {
	name   string
	args   json.RawMessage
	callID string
}

func (i *invocation) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return fmt.Errorf("invocation has %d elements, want 3", len(parts))
	}
	if err := json.Unmarshal(parts[0], &i.name); err != nil {
		return fmt.Errorf("invocation name: %w", err)
	}
	if err := json.Unmarshal(parts[2], &i.callID); err != nil {
		return fmt.Errorf("invocation call id: %w", err)
	}
	i.args = parts[1]
	return nil
}

// decodeResponse validates the envelope shape before decoding it.
func decodeResponse(data []byte) (response, error) {
	schema, err := compileResponseSchema()
	if err != nil {
		return response{}, DecodeFailure("compile response schema", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return response{}, DecodeFailure("parse response", err)
	}
	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return response{}, DecodeFailure("response does not match batch envelope", errors.New(verr.Error()))
		}
		return response{}, DecodeFailure("validate response", err)
	}

	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return response{}, DecodeFailure("decode response", err)
	}
	return resp, nil
}
