package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"tmail/internal/jmap"
	"tmail/internal/maskedemail"
)

const (
	// FakeToken is the bearer token FakeJMAP accepts.
	FakeToken = "fmu1-test-token"
	// FakeAccountID is the account FakeJMAP binds to the masked email capability.
	FakeAccountID = "u1"
)

// OverrideFunc lets a test answer a method call itself. Returning handled=false
// falls through to the default in-memory behaviour.
type OverrideFunc func(method string, args map[string]any) (name string, result any, handled bool)

// FakeJMAP is an in-memory masked email endpoint serving both the session
// resource and the API.
type FakeJMAP struct {
	t      testing.TB
	server *httptest.Server

	mu      sync.Mutex
	items   []map[string]any
	nextID  int
	methods []string

	// Override answers selected calls.
	Override OverrideFunc
	// RejectRedisable refuses to disable an entry that is already disabled.
	RejectRedisable bool
	// Status, when non-zero, is returned with StatusBody for every request.
	Status     int
	StatusBody string
	// OmitCapability drops the masked email binding from the session.
	OmitCapability bool
}

// NewFakeJMAP starts a fake endpoint and registers cleanup.
func NewFakeJMAP(t testing.TB) *FakeJMAP {
	t.Helper()
	f := &FakeJMAP{t: t}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

// SessionURL returns the session endpoint.
func (f *FakeJMAP) SessionURL() string { return f.server.URL + "/jmap/session" }

// APIURL returns the API endpoint.
func (f *FakeJMAP) APIURL() string { return f.server.URL + "/jmap/api/" }

// Client returns a jmap client pointed at the fake.
func (f *FakeJMAP) Client() *jmap.Client {
	f.t.Helper()
	client, err := jmap.New(jmap.Config{
		Token:      FakeToken,
		SessionURL: f.SessionURL(),
		APIURL:     f.APIURL(),
		HTTPClient: f.server.Client(),
	})
	if err != nil {
		f.t.Fatalf("jmap.New: %v", err)
	}
	return client
}

// Seed appends raw resources to the account.
func (f *FakeJMAP) Seed(items ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, items...)
}

// Item returns a copy of the stored resource with id.
func (f *FakeJMAP) Item(id string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item := f.find(id)
	if item == nil {
		return nil, false
	}
	out := make(map[string]any, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out, true
}

// Methods returns the method names received so far, in order.
func (f *FakeJMAP) Methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.methods...)
}

func (f *FakeJMAP) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Status != 0 {
		w.WriteHeader(f.Status)
		_, _ = io.WriteString(w, f.StatusBody)
		return
	}
	if got := r.Header.Get("Authorization"); got != "Bearer "+FakeToken {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "invalid token")
		return
	}

	if r.Method == http.MethodGet {
		accounts := map[string]string{jmap.CoreCapability: FakeAccountID}
		if !f.OmitCapability {
			accounts[maskedemail.Capability] = FakeAccountID
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"username":        "user@example.com",
			"primaryAccounts": accounts,
		})
		return
	}

	var req struct {
		Using       []string            `json:"using"`
		MethodCalls [][]json.RawMessage `json:"methodCalls"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.t.Errorf("decode request: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if len(req.Using) < 2 || req.Using[0] != jmap.CoreCapability || req.Using[1] != maskedemail.Capability {
		f.t.Errorf("unexpected using %v", req.Using)
	}

	responses := make([]any, 0, len(req.MethodCalls))
	for _, call := range req.MethodCalls {
		if len(call) != 3 {
			f.t.Errorf("malformed method call %s", call)
			continue
		}
		var (
			method, callID string
			args           map[string]any
		)
		_ = json.Unmarshal(call[0], &method)
		_ = json.Unmarshal(call[1], &args)
		_ = json.Unmarshal(call[2], &callID)
		f.methods = append(f.methods, method)

		if args["accountId"] != FakeAccountID {
			f.t.Errorf("unexpected accountId %v", args["accountId"])
		}
		name, result := f.respond(method, args)
		responses = append(responses, []any{name, result, callID})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"methodResponses": responses, "sessionState": "0"})
}

func (f *FakeJMAP) respond(method string, args map[string]any) (string, any) {
	if f.Override != nil {
		if name, result, ok := f.Override(method, args); ok {
			return name, result
		}
	}
	switch method {
	case "MaskedEmail/get":
		list := f.items
		if list == nil {
			list = []map[string]any{}
		}
		return method, map[string]any{"accountId": FakeAccountID, "list": list, "notFound": []string{}}
	case "MaskedEmail/set":
		result := map[string]any{"accountId": FakeAccountID}
		if create, ok := args["create"].(map[string]any); ok {
			result["created"] = f.create(create)
		}
		if update, ok := args["update"].(map[string]any); ok {
			result["updated"], result["notUpdated"] = f.update(update)
		}
		return method, result
	default:
		return "error", map[string]any{"type": "unknownMethod"}
	}
}

func (f *FakeJMAP) create(create map[string]any) map[string]any {
	created := map[string]any{}
	for key, raw := range create {
		fields, _ := raw.(map[string]any)
		f.nextID++
		item := map[string]any{
			"id":        fmt.Sprintf("masked-%d", f.nextID),
			"email":     fmt.Sprintf("alias.%d@fastmail.example", f.nextID),
			"state":     fields["state"],
			"createdAt": "2024-03-01T10:00:00Z",
		}
		for _, field := range []string{"description", "forDomain"} {
			if v, ok := fields[field]; ok {
				item[field] = v
			}
		}
		f.items = append(f.items, item)
		created[key] = item
	}
	return created
}

func (f *FakeJMAP) update(update map[string]any) (map[string]any, map[string]any) {
	updated := map[string]any{}
	notUpdated := map[string]any{}
	for id, raw := range update {
		patch, _ := raw.(map[string]any)
		item := f.find(id)
		switch {
		case item == nil:
			notUpdated[id] = map[string]any{"type": "notFound"}
		case f.RejectRedisable && item["state"] == "disabled" && patch["state"] == "disabled":
			notUpdated[id] = map[string]any{"type": "invalidProperties", "description": "already disabled"}
		default:
			item["state"] = patch["state"]
			updated[id] = nil
		}
	}
	return updated, notUpdated
}

func (f *FakeJMAP) find(id string) map[string]any {
	for _, item := range f.items {
		if item["id"] == id {
			return item
		}
	}
	return nil
}
