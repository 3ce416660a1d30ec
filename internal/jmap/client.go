package jmap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"tmail/internal/logging"
)

const (
	// CoreCapability must be declared by every request.
	CoreCapability = "urn:ietf:params:jmap:core"

	DefaultSessionURL = "https://api.fastmail.com/jmap/session"
	DefaultAPIURL     = "https://api.fastmail.com/jmap/api/"

	maxErrorBody = 1 << 20
)

// HTTPDoer describes the HTTP client used to reach the endpoints.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config describes the client configuration.
type Config struct {
	Token      string
	SessionURL string
	APIURL     string
	HTTPClient HTTPDoer
	Logger     *slog.Logger
}

// Client performs authenticated session and method-call exchanges. It holds
// no mutable state after construction.
type Client struct {
	token      string
	sessionURL string
	apiURL     string
	http       HTTPDoer
	logger     *slog.Logger
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("jmap: api token is required")
	}
	sessionURL, err := endpoint(cfg.SessionURL, DefaultSessionURL)
	if err != nil {
		return nil, fmt.Errorf("jmap: session url: %w", err)
	}
	apiURL, err := endpoint(cfg.APIURL, DefaultAPIURL)
	if err != nil {
		return nil, fmt.Errorf("jmap: api url: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		token:      token,
		sessionURL: sessionURL,
		apiURL:     apiURL,
		http:       client,
		logger:     logging.NewComponentLogger(cfg.Logger, "jmap"),
	}, nil
}

func endpoint(value, fallback string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%q is not an absolute url", value)
	}
	return parsed.String(), nil
}

// exchange sends one authenticated request and returns the body of a 2xx
// response. Every failure is already classified.
func (c *Client) exchange(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, TransportFailure(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug("jmap exchange failed",
			logging.String("method", method),
			logging.String("url", target),
			logging.Error(err))
		return nil, TransportFailure(err)
	}
	defer resp.Body.Close()

	logger.Debug("jmap exchange",
		logging.String("method", method),
		logging.String("url", target),
		logging.Int("status", resp.StatusCode),
		logging.Duration("duration", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusFailure(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, TransportFailure(fmt.Errorf("read response: %w", err))
	}
	return data, nil
}

func withCorrelation(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := logging.RequestIDFromContext(ctx); ok {
		return ctx
	}
	return logging.WithRequestID(ctx, uuid.NewString())
}

// statusFailure builds the failure for a non-2xx response, keeping up to
// maxErrorBody bytes of the body.
func statusFailure(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
	failure := &Error{Kind: KindAuthentication, StatusCode: resp.StatusCode}
	switch {
	case err != nil:
		failure.Detail = fmt.Sprintf("reading body failed after %d bytes: %v", len(data), err)
	case len(data) > maxErrorBody:
		data = data[:maxErrorBody]
		failure.Detail = fmt.Sprintf("body truncated to %d bytes", maxErrorBody)
	}
	failure.Body = string(data)
	return failure
}
