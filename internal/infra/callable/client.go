// Package callable invokes HTTPS callable functions.
//
// A call is a POST of {"data": <payload>} to <baseURL>/<name>. A successful
// function answers 200 with {"result": ...}; a failed one answers with
// {"error": {"status": "INTERNAL", "message": "..."}}.
package callable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	domain "github.com/bryanwahyu/mediassist-gateway/internal/domain/symptoms"
)

const (
	defaultRegion  = "us-central1"
	defaultTimeout = 60 * time.Second
	maxResultBytes = 10 << 20

	AuthIDToken = "idtoken"
	AuthNone    = "none"
)

// TokenSourceFunc returns an ID token source for the given audience
type TokenSourceFunc func(ctx context.Context, audience string) (oauth2.TokenSource, error)

type Config struct {
	// BaseURL overrides the project/region URL, e.g. the local emulator
	// http://127.0.0.1:5001/<project>/<region>
	BaseURL         string
	Project         string
	Region          string
	Auth            string
	CredentialsFile string
	Timeout         time.Duration

	// TokenSource replaces the default idtoken source; used in tests.
	TokenSource TokenSourceFunc
	HTTPClient  *http.Client
}

// Client implements symptoms.Invoker
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSourceFunc

	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

var _ domain.Invoker = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		if cfg.Project == "" {
			return nil, errors.New("callable: project or base URL is required")
		}
		region := cfg.Region
		if region == "" {
			region = defaultRegion
		}
		base = fmt.Sprintf("https://%s-%s.cloudfunctions.net", region, cfg.Project)
	}

	httpc := cfg.HTTPClient
	if httpc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpc = &http.Client{Timeout: timeout}
	}

	c := &Client{
		baseURL: base,
		httpc:   httpc,
		sources: make(map[string]oauth2.TokenSource),
	}

	switch cfg.Auth {
	case AuthNone:
	case "", AuthIDToken:
		c.tokens = cfg.TokenSource
		if c.tokens == nil {
			c.tokens = idTokenSource(cfg.CredentialsFile)
		}
	default:
		return nil, fmt.Errorf("callable: unknown auth mode %q", cfg.Auth)
	}
	return c, nil
}

// idTokenSource uses application default credentials unless a file is given
func idTokenSource(credentialsFile string) TokenSourceFunc {
	return func(ctx context.Context, audience string) (oauth2.TokenSource, error) {
		var opts []option.ClientOption
		if credentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(credentialsFile))
		}
		return idtoken.NewTokenSource(ctx, audience, opts...)
	}
}

// URL returns the endpoint of the named function
func (c *Client) URL(name string) string {
	return c.baseURL + "/" + name
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	// older callable servers answer with "data"
	Data  json.RawMessage `json:"data"`
	Error *callError      `json:"error"`
}

type callError struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

func (c *Client) Invoke(ctx context.Context, name string, payload any) (json.RawMessage, error) {
	url := c.URL(name)

	body, err := json.Marshal(map[string]any{"data": payload})
	if err != nil {
		return nil, &domain.RemoteInvocationError{Code: "INVALID_ARGUMENT", Message: "encode payload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.RemoteInvocationError{Code: "INTERNAL", Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	if c.tokens != nil {
		tok, err := c.token(url)
		if err != nil {
			return nil, &domain.RemoteInvocationError{Code: "UNAUTHENTICATED", Message: "obtain id token", Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		code := "UNAVAILABLE"
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			code = "DEADLINE_EXCEEDED"
		}
		return nil, &domain.RemoteInvocationError{Code: code, Message: "call " + name, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResultBytes))
	if err != nil {
		return nil, &domain.RemoteInvocationError{Code: "UNAVAILABLE", Message: "read response", Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if env.Error != nil && decodeErr == nil {
		code := env.Error.Status
		if code == "" {
			code = codeForHTTPStatus(resp.StatusCode)
		}
		slog.Debug("callable.Client.Invoke: function returned error", "function", name, "code", code, "http_status", resp.StatusCode)
		return nil, &domain.RemoteInvocationError{Code: code, Message: env.Error.Message}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.RemoteInvocationError{
			Code:    codeForHTTPStatus(resp.StatusCode),
			Message: fmt.Sprintf("function %s answered %s", name, resp.Status),
		}
	}
	if decodeErr != nil {
		return nil, &domain.RemoteInvocationError{Code: "INTERNAL", Message: "response is not a callable envelope", Err: decodeErr}
	}

	switch {
	case len(env.Result) > 0:
		return env.Result, nil
	case len(env.Data) > 0:
		return env.Data, nil
	default:
		return nil, &domain.RemoteInvocationError{Code: "INTERNAL", Message: "response has no result"}
	}
}

func (c *Client) token(audience string) (string, error) {
	ts, err := c.source(audience)
	if err != nil {
		return "", err
	}
	tok, err := ts.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// source returns the cached token source for audience. It is built without
// holding the lock and outlives any request, so it gets a background context.
func (c *Client) source(audience string) (oauth2.TokenSource, error) {
	c.mu.Lock()
	ts, ok := c.sources[audience]
	c.mu.Unlock()
	if ok {
		return ts, nil
	}

	src, err := c.tokens(context.Background(), audience)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ts, ok := c.sources[audience]; ok {
		return ts, nil
	}
	ts = oauth2.ReuseTokenSource(nil, src)
	c.sources[audience] = ts
	return ts, nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func codeForHTTPStatus(status int) string {
	switch status {
	case http.StatusOK:
		return "OK"
	case http.StatusBadRequest:
		return "INVALID_ARGUMENT"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "PERMISSION_DENIED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "ABORTED"
	case http.StatusTooManyRequests:
		return "RESOURCE_EXHAUSTED"
	case 499:
		return "CANCELLED"
	case http.StatusNotImplemented:
		return "UNIMPLEMENTED"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "UNAVAILABLE"
	case http.StatusGatewayTimeout:
		return "DEADLINE_EXCEEDED"
	default:
		return "INTERNAL"
	}
}
