// Package client is the HTTP client of the abacus API. It implements
// session.Upstream so a session.Manager can run against a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/abacus-app/abacus/internal/calc"
	"github.com/abacus-app/abacus/internal/config"
	"github.com/abacus-app/abacus/internal/model"
	"github.com/abacus-app/abacus/internal/session"
)

const (
	// DefaultTimeout is the per-request timeout when none is configured.
	DefaultTimeout = 10 * time.Second
	// DefaultPollInterval is the wait between federated sign-in polls.
	DefaultPollInterval = 2 * time.Second
	// defaultFlowTTL bounds a federated sign-in when the server sends no expiry.
	defaultFlowTTL = 10 * time.Minute

	maxErrorBody = 64 << 10
)

var _ session.Upstream = (*Client)(nil)

// APIError is a failed response that carries no calculator or auth code.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// Client talks to the abacus API.
type Client struct {
	baseURL      string
	http         *http.Client
	tokens       TokenStore
	logger       *slog.Logger
	openURL      func(string) error
	pollInterval time.Duration

	mu       sync.Mutex
	watchers map[int]func(*session.Credential)
	nextID   int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenStore sets where the session token is kept.
func WithTokenStore(s TokenStore) Option {
	return func(c *Client) { c.tokens = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithBrowser sets the function that presents the consent URL to the user.
func WithBrowser(open func(url string) error) Option {
	return func(c *Client) { c.openURL = open }
}

// WithPollInterval sets the wait between federated sign-in polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// New creates a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: DefaultTimeout},
		tokens:       &MemoryTokenStore{},
		logger:       slog.Default(),
		openURL:      OpenBrowser,
		pollInterval: DefaultPollInterval,
		watchers:     make(map[int]func(*session.Credential)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a Client that keeps its token in cfg.TokenFile.
func NewFromConfig(cfg *config.ClientConfig, logger *slog.Logger, opts ...Option) *Client {
	base := []Option{
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		WithTokenStore(NewFileTokenStore(cfg.TokenFile)),
		WithLogger(logger),
	}
	return New(cfg.APIURL, append(base, opts...)...)
}

// SignedIn reports whether a session token is stored.
func (c *Client) SignedIn() bool {
	token, err := c.tokens.Load()
	return err == nil && token != ""
}

// do sends a JSON request and decodes a 200/201 body into out.
// Error responses are returned as *calc.Error, *model.AuthError or *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Load()
	if err != nil {
		return 0, fmt.Errorf("load token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, decodeError(resp)
	}
	if out != nil && (resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated) {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func decodeError(resp *http.Response) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Code == "" {
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	code, msg := envelope.Error.Code, envelope.Error.Message
	switch {
	case code == calc.ErrorCodeInvalidArgument:
		return &calc.Error{Code: code, Message: msg}
	case strings.HasPrefix(code, "auth/"):
		return model.NewAuthError(code, msg)
	default:
		return &APIError{Status: resp.StatusCode, Code: code, Message: msg}
	}
}
