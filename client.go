// Package scorewire is the Go client SDK for the ScoreWire API.
//
// A Client owns an authenticated-request pipeline: bearer tokens are
// attached transparently, stale tokens are refreshed before use, and a 401
// response triggers exactly one coordinated refresh-and-retry. Token
// records persist in a configurable store (in-memory, file, or OS keyring)
// so sessions survive restarts when the embedding application wants them to.
package scorewire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/scorewire/scorewire-go/apierr"
	"github.com/scorewire/scorewire-go/token"
	"github.com/scorewire/scorewire-go/transport"
)

// Client is a ScoreWire API client. Each instance owns an independent token
// manager and request pipeline; create one per logged-in session or tenant.
type Client struct {
	cfg      *Config
	baseURL  *url.URL
	manager  *token.Manager
	pipeline *transport.Pipeline
	httpc    *http.Client
	logger   *slog.Logger
}

// New creates a Client from the given configuration.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	baseURL, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	store, err := cfg.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}

	c := &Client{
		cfg:     cfg,
		baseURL: baseURL,
		manager: token.NewManager(store, token.WithLogger(cfg.Logger)),
		logger:  cfg.Logger,
	}

	c.pipeline = transport.NewPipeline(c.manager, c.refreshTokens,
		transport.WithCustomerToken(cfg.CustomerToken),
		transport.WithLogger(cfg.Logger),
	)
	c.httpc = &http.Client{
		Transport: c.pipeline,
		Timeout:   cfg.Timeout,
	}

	return c, nil
}

// Tokens exposes the client's token manager, e.g. for checking HasTokens
// before deciding whether to show a login flow.
func (c *Client) Tokens() *token.Manager {
	return c.manager
}

// Get issues a GET through the pipeline and decodes the JSON response into
// out (which may be nil to discard the body). path is a rooted API path;
// pass query parameters with WithQuery rather than embedding them in path.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post issues a POST with a JSON-encoded body through the pipeline and
// decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	o := applyOptions(opts)

	if o.skipAuth {
		ctx = transport.WithSkipAuth(ctx)
	}
	if o.customerScope {
		ctx = transport.WithCustomerScope(ctx)
	}

	// path is a rooted API path; query parameters go through WithQuery, not
	// the path string. JoinPath escapes segments and collapses ./.. so a
	// suspect path cannot step outside the base URL.
	u := c.baseURL.JoinPath(path)
	if len(o.query) > 0 {
		u.RawQuery = o.query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		// bytes.Reader gives the request a GetBody, so the pipeline can
		// replay it on a 401 retry.
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return apierr.FromError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierr.FromError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierr.FromResponse(resp, payload)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apierr.Newf(apierr.KindUnknownError, "decoding response: %v", err)
	}
	return nil
}
