package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/scorewire/scorewire-go/apierr"
	"github.com/scorewire/scorewire-go/token"
)

// RefreshFunc performs one token refresh against the server and persists
// the result. It must fail with apierr.KindTokenRequired, without touching
// the network, when no refresh token is stored.
type RefreshFunc func(ctx context.Context) error

// Pipeline is an http.RoundTripper that makes authentication transparent to
// every request sent through it:
//
//   - outbound, it attaches the bearer token, refreshing it first if the
//     stored record is stale, so no request is sent with a token already
//     known to be expired;
//   - inbound, it reacts to a 401 with exactly one refresh-and-retry.
//
// Refreshes are single-flight: if N requests discover a stale token
// concurrently, one refresh call is issued and all N observe its outcome.
// Each client instance owns an independent Pipeline; there is no process-
// wide state.
type Pipeline struct {
	base          http.RoundTripper
	manager       *token.Manager
	refresh       RefreshFunc
	customerToken string
	logger        *slog.Logger

	group singleflight.Group
}

// Compile-time check that Pipeline implements http.RoundTripper.
var _ http.RoundTripper = (*Pipeline)(nil)

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithBase sets the underlying transport. Defaults to http.DefaultTransport.
func WithBase(base http.RoundTripper) PipelineOption {
	return func(p *Pipeline) {
		p.base = base
	}
}

// WithCustomerToken configures the fixed secondary tenant token attached as
// a ctoken header on customer-scoped requests.
func WithCustomerToken(customerToken string) PipelineOption {
	return func(p *Pipeline) {
		p.customerToken = customerToken
	}
}

// WithLogger sets the pipeline's logger.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates a Pipeline over the given token manager and refresh
// function.
func NewPipeline(manager *token.Manager, refresh RefreshFunc, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		base:    http.DefaultTransport,
		manager: manager,
		refresh: refresh,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RoundTrip implements http.RoundTripper.
func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if SkipAuth(ctx) {
		return p.base.RoundTrip(p.decorate(req))
	}

	// Proactive refresh: a failure here is recovered by letting the request
	// proceed with the existing (possibly stale) token. Tokens are cleared
	// only on the 401 retry path below, so a transient blip on the refresh
	// endpoint does not log the user out.
	if p.manager.IsExpired(ctx) {
		if err := p.Refresh(ctx); err != nil {
			p.logger.WarnContext(ctx, "proactive token refresh failed", "error", err)
		}
	}

	resp, err := p.base.RoundTrip(p.authorize(req))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// Retry marker: the retry happens inline, once, so a second 401 below is
	// returned as-is and can never re-enter this branch.
	retry, ok := p.replayable(req)
	if !ok {
		return resp, nil
	}

	drain(resp)

	if err := p.Refresh(ctx); err != nil {
		// The refresh token itself is unusable. This is the only path that
		// actively logs the user out.
		if clearErr := p.manager.ClearTokens(ctx); clearErr != nil {
			p.logger.ErrorContext(ctx, "failed to clear tokens after refresh failure", "error", clearErr)
		}
		if apierr.IsKind(err, apierr.KindTokenRequired) {
			return nil, err
		}
		return nil, &apierr.Error{
			Kind:    apierr.KindTokenRefreshFailed,
			Message: "token refresh failed: " + err.Error(),
			Status:  http.StatusUnauthorized,
		}
	}

	return p.base.RoundTrip(p.authorize(retry))
}

// Refresh runs the refresh function, coalescing concurrent callers onto a
// single in-flight operation. The operation runs detached from any one
// caller's cancellation so other awaiters are never left with a half-done
// refresh.
func (p *Pipeline) Refresh(ctx context.Context) error {
	_, err, _ := p.group.Do("refresh", func() (any, error) {
		return nil, p.refresh(context.WithoutCancel(ctx))
	})
	return err
}

// authorize attaches credential headers to a clone of req.
func (p *Pipeline) authorize(req *http.Request) *http.Request {
	out := p.decorate(req)
	if accessToken := p.manager.AccessToken(req.Context()); accessToken != "" {
		out.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return out
}

// decorate clones req, stamps a request ID if the caller didn't, and
// attaches the ctoken header on customer-scoped calls.
func (p *Pipeline) decorate(req *http.Request) *http.Request {
	out := req.Clone(req.Context())
	if out.Header.Get("X-Request-Id") == "" {
		out.Header.Set("X-Request-Id", uuid.NewString())
	}
	if CustomerScope(req.Context()) && p.customerToken != "" {
		out.Header.Set("ctoken", p.customerToken)
	}
	return out
}

// replayable returns a copy of req suitable for re-issuing. Requests with a
// body that cannot be replayed (no GetBody) are not retried.
func (p *Pipeline) replayable(req *http.Request) (*http.Request, bool) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	retry.Body = body
	return retry, true
}

// drain consumes and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
