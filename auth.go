package scorewire

import (
	"context"
	"fmt"

	"github.com/scorewire/scorewire-go/apierr"
	"github.com/scorewire/scorewire-go/token"
)

// UserProfile describes an authenticated end user.
type UserProfile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// CustomerProfile describes an authenticated B2B customer account.
type CustomerProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IntegrationInfo describes a direct (API key) integration.
type IntegrationInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Scopes      []string `json:"scopes,omitempty"`
}

// tokenTriple is the credential set every successful auth operation yields.
type tokenTriple struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

func (t tokenTriple) present() bool {
	return t.AccessToken != "" && t.RefreshToken != ""
}

// UserSession is the result of a user login.
type UserSession struct {
	tokenTriple
	User *UserProfile `json:"user"`
}

// CustomerSession is the result of a customer login.
type CustomerSession struct {
	tokenTriple
	Customer *CustomerProfile `json:"customer"`
}

// DirectSession is the result of a direct (API key + secret) login.
type DirectSession struct {
	tokenTriple
	Integration *IntegrationInfo `json:"integration"`
}

// RegisterParams are the fields for creating a user account.
type RegisterParams struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// RegisterResult is the response to a registration. Deployments requiring a
// verification step return no tokens; the triple is saved only when present.
type RegisterResult struct {
	tokenTriple
	User *UserProfile `json:"user"`
}

// ExchangeResult is the response to a pre-auth token exchange.
type ExchangeResult struct {
	tokenTriple
	User *UserProfile `json:"user,omitempty"`
}

// loginPath returns the tenant-scoped login route.
func loginPath(tenant token.TenantType) string {
	switch tenant {
	case token.TenantCustomer:
		return "/customers/login"
	case token.TenantDirect:
		return "/direct/login"
	default:
		return "/users/login"
	}
}

// refreshPath returns the tenant-scoped refresh route.
func refreshPath(tenant token.TenantType) string {
	switch tenant {
	case token.TenantCustomer:
		return "/customers/refresh-token"
	case token.TenantDirect:
		return "/direct/refresh-token"
	default:
		return "/users/refresh-token"
	}
}

// LoginUser authenticates an end user with username and password. When a
// secondary tenant token is configured on the client, it rides along as a
// ctoken header so the session is customer-scoped from the first call.
func (c *Client) LoginUser(ctx context.Context, username, password string) (*UserSession, error) {
	body := map[string]string{"username": username, "password": password}

	opts := []RequestOption{WithSkipAuth()}
	if c.cfg.CustomerToken != "" {
		opts = append(opts, WithCustomerScope())
	}

	var session UserSession
	if err := c.Post(ctx, loginPath(token.TenantUser), body, &session, opts...); err != nil {
		return nil, loginError(err)
	}

	c.saveTriple(ctx, session.tokenTriple, token.TenantUser)
	return &session, nil
}

// LoginCustomer authenticates a B2B customer account with username and
// password.
func (c *Client) LoginCustomer(ctx context.Context, username, password string) (*CustomerSession, error) {
	body := map[string]string{"username": username, "password": password}

	var session CustomerSession
	if err := c.Post(ctx, loginPath(token.TenantCustomer), body, &session, WithSkipAuth()); err != nil {
		return nil, loginError(err)
	}

	c.saveTriple(ctx, session.tokenTriple, token.TenantCustomer)
	return &session, nil
}

// LoginDirect authenticates a machine-to-machine integration with an API
// key and secret.
func (c *Client) LoginDirect(ctx context.Context, apiKey, apiSecret string) (*DirectSession, error) {
	body := map[string]string{"apiKey": apiKey, "apiSecret": apiSecret}

	var session DirectSession
	if err := c.Post(ctx, loginPath(token.TenantDirect), body, &session, WithSkipAuth()); err != nil {
		return nil, loginError(err)
	}

	c.saveTriple(ctx, session.tokenTriple, token.TenantDirect)
	return &session, nil
}

// Register creates a user account. Tokens are saved only when the response
// includes them; some deployments require verification first.
func (c *Client) Register(ctx context.Context, params RegisterParams) (*RegisterResult, error) {
	var result RegisterResult
	if err := c.Post(ctx, "/users/register", params, &result, WithSkipAuth()); err != nil {
		return nil, err
	}

	if result.present() {
		c.saveTriple(ctx, result.tokenTriple, token.TenantUser)
	}
	return &result, nil
}

// Refresh explicitly exchanges the stored refresh token for a new access
// token, routed by the stored tenant type. It shares the pipeline's
// single-flight slot, so an explicit refresh and an internally triggered
// one never run concurrently. Fails with TOKEN_REQUIRED when no refresh
// token is stored.
func (c *Client) Refresh(ctx context.Context) error {
	return c.pipeline.Refresh(ctx)
}

// Logout clears the stored tokens unconditionally. Calling it with no
// tokens stored is a no-op; no endpoint is called.
func (c *Client) Logout(ctx context.Context) error {
	return c.manager.ClearTokens(ctx)
}

// RecoverPassword starts a password recovery flow for the given email.
func (c *Client) RecoverPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.Post(ctx, "/users/recover-password", body, nil, WithSkipAuth())
}

// ResetPassword completes a password recovery flow with the one-shot reset
// token delivered to the user.
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	body := map[string]string{"token": resetToken, "password": newPassword}
	return c.Post(ctx, "/users/reset-password", body, nil, WithSkipAuth())
}

// ExchangePreAuthToken exchanges a one-shot pre-auth token, issued out of
// band, for a session. Tokens are saved when the response includes them.
func (c *Client) ExchangePreAuthToken(ctx context.Context, preAuthToken string) (*ExchangeResult, error) {
	body := map[string]string{"token": preAuthToken}

	var result ExchangeResult
	if err := c.Post(ctx, "/users/token-exchange", body, &result, WithSkipAuth()); err != nil {
		return nil, err
	}

	if result.present() {
		c.saveTriple(ctx, result.tokenTriple, token.TenantUser)
	}
	return &result, nil
}

// refreshTokens is the pipeline's RefreshFunc: it reads the stored refresh
// token and tenant type, calls the tenant's refresh endpoint, and persists
// the new triple preserving the tenant type. Never touches the network
// when no refresh token is stored.
func (c *Client) refreshTokens(ctx context.Context) error {
	record := c.manager.Tokens(ctx)
	if record == nil || record.RefreshToken == "" {
		return apierr.New(apierr.KindTokenRequired, "no refresh token available")
	}

	var triple tokenTriple
	err := c.Get(ctx, refreshPath(record.TenantType), &triple,
		WithSkipAuth(), WithQuery("token", record.RefreshToken))
	if err != nil {
		return fmt.Errorf("refreshing %s token: %w", record.TenantType, err)
	}

	if err := c.manager.SaveTokens(ctx, triple.AccessToken, triple.RefreshToken, triple.ExpiresIn, record.TenantType); err != nil {
		return fmt.Errorf("persisting refreshed tokens: %w", err)
	}
	return nil
}

// saveTriple persists a successful operation's tokens. Persistence failure
// is logged, not raised: the caller did authenticate, and losing the record
// only forces a later re-authentication.
func (c *Client) saveTriple(ctx context.Context, triple tokenTriple, tenant token.TenantType) {
	if err := c.manager.SaveTokens(ctx, triple.AccessToken, triple.RefreshToken, triple.ExpiresIn, tenant); err != nil {
		c.logger.ErrorContext(ctx, "failed to persist tokens", "tenant", tenant, "error", err)
	}
}

// loginError maps a 401 on a login endpoint to INVALID_CREDENTIALS; the
// caller supplied bad credentials rather than a bad token.
func loginError(err error) error {
	if apierr.IsKind(err, apierr.KindUnauthorized) {
		if apiErr := apierr.FromError(err); apiErr != nil {
			return &apierr.Error{
				Kind:    apierr.KindInvalidCredentials,
				Message: apiErr.Message,
				Status:  apiErr.Status,
				Details: apiErr.Details,
			}
		}
	}
	return err
}
