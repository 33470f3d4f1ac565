package scorewire_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scorewire "github.com/scorewire/scorewire-go"
	"github.com/scorewire/scorewire-go/apierr"
	"github.com/scorewire/scorewire-go/token"
)

// apiServer is a fake ScoreWire API backed by httptest.
type apiServer struct {
	*httptest.Server
	mux *http.ServeMux

	refreshHits atomic.Int32
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	s := &apiServer{mux: http.NewServeMux()}
	s.Server = httptest.NewServer(s.mux)
	t.Cleanup(s.Close)
	return s
}

func (s *apiServer) handleLogin(path string, triple map[string]any) {
	s.mux.HandleFunc("POST "+path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, triple)
	})
}

func (s *apiServer) handleRefresh(path, wantToken string, triple map[string]any) {
	s.mux.HandleFunc("GET "+path, func(w http.ResponseWriter, r *http.Request) {
		s.refreshHits.Add(1)
		if r.URL.Query().Get("token") != wantToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, triple)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newClient(t *testing.T, s *apiServer) *scorewire.Client {
	t.Helper()
	client, err := scorewire.New(&scorewire.Config{BaseURL: s.URL})
	require.NoError(t, err)
	return client
}

func TestLoginUserSavesTokens(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	server.handleLogin("/users/login", map[string]any{
		"accessToken":  "A1",
		"refreshToken": "R1",
		"expiresIn":    3600,
		"user":         map[string]any{"id": "u-1", "username": "alice", "email": "alice@example.com"},
	})

	client := newClient(t, server)
	session, err := client.LoginUser(ctx, "alice", "secret")
	require.NoError(t, err)

	require.NotNil(t, session.User)
	assert.Equal(t, "alice", session.User.Username)

	tokens := client.Tokens()
	assert.True(t, tokens.HasTokens(ctx))
	assert.False(t, tokens.IsExpired(ctx))
	assert.Equal(t, token.TenantUser, tokens.TenantType(ctx))
	assert.Equal(t, "A1", tokens.AccessToken(ctx))
	assert.Equal(t, "R1", tokens.RefreshToken(ctx))
}

func TestLoginUserSendsConfiguredCustomerToken(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)

	var gotCtoken string
	server.mux.HandleFunc("POST /users/login", func(w http.ResponseWriter, r *http.Request) {
		gotCtoken = r.Header.Get("ctoken")
		writeJSON(w, map[string]any{
			"accessToken":  "A1",
			"refreshToken": "R1",
			"expiresIn":    3600,
			"user":         map[string]any{"id": "u-1", "username": "alice"},
		})
	})

	client, err := scorewire.New(&scorewire.Config{
		BaseURL:       server.URL,
		CustomerToken: "customer-secret",
	})
	require.NoError(t, err)

	_, err = client.LoginUser(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "customer-secret", gotCtoken)
}

func TestLoginUserWithoutCustomerToken(t *testing.T) {
	server := newAPIServer(t)

	gotCtoken := "unset"
	server.mux.HandleFunc("POST /users/login", func(w http.ResponseWriter, r *http.Request) {
		gotCtoken = r.Header.Get("ctoken")
		writeJSON(w, map[string]any{"accessToken": "A1", "refreshToken": "R1", "expiresIn": 3600})
	})

	client := newClient(t, server)
	_, err := client.LoginUser(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Empty(t, gotCtoken)
}

func TestLoginScenarioWithTransparentRefresh(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	// Short lifetime so the saved record is inside the freshness buffer
	// and the next call must refresh first.
	server.handleLogin("/users/login", map[string]any{
		"accessToken":  "A1",
		"refreshToken": "R1",
		"expiresIn":    200,
		"user":         map[string]any{"id": "u-1", "username": "alice"},
	})
	server.handleRefresh("/users/refresh-token", "R1", map[string]any{
		"accessToken":  "A2",
		"refreshToken": "R2",
		"expiresIn":    3600,
	})

	var gotAuth string
	server.mux.HandleFunc("GET /scores/current", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, map[string]any{"value": 742})
	})

	client := newClient(t, server)
	_, err := client.LoginUser(ctx, "alice", "secret")
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, client.Get(ctx, "/scores/current", &out))

	assert.Equal(t, int32(1), server.refreshHits.Load())
	assert.Equal(t, "Bearer A2", gotAuth)
	assert.Equal(t, "A2", client.Tokens().AccessToken(ctx))
	assert.Equal(t, "R2", client.Tokens().RefreshToken(ctx))
	assert.Equal(t, token.TenantUser, client.Tokens().TenantType(ctx))
}

func TestLoginInvalidCredentials(t *testing.T) {
	server := newAPIServer(t)
	server.mux.HandleFunc("POST /users/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(w, map[string]any{"message": "bad username or password"})
	})

	client := newClient(t, server)
	_, err := client.LoginUser(context.Background(), "alice", "wrong")

	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.KindInvalidCredentials))
	assert.False(t, client.Tokens().HasTokens(context.Background()))
}

func TestRefreshRoutesByTenantType(t *testing.T) {
	tests := []struct {
		tenant token.TenantType
		path   string
	}{
		{token.TenantUser, "/users/refresh-token"},
		{token.TenantCustomer, "/customers/refresh-token"},
		{token.TenantDirect, "/direct/refresh-token"},
	}

	for _, tt := range tests {
		t.Run(string(tt.tenant), func(t *testing.T) {
			ctx := context.Background()
			server := newAPIServer(t)
			server.handleRefresh(tt.path, "R1", map[string]any{
				"accessToken":  "A2",
				"refreshToken": "R2",
				"expiresIn":    3600,
			})

			client := newClient(t, server)
			require.NoError(t, client.Tokens().SaveTokens(ctx, "A1", "R1", 3600, tt.tenant))

			require.NoError(t, client.Refresh(ctx))

			assert.Equal(t, int32(1), server.refreshHits.Load())
			assert.Equal(t, "A2", client.Tokens().AccessToken(ctx))
			// Refresh preserves the tenant type of the record being refreshed
			assert.Equal(t, tt.tenant, client.Tokens().TenantType(ctx))
		})
	}
}

func TestRefreshWithoutTokens(t *testing.T) {
	server := newAPIServer(t)
	client := newClient(t, server)

	err := client.Refresh(context.Background())

	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.KindTokenRequired))
	assert.Equal(t, int32(0), server.refreshHits.Load())
}

func TestLoginCustomer(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	server.handleLogin("/customers/login", map[string]any{
		"accessToken":  "CA1",
		"refreshToken": "CR1",
		"expiresIn":    3600,
		"customer":     map[string]any{"id": "c-1", "name": "Acme Ltd"},
	})

	client := newClient(t, server)
	session, err := client.LoginCustomer(ctx, "acme", "secret")
	require.NoError(t, err)

	require.NotNil(t, session.Customer)
	assert.Equal(t, "Acme Ltd", session.Customer.Name)
	assert.Equal(t, token.TenantCustomer, client.Tokens().TenantType(ctx))
}

func TestLoginDirect(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	server.mux.HandleFunc("POST /direct/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["apiKey"] != "key-1" || body["apiSecret"] != "secret-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{
			"accessToken":  "DA1",
			"refreshToken": "DR1",
			"expiresIn":    3600,
			"integration":  map[string]any{"name": "batch-importer", "scopes": []string{"scores:read"}},
		})
	})

	client := newClient(t, server)
	session, err := client.LoginDirect(ctx, "key-1", "secret-1")
	require.NoError(t, err)

	require.NotNil(t, session.Integration)
	assert.Equal(t, "batch-importer", session.Integration.Name)
	assert.Equal(t, token.TenantDirect, client.Tokens().TenantType(ctx))
}

func TestRegisterWithoutTokens(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	server.mux.HandleFunc("POST /users/register", func(w http.ResponseWriter, r *http.Request) {
		// Deployment requiring verification: account created, no tokens yet
		writeJSON(w, map[string]any{"user": map[string]any{"id": "u-2", "username": "bob"}})
	})

	client := newClient(t, server)
	result, err := client.Register(ctx, scorewire.RegisterParams{Username: "bob", Email: "bob@example.com", Password: "pw"})
	require.NoError(t, err)

	require.NotNil(t, result.User)
	assert.False(t, client.Tokens().HasTokens(ctx))
}

func TestRegisterWithTokens(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	server.handleLogin("/users/register", map[string]any{
		"accessToken":  "A1",
		"refreshToken": "R1",
		"expiresIn":    3600,
		"user":         map[string]any{"id": "u-2", "username": "bob"},
	})

	client := newClient(t, server)
	_, err := client.Register(ctx, scorewire.RegisterParams{Username: "bob", Email: "bob@example.com", Password: "pw"})
	require.NoError(t, err)

	assert.True(t, client.Tokens().HasTokens(ctx))
	assert.Equal(t, token.TenantUser, client.Tokens().TenantType(ctx))
}

func TestExchangePreAuthToken(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	server.mux.HandleFunc("POST /users/token-exchange", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["token"] != "pre-auth-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{"accessToken": "A1", "refreshToken": "R1", "expiresIn": 3600})
	})

	client := newClient(t, server)
	_, err := client.ExchangePreAuthToken(ctx, "pre-auth-1")
	require.NoError(t, err)

	assert.True(t, client.Tokens().HasTokens(ctx))
}

func TestLogoutIdempotent(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	client := newClient(t, server)

	// Logout with nothing stored succeeds
	require.NoError(t, client.Logout(ctx))
	assert.False(t, client.Tokens().HasTokens(ctx))

	require.NoError(t, client.Tokens().SaveTokens(ctx, "A1", "R1", 3600, token.TenantUser))
	require.NoError(t, client.Logout(ctx))
	assert.False(t, client.Tokens().HasTokens(ctx))
}

func TestUnrecoverableRefreshLogsOut(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	server.mux.HandleFunc("GET /users/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(w, map[string]any{"message": "refresh token revoked"})
	})
	server.mux.HandleFunc("GET /scores/current", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client := newClient(t, server)
	require.NoError(t, client.Tokens().SaveTokens(ctx, "A1", "R1", 3600, token.TenantUser))

	err := client.Get(ctx, "/scores/current", nil)

	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.KindTokenRefreshFailed))
	// The caller can now redirect to a login flow
	assert.False(t, client.Tokens().HasTokens(ctx))
}

func TestErrorNormalization(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)
	server.mux.HandleFunc("GET /scores/current", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		writeJSON(w, map[string]any{
			"code":    "VALIDATION_ERROR",
			"message": "months must be positive",
			"details": map[string]any{"field": "months"},
		})
	})

	client := newClient(t, server)
	require.NoError(t, client.Tokens().SaveTokens(ctx, "A1", "R1", 3600, token.TenantUser))

	err := client.Get(ctx, "/scores/current", nil)

	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.KindValidationError, apiErr.Kind)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "months must be positive", apiErr.Message)
	assert.Equal(t, "months", apiErr.Details["field"])
}

func TestConfigDefaults(t *testing.T) {
	cfg := &scorewire.Config{BaseURL: "https://api.example.com"}
	require.NoError(t, cfg.ApplyDefaults())

	assert.Equal(t, scorewire.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, scorewire.StorageTypeMemory, cfg.Storage)
}

func TestConfigRequiresBaseURL(t *testing.T) {
	_, err := scorewire.New(&scorewire.Config{})
	require.Error(t, err)
}

func TestRequestPathNormalized(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)

	hits := 0
	server.mux.HandleFunc("GET /scores/current", func(w http.ResponseWriter, r *http.Request) {
		hits++
		writeJSON(w, map[string]any{"value": 742})
	})

	client := newClient(t, server)
	require.NoError(t, client.Tokens().SaveTokens(ctx, "A1", "R1", 3600, token.TenantUser))

	// Doubled separators and dot segments collapse instead of producing a
	// malformed request URL.
	require.NoError(t, client.Get(ctx, "/scores//current", nil))
	require.NoError(t, client.Get(ctx, "/scores/../scores/current", nil))
	assert.Equal(t, 2, hits)
}

func TestConfigExtraHeaders(t *testing.T) {
	ctx := context.Background()
	server := newAPIServer(t)

	var gotHeader string
	server.mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-App-Version")
	})

	client, err := scorewire.New(&scorewire.Config{
		BaseURL: server.URL,
		Headers: map[string]string{"X-App-Version": "3.14.0"},
	})
	require.NoError(t, err)
	require.NoError(t, client.Tokens().SaveTokens(ctx, "A1", "R1", 3600, token.TenantUser))

	require.NoError(t, client.Get(ctx, "/ping", nil))
	assert.Equal(t, "3.14.0", gotHeader)
}
