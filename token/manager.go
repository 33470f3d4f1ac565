package token

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/scorewire/scorewire-go/tokenstore"
)

// StorageKey is the single well-known key under which the serialized
// record lives in the backing store.
const StorageKey = "scorewire.tokens"

// Manager owns token lifecycle state over a tokenstore.Store. It performs
// no network calls; refresh semantics live in the transport layer.
//
// At most one record exists at a time: saving replaces the prior record as
// one atomic store write, so no partial record is ever observable.
type Manager struct {
	store  tokenstore.Store
	logger *slog.Logger
	now    func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger used for degraded storage reads and writes.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager over the given store.
func NewManager(store tokenstore.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SaveTokens persists a new record with IssuedAt set to now, atomically
// replacing any prior record.
func (m *Manager) SaveTokens(ctx context.Context, accessToken, refreshToken string, expiresIn int64, tenant TenantType) error {
	record := Record{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		TenantType:   tenant,
		IssuedAt:     m.now().UnixMilli(),
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return m.store.Set(ctx, StorageKey, string(payload))
}

// Tokens returns the stored record, or nil if none exists. Storage failures
// and corrupt payloads are logged and treated as absent, never raised:
// losing a record only forces re-authentication.
func (m *Manager) Tokens(ctx context.Context) *Record {
	payload, err := m.store.Get(ctx, StorageKey)
	if err != nil {
		m.logger.WarnContext(ctx, "token store read failed", "error", err)
		return nil
	}
	if payload == "" {
		return nil
	}

	var record Record
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		m.logger.WarnContext(ctx, "discarding corrupt token record", "error", err)
		return nil
	}

	return &record
}

// AccessToken returns the stored access token, or "" if no record exists.
func (m *Manager) AccessToken(ctx context.Context) string {
	if record := m.Tokens(ctx); record != nil {
		return record.AccessToken
	}
	return ""
}

// RefreshToken returns the stored refresh token, or "" if no record exists.
func (m *Manager) RefreshToken(ctx context.Context) string {
	if record := m.Tokens(ctx); record != nil {
		return record.RefreshToken
	}
	return ""
}

// TenantType returns the stored tenant type, or "" if no record exists.
func (m *Manager) TenantType(ctx context.Context) TenantType {
	if record := m.Tokens(ctx); record != nil {
		return record.TenantType
	}
	return ""
}

// IsExpired reports whether a refresh is needed before the access token can
// be used. Returns true when no record exists.
func (m *Manager) IsExpired(ctx context.Context) bool {
	record := m.Tokens(ctx)
	if record == nil {
		return true
	}
	return !record.Fresh(m.now())
}

// HasTokens reports whether a record with a non-empty access token exists.
func (m *Manager) HasTokens(ctx context.Context) bool {
	record := m.Tokens(ctx)
	return record != nil && record.AccessToken != ""
}

// ClearTokens removes the stored record. Clearing when no record exists is
// a no-op.
func (m *Manager) ClearTokens(ctx context.Context) error {
	return m.store.Remove(ctx, StorageKey)
}
