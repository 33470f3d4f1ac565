package token

import "time"

// TenantType identifies which principal kind a token record belongs to.
// It determines the login/refresh endpoint family and is immutable for the
// lifetime of a record: refreshing preserves it, switching requires a
// fresh login.
type TenantType string

const (
	// TenantUser is an authenticated end user.
	TenantUser TenantType = "user"
	// TenantCustomer is a B2B business customer.
	TenantCustomer TenantType = "customer"
	// TenantDirect is a machine-to-machine API-key integration.
	TenantDirect TenantType = "direct"
)

// Valid reports whether t is one of the known tenant types.
func (t TenantType) Valid() bool {
	switch t {
	case TenantUser, TenantCustomer, TenantDirect:
		return true
	}
	return false
}

// ExpiryBuffer is subtracted from a record's nominal lifetime when
// evaluating freshness, so a request's round-trip never races the literal
// expiry instant.
const ExpiryBuffer = 5 * time.Minute

// Record is the single persisted token entity.
//
// Wire names are fixed: tokenType carries the tenant type and timestamp is
// the issue instant in milliseconds since epoch.
type Record struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	ExpiresIn    int64      `json:"expiresIn"`
	TenantType   TenantType `json:"tokenType"`
	IssuedAt     int64      `json:"timestamp"`
}

// ExpiresAt returns the instant at which the record stops being fresh,
// i.e. nominal expiry minus ExpiryBuffer.
func (r *Record) ExpiresAt() time.Time {
	issued := time.UnixMilli(r.IssuedAt)
	return issued.Add(time.Duration(r.ExpiresIn) * time.Second).Add(-ExpiryBuffer)
}

// Fresh reports whether the record's access token is still usable at now.
func (r *Record) Fresh(now time.Time) bool {
	return now.Before(r.ExpiresAt())
}
