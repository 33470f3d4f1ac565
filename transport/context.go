package transport

import "context"

type contextKey int

const (
	skipAuthKey contextKey = iota
	customerScopeKey
)

// WithSkipAuth marks a request's context so the pipeline neither attaches a
// bearer token nor reacts to a 401. Used for login, refresh, and password
// recovery endpoints, which must work without credentials.
func WithSkipAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipAuthKey, true)
}

// SkipAuth reports whether the context carries the skip-auth marker.
func SkipAuth(ctx context.Context) bool {
	v, _ := ctx.Value(skipAuthKey).(bool)
	return v
}

// WithCustomerScope marks a request's context so the pipeline attaches the
// configured secondary tenant token as a ctoken header, scoping the call to
// a specific downstream business customer.
func WithCustomerScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, customerScopeKey, true)
}

// CustomerScope reports whether the context carries the customer-scope marker.
func CustomerScope(ctx context.Context) bool {
	v, _ := ctx.Value(customerScopeKey).(bool)
	return v
}
