package scorewire

import "net/url"

type requestOptions struct {
	skipAuth      bool
	customerScope bool
	query         url.Values
}

// RequestOption adjusts a single request issued through the client.
type RequestOption func(*requestOptions)

// WithSkipAuth sends the request without a bearer token and without 401
// refresh handling.
func WithSkipAuth() RequestOption {
	return func(o *requestOptions) {
		o.skipAuth = true
	}
}

// WithCustomerScope attaches the configured secondary tenant token as a
// ctoken header, scoping the call to a downstream business customer.
func WithCustomerScope() RequestOption {
	return func(o *requestOptions) {
		o.customerScope = true
	}
}

// WithQuery adds a query string parameter to the request URL.
func WithQuery(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = url.Values{}
		}
		o.query.Set(key, value)
	}
}

func applyOptions(opts []RequestOption) requestOptions {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
