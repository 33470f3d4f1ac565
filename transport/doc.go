// Package transport implements the authenticated-request pipeline: bearer
// token attachment, proactive refresh of stale tokens, single-flight
// refresh coordination, and a single refresh-and-retry on 401 responses.
//
// The pipeline is a plain http.RoundTripper, so it composes with any
// http.Client and stays transparent to callers of the underlying transport.
package transport
