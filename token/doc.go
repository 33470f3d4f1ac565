// Package token manages the persisted token record: save, retrieval,
// freshness evaluation, and tenant-type tracking over a pluggable store.
//
// A record is fresh while now < issuedAt + expiresIn, minus a five-minute
// buffer (ExpiryBuffer). Absence of a record means "not authenticated".
package token
