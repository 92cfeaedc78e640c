// Package storage holds the pieces every Postgres-backed store in sessiond
// shares: the storage error kind, identifier quoting, constraint
// classification and the embedded schema.
//
// The pgx pool is always owned by the caller. Stores never close it.
package storage
