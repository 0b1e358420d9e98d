// Package remote defines the capability interface to the system of record
// and its implementations. The sync engine depends only on the Store
// interface, so the HTTP-backed store can be swapped for the in-memory one
// in tests without touching the engine.
package remote

import "context"

// Record is one existing remote record: its own canonical URL (used for
// update and delete) and its comparison fields coerced to strings.
type Record struct {
	URL    string
	Fields map[string]string
}

// Records is a set of remote records keyed by natural key.
type Records map[string]Record

// Store is the consumed interface to the remote system of record.
// Implementations report errors that distinguish transient failures
// (retryable) from permanent rejections.
type Store interface {
	// List bulk-reads the existing records of one resource, keyed by the
	// value of keyField. One call per pass.
	List(ctx context.Context, resource, keyField string) (Records, error)

	// Create adds a new record to a resource.
	Create(ctx context.Context, resource string, fields map[string]string) error

	// Update replaces an existing record's fields.
	Update(ctx context.Context, resource string, record Record, fields map[string]string) error

	// Delete removes an existing record.
	Delete(ctx context.Context, resource string, record Record) error
}
