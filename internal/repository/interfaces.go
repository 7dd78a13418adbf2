package repository

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound indicates a requested document does not exist. Update returns
// it (inside or outside a transaction) so that an accept-style write can
// insist both sides of a pair already exist.
var ErrNotFound = errors.New("document not found")

// Document is one stored record: its id within a collection plus the raw
// JSON body. Collections are flat path strings ("users/u1/friends").
type Document struct {
	ID   string
	Data json.RawMessage
}

// Writer is the write surface shared by the store and its transactions.
//
// Set marshals value to JSON and merges it into the document at (path, id),
// creating it if absent. Merge is shallow: top-level fields of value replace
// the stored ones, everything else is preserved.
//
// Update merges fields into an existing document and fails with ErrNotFound
// when the document is absent. Delete is idempotent.
type Writer interface {
	Set(ctx context.Context, path, id string, value any) error
	Update(ctx context.Context, path, id string, fields map[string]any) error
	Delete(ctx context.Context, path, id string) error
}

// Tx is the surface a transaction callback sees: the write operations plus
// a read, so read-modify-write sequences (load the current document, decide,
// then write) stay atomic instead of racing a concurrent update.
type Tx interface {
	Writer

	// Get unmarshals the document at (path, id) into dest, observing the
	// transaction's own staged writes. Returns ErrNotFound when absent.
	Get(ctx context.Context, path, id string, dest any) error
}

// DocumentStore is the transactional key-document store every component
// depends on. RunTransaction executes fn atomically: either every write fn
// issues becomes visible, or none does. Readers never observe a partial
// transaction.
type DocumentStore interface {
	Writer

	// Get unmarshals the document at (path, id) into dest.
	// Returns ErrNotFound when the document is absent.
	Get(ctx context.Context, path, id string, dest any) error

	// List returns every document in a collection, ordered by id.
	// Returns an empty slice (not nil) for an empty collection.
	List(ctx context.Context, path string) ([]Document, error)

	// BatchDelete removes several documents of one collection in a single
	// round trip. Missing ids are skipped silently.
	BatchDelete(ctx context.Context, path string, ids []string) error

	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
}
