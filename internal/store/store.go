package store

import (
	"context"
	"errors"
	"fmt"
)

// Document is one schemaless record in a named collection.
//
// Implementations set the reserved "_id" key on documents they return so
// callers can recover the identifier; repositories are expected to strip it
// before exposing typed entities.
type Document map[string]any

// IDKey is the reserved document key carrying the record identifier on reads.
const IDKey = "_id"

// DefaultQueryLimit bounds Query results when the caller passes limit <= 0.
const DefaultQueryLimit = 100

// ErrNotFound is returned when a referenced id is absent from a collection.
var ErrNotFound = errors.New("store: document not found")

// StoreError wraps a backing-store failure (connectivity, constraint, codec).
// Writes are best-effort across this boundary; callers must not assume a
// failed write was rolled back.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op, collection string, err error) error {
	return &StoreError{Op: op, Collection: collection, Err: err}
}

// Store is the generic document persistence contract.
//
// Query returns documents in insertion order, bounded by limit. UpdateByID
// merges the given fields into the stored document, leaving other fields
// untouched.
type Store interface {
	Create(ctx context.Context, collection string, doc Document) (string, error)
	GetByID(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, collection string, filter Document, limit int) ([]Document, error)
	UpdateByID(ctx context.Context, collection, id string, fields Document) error
}
