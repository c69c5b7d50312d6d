// Package store defines the document-store abstraction and its drivers.
package store

import (
	"context"

	"github.com/corvand/remedy/internal/record"
)

// Document is one raw record of a collection: a store-assigned identifier
// plus a JSON object of named fields.
type Document struct {
	ID     string
	Fields []byte
}

// Store is the typed CRUD facade over the remote document store. Drivers
// perform no retries and no caching; every failure propagates unchanged to
// the caller.
type Store interface {
	// FetchAll returns every document of the collection in insertion order.
	FetchAll(ctx context.Context, collection string) ([]Document, error)
	// Create persists a new document and returns its generated identifier.
	Create(ctx context.Context, collection string, fields record.FieldSet) (string, error)
	// Update merges the partial field set into an existing document.
	// Returns an error wrapping apperr.ErrNotFound when the id is absent.
	Update(ctx context.Context, collection, id string, fields record.FieldSet) error
	// Delete removes a document. Returns an error wrapping
	// apperr.ErrNotFound when the id is absent.
	Delete(ctx context.Context, collection, id string) error
	// Close releases driver resources.
	Close() error
}
