package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/corvand/remedy/internal/apperr"
	"github.com/corvand/remedy/internal/record"
)

// UpdateCall records one Update invocation against the memory driver.
type UpdateCall struct {
	Collection string
	ID         string
	Fields     record.FieldSet
}

// Memory is an in-memory document-store driver. It backs dev mode and tests:
// each operation can be forced to fail, and call counts are tracked so tests
// can assert that a failed precondition prevented a dependent write.
type Memory struct {
	mu   sync.Mutex
	docs map[string][]Document // keyed by collection, insertion order

	FailFetch  error
	FailCreate error
	FailUpdate error
	FailDelete error

	FetchCalls  int
	CreateCalls int
	UpdateCalls int
	DeleteCalls int
	Updates     []UpdateCall
}

// NewMemory returns an empty memory driver.
func NewMemory() *Memory {
	return &Memory{docs: map[string][]Document{}}
}

func (m *Memory) Close() error { return nil }

// Seed inserts a document with a fixed id, bypassing counters. Test setup
// helper.
func (m *Memory) Seed(collection, id string, fields record.FieldSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(fields)
	if err != nil {
		panic(fmt.Sprintf("store: seed %s/%s: %v", collection, id, err))
	}
	m.docs[collection] = append(m.docs[collection], Document{ID: id, Fields: raw})
}

func (m *Memory) FetchAll(_ context.Context, collection string) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCalls++
	if m.FailFetch != nil {
		return nil, m.FailFetch
	}
	docs := m.docs[collection]
	out := make([]Document, len(docs))
	copy(out, docs)
	return out, nil
}

func (m *Memory) Create(_ context.Context, collection string, fields record.FieldSet) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.FailCreate != nil {
		return "", m.FailCreate
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("store: encode fields: %w", err)
	}
	id := ulid.Make().String()
	m.docs[collection] = append(m.docs[collection], Document{ID: id, Fields: raw})
	return id, nil
}

func (m *Memory) Update(_ context.Context, collection, id string, fields record.FieldSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	m.Updates = append(m.Updates, UpdateCall{Collection: collection, ID: id, Fields: fields})
	if m.FailUpdate != nil {
		return m.FailUpdate
	}
	docs := m.docs[collection]
	for i, doc := range docs {
		if doc.ID != id {
			continue
		}
		merged := map[string]any{}
		if err := json.Unmarshal(doc.Fields, &merged); err != nil {
			return fmt.Errorf("store: decode %s/%s: %w", collection, id, err)
		}
		for k, v := range fields {
			merged[k] = v
		}
		raw, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("store: encode %s/%s: %w", collection, id, err)
		}
		docs[i].Fields = raw
		return nil
	}
	return fmt.Errorf("store: update %s/%s: %w", collection, id, apperr.ErrNotFound)
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.FailDelete != nil {
		return m.FailDelete
	}
	docs := m.docs[collection]
	for i, doc := range docs {
		if doc.ID == id {
			m.docs[collection] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("store: delete %s/%s: %w", collection, id, apperr.ErrNotFound)
}

var _ Store = (*Memory)(nil)
