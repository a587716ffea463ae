package store

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-memory Store preserving insertion order per collection.
// It mirrors the Postgres contract for unit tests; not intended for production.
type Memory struct {
	mu          sync.Mutex
	collections map[string][]memoryRecord
}

type memoryRecord struct {
	id  string
	doc Document
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]memoryRecord)}
}

func (m *Memory) Create(ctx context.Context, collection string, doc Document) (string, error) {
	if collection == "" {
		return "", storeErr("create", collection, errors.New("collection is required"))
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.collections[collection] = append(m.collections[collection], memoryRecord{id: id, doc: cloneDocument(doc)})
	return id, nil
}

func (m *Memory) GetByID(ctx context.Context, collection, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.collections[collection] {
		if rec.id == id {
			out := cloneDocument(rec.doc)
			out[IDKey] = rec.id
			return out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Query(ctx context.Context, collection string, filter Document, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Document
	for _, rec := range m.collections[collection] {
		if !matches(rec.doc, filter) {
			continue
		}
		doc := cloneDocument(rec.doc)
		doc[IDKey] = rec.id
		out = append(out, doc)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) UpdateByID(ctx context.Context, collection, id string, fields Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.collections[collection]
	for i, rec := range recs {
		if rec.id != id {
			continue
		}
		doc := cloneDocument(rec.doc)
		for k, v := range fields {
			doc[k] = v
		}
		recs[i].doc = doc
		return nil
	}
	return ErrNotFound
}

func matches(doc, filter Document) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		if k == IDKey {
			continue
		}
		out[k] = v
	}
	return out
}
