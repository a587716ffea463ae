package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"novacall/internal/store"
)

// Collection is the document store collection holding transcript entries.
const Collection = "transcriptlog"

var (
	// ErrValidation is returned for malformed entries, before persistence.
	ErrValidation = errors.New("transcript: invalid entry")
)

// Repository persists transcript entries in the transcriptlog collection.
//
// It normalizes store-internal representations at the boundary: ids come back
// as plain strings and timestamps as UTC instants parsed from their stored
// RFC 3339 form, so no store type ever leaks to callers.
type Repository struct {
	store store.Store
	clock func() time.Time
}

func NewRepository(s store.Store) *Repository {
	return &Repository{store: s, clock: time.Now}
}

// Append validates and stores one entry, stamping the timestamp if unset.
func (r *Repository) Append(ctx context.Context, e Entry) (string, error) {
	if e.CallID == "" {
		return "", fmt.Errorf("%w: call_id is required", ErrValidation)
	}
	if !e.Role.Valid() {
		return "", fmt.Errorf("%w: role must be assistant, callee or system, got %q", ErrValidation, e.Role)
	}
	if e.Text == "" {
		return "", fmt.Errorf("%w: text is required", ErrValidation)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.clock().UTC()
	} else {
		e.Timestamp = e.Timestamp.UTC()
	}

	doc, err := encodeEntry(e)
	if err != nil {
		return "", err
	}
	return r.store.Create(ctx, Collection, doc)
}

// ListByCall returns the call's entries in insertion order, capped at limit
// (default 100 when limit <= 0).
func (r *Repository) ListByCall(ctx context.Context, callID string, limit int) ([]Entry, error) {
	if callID == "" {
		return nil, fmt.Errorf("%w: call_id is required", ErrValidation)
	}

	docs, err := r.store.Query(ctx, Collection, store.Document{"call_id": callID}, limit)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		e, err := decodeEntry(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func encodeEntry(e Entry) (store.Document, error) {
	e.ID = ""
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var doc store.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeEntry(doc store.Document) (Entry, error) {
	id, _ := doc[store.IDKey].(string)
	delete(doc, store.IDKey)

	payload, err := json.Marshal(doc)
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	if err := json.Unmarshal(payload, &e); err != nil {
		return Entry{}, err
	}
	e.ID = id
	return e, nil
}
