package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Postgres stores documents in a single jsonb-backed table:
//
//	CREATE TABLE IF NOT EXISTS documents (
//	    collection TEXT        NOT NULL,
//	    id         TEXT        NOT NULL,
//	    seq        BIGSERIAL   NOT NULL,
//	    data       JSONB       NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (collection, id)
//	);
//	CREATE INDEX IF NOT EXISTS documents_collection_seq ON documents (collection, seq);
//
// seq preserves insertion order per collection. Filters use jsonb containment,
// so insertion-order reads by an indexed field (e.g. call_id) stay cheap.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the documents table. Idempotent; called at startup.
func (p *Postgres) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT        NOT NULL,
    id         TEXT        NOT NULL,
    seq        BIGSERIAL   NOT NULL,
    data       JSONB       NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_collection_seq ON documents (collection, seq);
`
	if _, err := p.db.ExecContext(ctx, q); err != nil {
		return storeErr("migrate", "documents", err)
	}
	return nil
}

func (p *Postgres) Create(ctx context.Context, collection string, doc Document) (string, error) {
	if collection == "" {
		return "", storeErr("create", collection, errors.New("collection is required"))
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", storeErr("create", collection, err)
	}

	id := uuid.NewString()
	const q = `
INSERT INTO documents (collection, id, data, created_at)
VALUES ($1, $2, $3::jsonb, $4)
`
	if _, err := p.db.ExecContext(ctx, q, collection, id, string(payload), time.Now().UTC()); err != nil {
		return "", storeErr("create", collection, err)
	}
	return id, nil
}

func (p *Postgres) GetByID(ctx context.Context, collection, id string) (Document, error) {
	const q = `
SELECT data FROM documents
WHERE collection = $1 AND id = $2
`
	var payload []byte
	if err := p.db.QueryRowContext(ctx, q, collection, id).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeErr("get", collection, err)
	}
	doc, err := decodeDocument(payload, id)
	if err != nil {
		return nil, storeErr("get", collection, err)
	}
	return doc, nil
}

func (p *Postgres) Query(ctx context.Context, collection string, filter Document, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	match, err := json.Marshal(filter)
	if err != nil {
		return nil, storeErr("query", collection, err)
	}

	const q = `
SELECT id, data FROM documents
WHERE collection = $1 AND data @> $2::jsonb
ORDER BY seq
LIMIT $3
`
	rows, err := p.db.QueryContext(ctx, q, collection, string(match), limit)
	if err != nil {
		return nil, storeErr("query", collection, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, storeErr("query", collection, err)
		}
		doc, err := decodeDocument(payload, id)
		if err != nil {
			return nil, storeErr("query", collection, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("query", collection, err)
	}
	return out, nil
}

func (p *Postgres) UpdateByID(ctx context.Context, collection, id string, fields Document) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return storeErr("update", collection, err)
	}

	// jsonb || merges top-level keys; untouched fields survive.
	const q = `
UPDATE documents SET data = data || $3::jsonb
WHERE collection = $1 AND id = $2
`
	res, err := p.db.ExecContext(ctx, q, collection, id, string(payload))
	if err != nil {
		return storeErr("update", collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("update", collection, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Collections lists distinct collection names present in the store.
// Used by the connectivity probe; not part of the Store contract.
func (p *Postgres) Collections(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
SELECT DISTINCT collection FROM documents
ORDER BY collection
LIMIT $1
`
	rows, err := p.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, storeErr("collections", "documents", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storeErr("collections", "documents", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("collections", "documents", err)
	}
	return out, nil
}

func decodeDocument(payload []byte, id string) (Document, error) {
	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	doc[IDKey] = id
	return doc, nil
}
