package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/corvand/remedy/internal/apperr"
	"github.com/corvand/remedy/internal/record"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	fields     TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, created_at);
`

// SQLite is a document-store driver backed by a local SQLite file.
// Identifiers are ULIDs assigned at create time.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// FetchAll returns all documents of the collection in insertion order.
func (s *SQLite) FetchAll(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, fields FROM documents WHERE collection = ? ORDER BY created_at, id`, collection)
	if err != nil {
		return nil, fmt.Errorf("store: fetch %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		var fields string
		if err := rows.Scan(&doc.ID, &fields); err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", collection, err)
		}
		doc.Fields = []byte(fields)
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Create inserts a new document and returns its generated ULID.
func (s *SQLite) Create(ctx context.Context, collection string, fields record.FieldSet) (string, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("store: encode fields: %w", err)
	}
	id := ulid.Make().String()
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO documents (collection, id, fields) VALUES (?, ?, ?)`,
		collection, id, string(raw))
	if err != nil {
		return "", fmt.Errorf("store: create %s: %w", collection, err)
	}
	return id, nil
}

// Update merges the partial field set into the stored document inside a
// transaction.
func (s *SQLite) Update(ctx context.Context, collection, id string, fields record.FieldSet) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("store: update %s/%s: %w", collection, id, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("store: read %s/%s: %w", collection, id, err)
	}

	merged := map[string]any{}
	if err := json.Unmarshal([]byte(current), &merged); err != nil {
		return fmt.Errorf("store: decode %s/%s: %w", collection, id, err)
	}
	for k, v := range fields {
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("store: encode %s/%s: %w", collection, id, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET fields = ?, updated_at = CURRENT_TIMESTAMP WHERE collection = ? AND id = ?`,
		string(raw), collection, id)
	if err != nil {
		return fmt.Errorf("store: update %s/%s: %w", collection, id, err)
	}
	return tx.Commit()
}

// Delete removes a document; absent ids are reported as not found.
func (s *SQLite) Delete(ctx context.Context, collection, id string) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", collection, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store: delete %s/%s: %w", collection, id, apperr.ErrNotFound)
	}
	return nil
}

// Verify the driver satisfies Store at compile time.
var _ Store = (*SQLite)(nil)
