// Package postgres implements the document store on a single jsonb table.
//
// Postgres plays the role of the transactional key-document store: documents
// are rows keyed by (path, id), merge-set is the jsonb || operator, and
// multi-document transactions are plain SQL transactions.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tejari49/timeroster/internal/repository"
)

// execer is satisfied by both *pgxpool.Pool and pgx.Tx, so the write
// methods run identically inside and outside a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// rowQueryer is the read-side counterpart of execer.
type rowQueryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type DocStore struct {
	pool *pgxpool.Pool
}

func NewDocStore(pool *pgxpool.Pool) *DocStore {
	return &DocStore{pool: pool}
}

func (s *DocStore) Set(ctx context.Context, path, id string, value any) error {
	return execSet(ctx, s.pool, path, id, value)
}

func (s *DocStore) Update(ctx context.Context, path, id string, fields map[string]any) error {
	return execUpdate(ctx, s.pool, path, id, fields)
}

func (s *DocStore) Delete(ctx context.Context, path, id string) error {
	return execDelete(ctx, s.pool, path, id)
}

func (s *DocStore) Get(ctx context.Context, path, id string, dest any) error {
	return execGet(ctx, s.pool, path, id, dest)
}

func (s *DocStore) List(ctx context.Context, path string) ([]repository.Document, error) {
	query := `
		SELECT id, data FROM documents
		WHERE path = $1
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, path)
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", path, err)
	}
	defer rows.Close()

	docs := make([]repository.Document, 0)
	for rows.Next() {
		var doc repository.Document
		if err := rows.Scan(&doc.ID, &doc.Data); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents %s: %w", path, err)
	}
	return docs, nil
}

// BatchDelete queues one DELETE per id and ships them in a single round trip.
func (s *DocStore) BatchDelete(ctx context.Context, path string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, id := range ids {
		batch.Queue(`DELETE FROM documents WHERE path = $1 AND id = $2`, path, id)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range ids {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch delete %s: %w", path, err)
		}
	}
	return nil
}

func (s *DocStore) RunTransaction(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&txWriter{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txWriter issues the same operations as DocStore but through an open
// pgx.Tx, so a failing Update rolls back everything the callback wrote and
// reads observe the transaction's own staged writes.
type txWriter struct {
	tx pgx.Tx
}

func (w *txWriter) Set(ctx context.Context, path, id string, value any) error {
	return execSet(ctx, w.tx, path, id, value)
}

func (w *txWriter) Update(ctx context.Context, path, id string, fields map[string]any) error {
	return execUpdate(ctx, w.tx, path, id, fields)
}

func (w *txWriter) Delete(ctx context.Context, path, id string) error {
	return execDelete(ctx, w.tx, path, id)
}

func (w *txWriter) Get(ctx context.Context, path, id string, dest any) error {
	return execGet(ctx, w.tx, path, id, dest)
}

func execGet(ctx context.Context, db rowQueryer, path, id string, dest any) error {
	query := `
		SELECT data FROM documents
		WHERE path = $1 AND id = $2`

	var data []byte
	err := db.QueryRow(ctx, query, path, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("get document %s/%s: %w", path, id, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode document %s/%s: %w", path, id, err)
	}
	return nil
}

func execSet(ctx context.Context, db execer, path, id string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", path, id, err)
	}

	// jsonb || implements merge semantics: on conflict, top-level fields of
	// the new value replace the stored ones and everything else survives.
	query := `
		INSERT INTO documents (path, id, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (path, id) DO UPDATE
		SET data = documents.data || excluded.data, updated_at = now()`

	if _, err := db.Exec(ctx, query, path, id, data); err != nil {
		return fmt.Errorf("set document %s/%s: %w", path, id, err)
	}
	return nil
}

func execUpdate(ctx context.Context, db execer, path, id string, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode update %s/%s: %w", path, id, err)
	}

	query := `
		UPDATE documents
		SET data = data || $3, updated_at = now()
		WHERE path = $1 AND id = $2`

	tag, err := db.Exec(ctx, query, path, id, data)
	if err != nil {
		return fmt.Errorf("update document %s/%s: %w", path, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update document %s/%s: %w", path, id, repository.ErrNotFound)
	}
	return nil
}

func execDelete(ctx context.Context, db execer, path, id string) error {
	if _, err := db.Exec(ctx, `DELETE FROM documents WHERE path = $1 AND id = $2`, path, id); err != nil {
		return fmt.Errorf("delete document %s/%s: %w", path, id, err)
	}
	return nil
}
