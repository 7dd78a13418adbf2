// Package memory is an in-memory document store used by tests and local
// development. It implements the same merge and transaction semantics as
// the Postgres store: a transaction stages its writes on a copy and the
// copy becomes visible only when the callback succeeds.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/tejari49/timeroster/internal/repository"
)

type collection map[string]map[string]any // id -> decoded document

type Store struct {
	mu   sync.Mutex
	docs map[string]collection // path -> collection
}

func New() *Store {
	return &Store{docs: make(map[string]collection)}
}

func (s *Store) Set(ctx context.Context, path, id string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setDoc(s.docs, path, id, value)
}

func (s *Store) Update(ctx context.Context, path, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateDoc(s.docs, path, id, fields)
}

func (s *Store) Delete(ctx context.Context, path, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleteDoc(s.docs, path, id)
	return nil
}

func (s *Store) Get(ctx context.Context, path, id string, dest any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return getDoc(s.docs, path, id, dest)
}

func (s *Store) List(ctx context.Context, path string) ([]repository.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.docs[path]))
	for id := range s.docs[path] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]repository.Document, 0, len(ids))
	for _, id := range ids {
		data, err := json.Marshal(s.docs[path][id])
		if err != nil {
			return nil, fmt.Errorf("encode document %s/%s: %w", path, id, err)
		}
		docs = append(docs, repository.Document{ID: id, Data: data})
	}
	return docs, nil
}

func (s *Store) BatchDelete(ctx context.Context, path string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		deleteDoc(s.docs, path, id)
	}
	return nil
}

// RunTransaction applies the callback's writes to a copy of the store and
// swaps the copy in only if the callback returns nil. A failing Update
// (missing document) therefore discards every staged write.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := cloneDocs(s.docs)
	if err := fn(&txWriter{docs: staged}); err != nil {
		return err
	}
	s.docs = staged
	return nil
}

type txWriter struct {
	docs map[string]collection
}

func (w *txWriter) Set(ctx context.Context, path, id string, value any) error {
	return setDoc(w.docs, path, id, value)
}

func (w *txWriter) Update(ctx context.Context, path, id string, fields map[string]any) error {
	return updateDoc(w.docs, path, id, fields)
}

func (w *txWriter) Delete(ctx context.Context, path, id string) error {
	deleteDoc(w.docs, path, id)
	return nil
}

// Get reads against the staged copy, so a transaction observes its own
// uncommitted writes.
func (w *txWriter) Get(ctx context.Context, path, id string, dest any) error {
	return getDoc(w.docs, path, id, dest)
}

func getDoc(docs map[string]collection, path, id string, dest any) error {
	doc, ok := docs[path][id]
	if !ok {
		return repository.ErrNotFound
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s/%s: %w", path, id, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode document %s/%s: %w", path, id, err)
	}
	return nil
}

func setDoc(docs map[string]collection, path, id string, value any) error {
	fields, err := decodeValue(path, id, value)
	if err != nil {
		return err
	}
	col, ok := docs[path]
	if !ok {
		col = make(collection)
		docs[path] = col
	}
	merged := make(map[string]any, len(col[id])+len(fields))
	for k, v := range col[id] {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	col[id] = merged
	return nil
}

func updateDoc(docs map[string]collection, path, id string, fields map[string]any) error {
	if _, ok := docs[path][id]; !ok {
		return fmt.Errorf("update document %s/%s: %w", path, id, repository.ErrNotFound)
	}
	return setDoc(docs, path, id, fields)
}

func deleteDoc(docs map[string]collection, path, id string) {
	delete(docs[path], id)
}

// decodeValue normalizes any value through JSON, so typed structs and maps
// store identically to how the Postgres store persists them.
func decodeValue(path, id string, value any) (map[string]any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode document %s/%s: %w", path, id, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("document %s/%s is not an object: %w", path, id, err)
	}
	return fields, nil
}

func cloneDocs(docs map[string]collection) map[string]collection {
	cloned := make(map[string]collection, len(docs))
	for path, col := range docs {
		colCopy := make(collection, len(col))
		for id, doc := range col {
			colCopy[id] = doc
		}
		cloned[path] = colCopy
	}
	return cloned
}
