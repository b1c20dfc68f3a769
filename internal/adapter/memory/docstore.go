// Package memory implements the document and blob gateways in process. It
// backs the "memory" drivers used for local development and the store tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
)

// maxTxAttempts bounds optimistic transaction retries.
const maxTxAttempts = 5

// FaultFunc may return an error to make the named operation on path fail.
// op is one of get, getall, query, set, update, delete, commit.
type FaultFunc func(op string, path string) error

// DocStore is an in-memory document gateway.
type DocStore struct {
	mu    sync.RWMutex
	docs  map[docstore.Path]docstore.Document
	fault FaultFunc
	now   func() time.Time
}

// NewDocStore creates an empty DocStore.
func NewDocStore() *DocStore {
	return &DocStore{
		docs: make(map[docstore.Path]docstore.Document),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// SetFault installs (or clears, with nil) a fault injector.
func (s *DocStore) SetFault(f FaultFunc) {
	s.mu.Lock()
	s.fault = f
	s.mu.Unlock()
}

func (s *DocStore) check(op string, path string) error {
	s.mu.RLock()
	f := s.fault
	s.mu.RUnlock()
	if f == nil {
		return nil
	}
	return f(op, path)
}

// Ping always succeeds.
func (s *DocStore) Ping(_ context.Context) error { return nil }

// Len returns the number of stored documents.
func (s *DocStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Get returns the document at path or domain.ErrNotFound.
func (s *DocStore) Get(ctx context.Context, path docstore.Path) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	if err := s.check("get", path.String()); err != nil {
		return docstore.Document{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[path]
	if !ok {
		return docstore.Document{}, fmt.Errorf("document %s: %w", path, domain.ErrNotFound)
	}
	return cloneDoc(doc), nil
}

// GetAll returns the documents that exist among paths, in request order.
func (s *DocStore) GetAll(ctx context.Context, paths []docstore.Path) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.check("getall", ""); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]docstore.Document, 0, len(paths))
	for _, p := range paths {
		if doc, ok := s.docs[p]; ok {
			out = append(out, cloneDoc(doc))
		}
	}
	return out, nil
}

// Query returns the direct children of collection matching every filter,
// ordered by creation time then path.
func (s *DocStore) Query(ctx context.Context, collection docstore.CollectionPath, filters ...docstore.Filter) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.check("query", collection.String()); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []docstore.Document
	for p, doc := range s.docs {
		if p.Collection() != collection {
			continue
		}
		if !matchesAll(doc.Data, filters) {
			continue
		}
		out = append(out, cloneDoc(doc))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// Set creates or overwrites the document at path.
func (s *DocStore) Set(ctx context.Context, path docstore.Path, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.check("set", path.String()); err != nil {
		return err
	}
	data, err := encodeFor(path, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = s.next(s.docs[path], path, data)
	return nil
}

// Update merges fields into an existing document.
func (s *DocStore) Update(ctx context.Context, path docstore.Path, fields docstore.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.check("update", path.String()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[path]
	if !ok {
		return fmt.Errorf("document %s: %w", path, domain.ErrNotFound)
	}
	data, err := docstore.Apply(doc.Data, fields)
	if err != nil {
		return err
	}
	s.docs[path] = s.next(doc, path, data)
	return nil
}

// Delete removes the document at path. Deleting a missing document succeeds.
func (s *DocStore) Delete(ctx context.Context, path docstore.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.check("delete", path.String()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
	return nil
}

// RunTransaction runs fn against a staged view. Writes are applied at commit
// if none of the documents fn read changed meanwhile; otherwise fn is
// retried, up to maxTxAttempts times.
func (s *DocStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error {
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		tx := &memTx{store: s, reads: map[docstore.Path]int64{}, writes: map[docstore.Path]*staged{}}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		if err := s.check("commit", ""); err != nil {
			return err
		}

		committed, err := s.commit(tx)
		if err != nil {
			return err
		}
		if committed {
			return nil
		}
	}
	return fmt.Errorf("transaction: too much contention: %w", domain.ErrConflict)
}

func (s *DocStore) commit(tx *memTx) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for p, version := range tx.reads {
		if s.docs[p].Version != version {
			return false, nil
		}
	}

	for p, w := range tx.writes {
		if w.deleted {
			delete(s.docs, p)
			continue
		}
		s.docs[p] = s.next(s.docs[p], p, w.data)
	}
	return true, nil
}

// next returns prev advanced to a new version carrying data.
func (s *DocStore) next(prev docstore.Document, path docstore.Path, data json.RawMessage) docstore.Document {
	now := s.now()
	created := prev.CreatedAt
	if prev.Version == 0 {
		created = now
	}
	return docstore.Document{
		Path:      path,
		Data:      data,
		Version:   prev.Version + 1,
		CreatedAt: created,
		UpdatedAt: now,
	}
}

type staged struct {
	data    json.RawMessage
	deleted bool
}

type memTx struct {
	store  *DocStore
	reads  map[docstore.Path]int64
	writes map[docstore.Path]*staged
}

func (t *memTx) Get(ctx context.Context, path docstore.Path) (docstore.Document, error) {
	if w, ok := t.writes[path]; ok {
		if w.deleted {
			return docstore.Document{}, fmt.Errorf("document %s: %w", path, domain.ErrNotFound)
		}
		return docstore.Document{Path: path, Data: w.data}, nil
	}

	t.store.mu.RLock()
	doc, ok := t.store.docs[path]
	t.store.mu.RUnlock()

	if _, seen := t.reads[path]; !seen {
		t.reads[path] = doc.Version
	}
	if !ok {
		return docstore.Document{}, fmt.Errorf("document %s: %w", path, domain.ErrNotFound)
	}
	return cloneDoc(doc), nil
}

func (t *memTx) Set(_ context.Context, path docstore.Path, value any) error {
	data, err := encodeFor(path, value)
	if err != nil {
		return err
	}
	t.writes[path] = &staged{data: data}
	return nil
}

func (t *memTx) Update(ctx context.Context, path docstore.Path, fields docstore.Fields) error {
	doc, err := t.Get(ctx, path)
	if err != nil {
		return err
	}
	data, err := docstore.Apply(doc.Data, fields)
	if err != nil {
		return err
	}
	t.writes[path] = &staged{data: data}
	return nil
}

func (t *memTx) Delete(_ context.Context, path docstore.Path) error {
	t.writes[path] = &staged{deleted: true}
	return nil
}

func encodeFor(path docstore.Path, value any) (json.RawMessage, error) {
	if !path.Valid() {
		return nil, domain.NewValidationError("path", fmt.Sprintf("invalid document path %q", path))
	}
	return docstore.Encode(value)
}

func matchesAll(data json.RawMessage, filters []docstore.Filter) bool {
	for _, f := range filters {
		if !docstore.Matches(data, f) {
			return false
		}
	}
	return true
}

func cloneDoc(d docstore.Document) docstore.Document {
	d.Data = append(json.RawMessage(nil), d.Data...)
	return d
}

// HasPrefix reports whether any stored document path starts with prefix.
func (s *DocStore) HasPrefix(prefix string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for p := range s.docs {
		if strings.HasPrefix(string(p), prefix) {
			return true
		}
	}
	return false
}
