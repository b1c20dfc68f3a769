package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/heartmarshall/promptboard/internal/domain"
)

// BlobStore is an in-memory blob gateway.
type BlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
	fault   FaultFunc
}

// NewBlobStore creates an empty BlobStore whose download URLs start with baseURL.
func NewBlobStore(baseURL string) *BlobStore {
	return &BlobStore{objects: make(map[string][]byte), baseURL: baseURL}
}

// SetFault installs (or clears, with nil) a fault injector. op is one of
// upload, delete, url.
func (b *BlobStore) SetFault(f FaultFunc) {
	b.mu.Lock()
	b.fault = f
	b.mu.Unlock()
}

func (b *BlobStore) check(op, path string) error {
	b.mu.RLock()
	f := b.fault
	b.mu.RUnlock()
	if f == nil {
		return nil
	}
	return f(op, path)
}

// Upload stores the content of r under path.
func (b *BlobStore) Upload(ctx context.Context, path string, r io.Reader, _ int64, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.check("upload", path); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload %s: %w", path, err)
	}

	b.mu.Lock()
	b.objects[path] = data
	b.mu.Unlock()
	return nil
}

// Delete removes path; a missing object reports domain.ErrNotFound.
func (b *BlobStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.check("delete", path); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[path]; !ok {
		return fmt.Errorf("blob %s: %w", path, domain.ErrNotFound)
	}
	delete(b.objects, path)
	return nil
}

// DownloadURL returns baseURL + escaped path for existing objects.
func (b *BlobStore) DownloadURL(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := b.check("url", path); err != nil {
		return "", err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, ok := b.objects[path]; !ok {
		return "", fmt.Errorf("blob %s: %w", path, domain.ErrNotFound)
	}
	return b.baseURL + "/" + url.PathEscape(path), nil
}

// Ping always succeeds.
func (b *BlobStore) Ping(_ context.Context) error { return nil }

// Exists reports whether path holds an object.
func (b *BlobStore) Exists(path string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.objects[path]
	return ok
}

// Content returns a copy of the object at path.
func (b *BlobStore) Content(path string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[path]
	return bytes.Clone(data), ok
}
