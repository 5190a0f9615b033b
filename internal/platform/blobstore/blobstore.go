// Package blobstore holds the raw bytes of uploaded medical documents. It
// defines the BlobStore interface and an in-memory implementation that
// hashes and size-checks every upload.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound    = errors.New("blob not found")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrMissingFileName = errors.New("file name is required")
)

// DefaultMaxFileSize is the upload ceiling used when none is configured (20 MB).
const DefaultMaxFileSize = 20 * 1024 * 1024

// BlobMetadata describes a stored blob.
type BlobMetadata struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// BlobStore defines the contract for blob storage backends.
type BlobStore interface {
	Put(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error)
	Open(ctx context.Context, id string) (io.ReadCloser, *BlobMetadata, error)
	Delete(ctx context.Context, id string) error
}

type storedBlob struct {
	metadata BlobMetadata
	content  []byte
}

// InMemoryBlobStore is a thread-safe, in-memory BlobStore.
type InMemoryBlobStore struct {
	mu      sync.RWMutex
	blobs   map[string]*storedBlob
	maxSize int64
}

// NewInMemoryBlobStore returns a store that rejects content larger than
// maxSize bytes. A non-positive maxSize selects DefaultMaxFileSize.
func NewInMemoryBlobStore(maxSize int64) *InMemoryBlobStore {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &InMemoryBlobStore{
		blobs:   make(map[string]*storedBlob),
		maxSize: maxSize,
	}
}

// Put reads the content, computes a SHA-256 hash, and stores the blob.
func (s *InMemoryBlobStore) Put(_ context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	if meta.FileName == "" {
		return nil, ErrMissingFileName
	}

	data, err := io.ReadAll(io.LimitReader(content, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}

	h := sha256.Sum256(data)
	meta.ID = uuid.New().String()
	meta.Size = int64(len(data))
	meta.Hash = hex.EncodeToString(h[:])
	meta.CreatedAt = time.Now().UTC()
	if meta.ContentType == "" {
		meta.ContentType = "application/octet-stream"
	}

	s.mu.Lock()
	s.blobs[meta.ID] = &storedBlob{metadata: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

// Open returns a reader over the blob content and its metadata.
func (s *InMemoryBlobStore) Open(_ context.Context, id string) (io.ReadCloser, *BlobMetadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrBlobNotFound
	}

	meta := blob.metadata
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

// Delete removes a blob by ID.
func (s *InMemoryBlobStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[id]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, id)
	return nil
}

// Len reports the number of stored blobs.
func (s *InMemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
