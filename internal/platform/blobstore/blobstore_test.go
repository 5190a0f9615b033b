package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
)

func TestInMemoryBlobStore_Put(t *testing.T) {
	store := NewInMemoryBlobStore(0)
	content := "hello world"

	result, err := store.Put(context.Background(), BlobMetadata{
		OwnerID:     "user-1",
		FileName:    "lab_results.txt",
		ContentType: "text/plain",
	}, strings.NewReader(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ID == "" {
		t.Fatal("expected non-empty ID")
	}
	if result.Size != int64(len(content)) {
		t.Errorf("expected Size=%d, got %d", len(content), result.Size)
	}
	sum := sha256.Sum256([]byte(content))
	if result.Hash != hex.EncodeToString(sum[:]) {
		t.Errorf("unexpected hash %s", result.Hash)
	}
	if result.CreatedAt.IsZero() {
		t.Error("expected non-zero CreatedAt")
	}
	if result.OwnerID != "user-1" {
		t.Errorf("expected OwnerID=user-1, got %s", result.OwnerID)
	}
}

func TestInMemoryBlobStore_PutDefaultsContentType(t *testing.T) {
	store := NewInMemoryBlobStore(0)
	result, err := store.Put(context.Background(), BlobMetadata{FileName: "scan.bin"}, strings.NewReader("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ContentType != "application/octet-stream" {
		t.Errorf("expected octet-stream, got %s", result.ContentType)
	}
}

func TestInMemoryBlobStore_PutMissingFileName(t *testing.T) {
	store := NewInMemoryBlobStore(0)
	_, err := store.Put(context.Background(), BlobMetadata{}, strings.NewReader("data"))
	if !errors.Is(err, ErrMissingFileName) {
		t.Fatalf("expected ErrMissingFileName, got %v", err)
	}
}

func TestInMemoryBlobStore_PutTooLarge(t *testing.T) {
	store := NewInMemoryBlobStore(4)
	_, err := store.Put(context.Background(), BlobMetadata{FileName: "big.pdf"}, strings.NewReader("12345"))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected nothing stored, got %d", store.Len())
	}

	if _, err := store.Put(context.Background(), BlobMetadata{FileName: "ok.pdf"}, strings.NewReader("1234")); err != nil {
		t.Fatalf("content at the limit should be accepted: %v", err)
	}
}

func TestInMemoryBlobStore_Open(t *testing.T) {
	store := NewInMemoryBlobStore(0)
	meta, err := store.Put(context.Background(), BlobMetadata{FileName: "rx.txt"}, strings.NewReader("metformin"))
	if err != nil {
		t.Fatal(err)
	}

	rc, got, err := store.Open(context.Background(), meta.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "metformin" {
		t.Errorf("unexpected content %q", data)
	}
	if got.FileName != "rx.txt" {
		t.Errorf("unexpected file name %s", got.FileName)
	}
}

func TestInMemoryBlobStore_OpenNotFound(t *testing.T) {
	store := NewInMemoryBlobStore(0)
	_, _, err := store.Open(context.Background(), "missing")
	if !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestInMemoryBlobStore_Delete(t *testing.T) {
	store := NewInMemoryBlobStore(0)
	meta, _ := store.Put(context.Background(), BlobMetadata{FileName: "a.txt"}, strings.NewReader("a"))

	if err := store.Delete(context.Background(), meta.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := store.Open(context.Background(), meta.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound after delete, got %v", err)
	}
	if err := store.Delete(context.Background(), meta.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound on second delete, got %v", err)
	}
}

func TestInMemoryBlobStore_ConcurrentPut(t *testing.T) {
	store := NewInMemoryBlobStore(0)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Put(context.Background(), BlobMetadata{FileName: "f.txt"}, strings.NewReader("data"))
		}()
	}
	wg.Wait()

	if store.Len() != 20 {
		t.Errorf("expected 20 blobs, got %d", store.Len())
	}
}
