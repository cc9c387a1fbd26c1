// Package storage provides the blob backends that hold drawings and the
// progress document: local disk, Supabase Storage, Google Cloud Storage and an
// in-memory store, plus the Unavailable variant used when a remote backend is
// not configured.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned by Get when the key holds no object.
	ErrNotFound = errors.New("object not found")
	// ErrConflict is returned by PutIfMatch when the stored generation moved.
	ErrConflict = errors.New("object generation mismatch")
	// ErrStorageUnavailable marks a backend that was never configured.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidKey rejects keys that would escape the store's namespace.
	ErrInvalidKey = errors.New("invalid object key")
)

const (
	ContentTypePNG  = "image/png"
	ContentTypeJSON = "application/json"
)

// BlobStore saves named bytes. Writes to the same key overwrite.
type BlobStore interface {
	Name() string
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// DocumentStore can also read back what it wrote.
type DocumentStore interface {
	BlobStore
	Get(ctx context.Context, key string) ([]byte, error)
}

// Generation is an opaque version token. NoGeneration means "absent".
type Generation string

const NoGeneration Generation = ""

// VersionedStore supports conditional writes for optimistic concurrency.
type VersionedStore interface {
	DocumentStore
	// GetVersioned returns ErrNotFound (with NoGeneration) for absent keys.
	GetVersioned(ctx context.Context, key string) ([]byte, Generation, error)
	// PutIfMatch writes only if the current generation equals match;
	// NoGeneration requires the key to be absent. Fails with ErrConflict.
	PutIfMatch(ctx context.Context, key string, data []byte, contentType string, match Generation) (Generation, error)
}

// Key joins segments with "/" and rejects empty or traversing segments.
func Key(segments ...string) (string, error) {
	for _, s := range segments {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, "/\\") {
			return "", ErrInvalidKey
		}
	}
	return path.Join(segments...), nil
}

// validKey reports whether key is a clean relative slash path.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	if path.Clean(key) != key {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}

func prefixed(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.TrimSuffix(prefix, "/") + "/" + key
}
