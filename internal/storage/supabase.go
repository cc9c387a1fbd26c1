package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	supa "github.com/supabase-community/storage-go"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
)

// SupabaseConfig selects a Supabase Storage bucket.
type SupabaseConfig struct {
	URL        string // project URL, e.g. https://xyz.supabase.co
	ServiceKey string
	Bucket     string
}

func (c SupabaseConfig) complete() bool {
	return c.URL != "" && c.ServiceKey != "" && c.Bucket != ""
}

// SupabaseStore writes objects into a Supabase Storage bucket. The storage
// API has no conditional writes, so it is a DocumentStore only.
type SupabaseStore struct {
	log    *logger.Logger
	bucket string
	prefix string

	// mu guards client: storage-go sets per-call headers on a header map
	// shared by every request the client makes.
	mu     sync.Mutex
	client *supa.Client
}

func NewSupabaseStore(log *logger.Logger, cfg SupabaseConfig, prefix string) *SupabaseStore {
	endpoint := strings.TrimRight(cfg.URL, "/") + "/storage/v1"
	client := supa.NewClient(endpoint, cfg.ServiceKey, nil)
	return &SupabaseStore{
		log:    log.With("service", "SupabaseStore", "bucket", cfg.Bucket),
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
	}
}

func (s *SupabaseStore) Name() string { return "supabase" }

func (s *SupabaseStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	upsert := true
	opts := supa.FileOptions{ContentType: &contentType, Upsert: &upsert}
	objectPath := prefixed(s.prefix, key)
	s.mu.Lock()
	_, err := s.client.UploadFile(s.bucket, objectPath, bytes.NewReader(data), opts)
	s.mu.Unlock()
	if err != nil {
		s.log.Error("upload failed", "path", objectPath, "error", err)
		return fmt.Errorf("supabase upload %s: %w", objectPath, err)
	}
	return nil
}

func (s *SupabaseStore) Get(ctx context.Context, key string) ([]byte, error) {
	if !validKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	objectPath := prefixed(s.prefix, key)
	s.mu.Lock()
	data, err := s.client.DownloadFile(s.bucket, objectPath)
	s.mu.Unlock()
	if err != nil {
		if isSupabaseNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("supabase download %s: %w", objectPath, err)
	}
	return data, nil
}

// isSupabaseNotFound reports a missing object. The storage API answers with
// a 400 whose body carries statusCode "404" and "Object not found".
func isSupabaseNotFound(err error) bool {
	var serr *supa.StorageError
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Status == http.StatusNotFound || strings.Contains(strings.ToLower(serr.Message), "not found")
}
