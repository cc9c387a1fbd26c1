package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
)

const (
	BackendLocal    = "local"
	BackendMemory   = "memory"
	BackendSupabase = "supabase"
	BackendGCS      = "gcs"
)

// Config picks and configures one backend.
type Config struct {
	Backend  string
	DataRoot string
	// Prefix namespaces every key on remote backends.
	Prefix   string
	Supabase SupabaseConfig
	GCS      GCSConfig
}

// Remote reports whether the backend stores objects outside this process's disk.
func (c Config) Remote() bool {
	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case BackendSupabase, BackendGCS:
		return true
	}
	return false
}

// Open builds the configured backend. A remote backend with missing
// credentials comes back as *Unavailable instead of an error so the process
// still starts.
func Open(ctx context.Context, log *logger.Logger, cfg Config) (DocumentStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendLocal:
		return NewLocalStore(log, cfg.DataRoot)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSupabase:
		if !cfg.Supabase.complete() {
			log.Warn("supabase storage is not configured; uploads will fail",
				"bucket", cfg.Supabase.Bucket)
			return &Unavailable{Backend: BackendSupabase, Reason: "SUPABASE_URL, SUPABASE_SERVICE_KEY and SUPABASE_BUCKET are required"}, nil
		}
		return NewSupabaseStore(log, cfg.Supabase, cfg.Prefix), nil
	case BackendGCS:
		if !cfg.GCS.complete() {
			log.Warn("gcs storage is not configured; uploads will fail", "bucket", cfg.GCS.Bucket)
			return &Unavailable{Backend: BackendGCS, Reason: "GCS_BUCKET_NAME and GCS_CREDENTIALS_FILE (or STORAGE_EMULATOR_HOST) are required"}, nil
		}
		s, err := NewGCSStore(ctx, log, cfg.GCS, cfg.Prefix)
		if err != nil {
			log.Warn("gcs client could not be created; uploads will fail", "error", err)
			return &Unavailable{Backend: BackendGCS, Reason: err.Error()}, nil
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Backend)
	}
}
