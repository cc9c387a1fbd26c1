package progress

import (
	"context"
	"fmt"
	"strings"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/storage"
)

const (
	BackendDocument = "document"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	IncrementAtomic = "atomic"
	IncrementLegacy = "legacy"
)

// Config は進捗ストアの選択と接続情報です。
type Config struct {
	Backend string
	// DocumentKey は document バックエンドでのドキュメント位置です。
	DocumentKey string
	// Increment は "atomic" (既定) か "legacy"。
	Increment   string
	Redis       RedisConfig
	DatabaseURL string
}

// Open は設定に応じた Store を返します。接続できないバックエンドは
// Unavailable として返し、起動自体は継続します。
func Open(ctx context.Context, log *logger.Logger, cfg Config, docs storage.DocumentStore) (Store, error) {
	var s Store
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendDocument:
		key := cfg.DocumentKey
		if key == "" {
			key = RemoteDocumentKey
		}
		s = NewDocumentStore(log, docs, key)
	case BackendRedis:
		rs, err := NewRedisStore(ctx, log, cfg.Redis)
		if err != nil {
			log.Warn("redis progress store unavailable", "error", err)
			s = &Unavailable{Backend: BackendRedis, Reason: err.Error()}
		} else {
			s = rs
		}
	case BackendPostgres:
		ps, err := NewPostgresStore(ctx, log, cfg.DatabaseURL)
		if err != nil {
			log.Warn("postgres progress store unavailable", "error", err)
			s = &Unavailable{Backend: BackendPostgres, Reason: err.Error()}
		} else {
			s = ps
		}
	default:
		return nil, fmt.Errorf("unknown PROGRESS_BACKEND %q", cfg.Backend)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Increment)) {
	case "", IncrementAtomic:
		return s, nil
	case IncrementLegacy:
		log.Warn("legacy read-modify-write increment enabled; concurrent submissions can lose updates")
		return Legacy(s), nil
	default:
		return nil, fmt.Errorf("unknown PROGRESS_INCREMENT %q", cfg.Increment)
	}
}

// Unavailable は接続できなかった進捗バックエンドの代わりに使われます。
type Unavailable struct {
	Backend string
	Reason  string
}

func (u *Unavailable) Name() string { return u.Backend + " (unavailable)" }

func (u *Unavailable) err() error {
	return fmt.Errorf("%s: %s: %w", u.Backend, u.Reason, storage.ErrStorageUnavailable)
}

func (u *Unavailable) Load(context.Context) (map[string]int, error) { return nil, u.err() }

func (u *Unavailable) Save(context.Context, map[string]int) error { return u.err() }

func (u *Unavailable) Increment(context.Context, string) (int, error) { return 0, u.err() }
