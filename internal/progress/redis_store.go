package progress

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
)

// RedisConfig は Redis バックエンドの接続情報です。
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// HashKey は件数を保持するハッシュのキーです。
	HashKey string
}

// RedisStore は進捗を Redis のハッシュに保持し、HINCRBY で加算します。
type RedisStore struct {
	log *logger.Logger
	rdb *goredis.Client
	key string
}

// NewRedisStore は接続を確立し、Ping で疎通を確認します。
func NewRedisStore(ctx context.Context, log *logger.Logger, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreFromClient(log, rdb, cfg.HashKey), nil
}

// NewRedisStoreFromClient は既存のクライアントを使います。
func NewRedisStoreFromClient(log *logger.Logger, rdb *goredis.Client, hashKey string) *RedisStore {
	if hashKey == "" {
		hashKey = "global_progress"
	}
	return &RedisStore{
		log: log.With("service", "RedisProgress", "hash", hashKey),
		rdb: rdb,
		key: hashKey,
	}
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Close() error { return s.rdb.Close() }

func (s *RedisStore) Load(ctx context.Context) (map[string]int, error) {
	raw, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL %s: %w", s.key, err)
	}
	counts := make(map[string]int, len(raw))
	for field, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("redis: count for %q is not an integer: %w", field, err)
		}
		counts[field] = n
	}
	if err := validateCounts(counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *RedisStore) Save(ctx context.Context, counts map[string]int) error {
	if err := validateCounts(counts); err != nil {
		return err
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(counts) == 0 {
			return nil
		}
		values := make(map[string]interface{}, len(counts))
		for k, v := range counts {
			values[k] = v
		}
		pipe.HSet(ctx, s.key, values)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Increment(ctx context.Context, key string) (int, error) {
	n, err := s.rdb.HIncrBy(ctx, s.key, key, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("redis HINCRBY %s %s: %w", s.key, key, err)
	}
	return int(n), nil
}
