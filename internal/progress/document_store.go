package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/storage"
)

const (
	// RemoteDocumentKey はリモートストレージ上の進捗ドキュメントの位置です。
	RemoteDocumentKey = "global_progress/progress.json"
	// LocalDocumentKey はローカル保存時の進捗ドキュメントの位置です。
	LocalDocumentKey = "progress.json"

	maxIncrementAttempts = 32
)

// DocumentStore は進捗を1つの JSON ドキュメントとして BlobStore に保存します。
//
// Increment の排他方式はバックエンドで決まります。
//   - storage.VersionedStore: 世代番号付きの条件付き書き込みで再試行
//   - それ以外: プロセス内ミューテックスで Load → Save を直列化
type DocumentStore struct {
	log     *logger.Logger
	backend storage.DocumentStore
	key     string
	mu      sync.Mutex
}

// NewDocumentStore は DocumentStore の新しいインスタンスを作成します。
func NewDocumentStore(log *logger.Logger, backend storage.DocumentStore, key string) *DocumentStore {
	return &DocumentStore{
		log:     log.With("service", "ProgressDocument", "key", key),
		backend: backend,
		key:     key,
	}
}

func (s *DocumentStore) Name() string { return "document:" + s.backend.Name() }

func (s *DocumentStore) Load(ctx context.Context) (map[string]int, error) {
	data, err := s.backend.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("進捗ドキュメントの読み込みに失敗しました: %w", err)
	}
	return decode(data)
}

func (s *DocumentStore) Save(ctx context.Context, counts map[string]int) error {
	if err := validateCounts(counts); err != nil {
		return err
	}
	data, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("進捗ドキュメントのエンコードに失敗しました: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Put(ctx, s.key, data, storage.ContentTypeJSON); err != nil {
		return fmt.Errorf("進捗ドキュメントの保存に失敗しました: %w", err)
	}
	return nil
}

func (s *DocumentStore) Increment(ctx context.Context, key string) (int, error) {
	if v, ok := s.backend.(storage.VersionedStore); ok {
		return s.incrementVersioned(ctx, v, key)
	}
	return s.incrementLocked(ctx, key)
}

func (s *DocumentStore) incrementVersioned(ctx context.Context, v storage.VersionedStore, key string) (int, error) {
	for attempt := 1; attempt <= maxIncrementAttempts; attempt++ {
		data, gen, err := v.GetVersioned(ctx, s.key)
		counts := map[string]int{}
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return 0, fmt.Errorf("進捗ドキュメントの読み込みに失敗しました: %w", err)
		default:
			if counts, err = decode(data); err != nil {
				return 0, err
			}
		}

		counts[key]++
		encoded, err := json.Marshal(counts)
		if err != nil {
			return 0, fmt.Errorf("進捗ドキュメントのエンコードに失敗しました: %w", err)
		}

		_, err = v.PutIfMatch(ctx, s.key, encoded, storage.ContentTypeJSON, gen)
		if err == nil {
			return counts[key], nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return 0, fmt.Errorf("進捗ドキュメントの保存に失敗しました: %w", err)
		}
		s.log.Debug("progress document changed underneath, retrying", "attempt", attempt, "char_key", key)
		if err := backoff(ctx, attempt); err != nil {
			return 0, err
		}
	}
	s.log.Warn("giving up on progress increment", "char_key", key, "attempts", maxIncrementAttempts)
	return 0, ErrContention
}

func (s *DocumentStore) incrementLocked(ctx context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	counts[key]++
	data, err := json.Marshal(counts)
	if err != nil {
		return 0, fmt.Errorf("進捗ドキュメントのエンコードに失敗しました: %w", err)
	}
	if err := s.backend.Put(ctx, s.key, data, storage.ContentTypeJSON); err != nil {
		return 0, fmt.Errorf("進捗ドキュメントの保存に失敗しました: %w", err)
	}
	return counts[key], nil
}

func decode(data []byte) (map[string]int, error) {
	counts := map[string]int{}
	if len(data) == 0 {
		return counts, nil
	}
	if err := json.Unmarshal(data, &counts); err != nil {
		return nil, fmt.Errorf("進捗ドキュメントのパースに失敗しました: %w", err)
	}
	if counts == nil {
		counts = map[string]int{}
	}
	if err := validateCounts(counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func backoff(ctx context.Context, attempt int) error {
	d := time.Duration(attempt)*time.Millisecond + rand.N(2*time.Millisecond)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
