// Package progress は文字ごとの収集サンプル数 (進捗ドキュメント) を管理します。
package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// TargetSamples は1文字あたりの目標サンプル数です。
const TargetSamples = 50

// ErrContention は楽観的更新の再試行上限に達した場合に返されます。
var ErrContention = errors.New("progress document is under contention")

// Store は "{category}_{character}" → 件数 のマッピングを保持します。
type Store interface {
	Name() string
	// Load はドキュメント全体を返します。未作成なら空のマップ。
	Load(ctx context.Context) (map[string]int, error)
	// Save はドキュメント全体を上書きします。
	Save(ctx context.Context, counts map[string]int) error
	// Increment は key の件数を1増やし、新しい件数を返します。
	// 同時に呼ばれても更新は失われません。
	Increment(ctx context.Context, key string) (int, error)
}

// Key は進捗ドキュメントのキーを組み立てます。
func Key(category, character string) string {
	return category + "_" + character
}

// ReadModifyWrite は Load → +1 → Save を順に行う従来の更新方法です。
// 排他制御が無いため、並行実行されると後勝ちで更新が失われます。
func ReadModifyWrite(ctx context.Context, s Store, key string) (int, error) {
	counts, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}
	counts[key]++
	if err := s.Save(ctx, counts); err != nil {
		return 0, err
	}
	return counts[key], nil
}

// legacyStore は Increment を ReadModifyWrite に差し替えます (PROGRESS_INCREMENT=legacy)。
type legacyStore struct {
	Store
}

// Legacy は s の Increment を従来方式に置き換えた Store を返します。
func Legacy(s Store) Store {
	return legacyStore{Store: s}
}

func (l legacyStore) Name() string { return l.Store.Name() + "+legacy" }

func (l legacyStore) Increment(ctx context.Context, key string) (int, error) {
	return ReadModifyWrite(ctx, l.Store, key)
}

// Close は元のストアが io.Closer なら閉じます。
func (l legacyStore) Close() error {
	if c, ok := l.Store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func validateCounts(counts map[string]int) error {
	for k, v := range counts {
		if v < 0 {
			return fmt.Errorf("progress: negative count %d for %q", v, k)
		}
	}
	return nil
}
