package aggregate

import (
	"context"
	"fmt"
	"math"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/catalog"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/progress"
)

// AggregateService は収集全体の進捗を計算するビジネスロジックを定義するインターフェースです。
type AggregateService interface {
	GlobalProgress(ctx context.Context) (models.GlobalProgress, error)
	CharacterProgress(ctx context.Context) (map[string]int, error)
}

// aggregateServiceImpl はAggregateServiceインターフェースの実装です。
// 進捗ストアは読み取りのみで、変更は行いません。
type aggregateServiceImpl struct {
	catalog  *catalog.Catalog
	progress progress.Store
}

// NewAggregateService はAggregateServiceの新しいインスタンスを作成します。
func NewAggregateService(c *catalog.Catalog, p progress.Store) AggregateService {
	return &aggregateServiceImpl{catalog: c, progress: p}
}

// GlobalProgress は進捗ドキュメントのスナップショットから全体統計を計算します。
func (s *aggregateServiceImpl) GlobalProgress(ctx context.Context) (models.GlobalProgress, error) {
	counts, err := s.progress.Load(ctx)
	if err != nil {
		return models.GlobalProgress{}, fmt.Errorf("進捗の取得に失敗しました: %w", err)
	}
	return Compute(s.catalog.TotalCharacters(), counts), nil
}

// CharacterProgress は進捗ドキュメントをそのまま返します。
func (s *aggregateServiceImpl) CharacterProgress(ctx context.Context) (map[string]int, error) {
	counts, err := s.progress.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("進捗の取得に失敗しました: %w", err)
	}
	return counts, nil
}

// Compute は文字数と件数マップから統計を求めます。
// 達成率は小数第1位で偶数丸めし、目標サンプル数が0のときは0.0です。
func Compute(totalCharacters int, counts map[string]int) models.GlobalProgress {
	out := models.GlobalProgress{
		TotalCharacters: totalCharacters,
		TargetSamples:   totalCharacters * progress.TargetSamples,
	}
	for _, n := range counts {
		out.TotalSamples += n
		if n >= progress.TargetSamples {
			out.CharsAtTarget++
		}
	}
	if out.TargetSamples > 0 {
		pct := float64(out.TotalSamples) / float64(out.TargetSamples) * 100
		out.Percentage = math.RoundToEven(pct*10) / 10
	}
	return out
}
