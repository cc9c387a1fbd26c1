package progress

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQLドライバー

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
)

const createProgressTable = `
CREATE TABLE IF NOT EXISTS character_progress (
	char_key     TEXT PRIMARY KEY,
	sample_count INTEGER NOT NULL DEFAULT 0 CHECK (sample_count >= 0),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore は進捗を character_progress テーブルに保持します。
type PostgresStore struct {
	log *logger.Logger
	DB  *sql.DB
}

// NewPostgresStore はデータベースに接続し、テーブルが無ければ作成します。
func NewPostgresStore(ctx context.Context, log *logger.Logger, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("missing DATABASE_URL")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("データベースへの接続オブジェクト作成に失敗しました: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベースのPingに失敗しました。接続情報やネットワークを確認してください: %w", err)
	}
	s := NewPostgresStoreFromDB(log, db)
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s.log.Info("connected to database")
	return s, nil
}

// NewPostgresStoreFromDB は既存の接続を使います。
func NewPostgresStoreFromDB(log *logger.Logger, db *sql.DB) *PostgresStore {
	return &PostgresStore{log: log.With("service", "PostgresProgress"), DB: db}
}

// EnsureSchema は character_progress テーブルを作成します。
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, createProgressTable); err != nil {
		return fmt.Errorf("character_progress テーブルの作成に失敗しました: %w", err)
	}
	return nil
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Close() error { return s.DB.Close() }

func (s *PostgresStore) Load(ctx context.Context) (map[string]int, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT char_key, sample_count FROM character_progress`)
	if err != nil {
		return nil, fmt.Errorf("進捗データの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("進捗データのスキャンに失敗しました: %w", err)
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("進捗データのイテレーション中にエラーが発生しました: %w", err)
	}
	return counts, nil
}

// Save は既存の行を全て削除してから書き直します。
func (s *PostgresStore) Save(ctx context.Context, counts map[string]int) error {
	if err := validateCounts(counts); err != nil {
		return err
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM character_progress`); err != nil {
		return fmt.Errorf("既存の進捗データの削除に失敗しました: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO character_progress (char_key, sample_count) VALUES ($1, $2)`)
	if err != nil {
		return fmt.Errorf("INSERT文の準備に失敗しました: %w", err)
	}
	defer stmt.Close()

	for k, v := range counts {
		if _, err := stmt.ExecContext(ctx, k, v); err != nil {
			return fmt.Errorf("進捗データの挿入に失敗しました (%s): %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

func (s *PostgresStore) Increment(ctx context.Context, key string) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO character_progress (char_key, sample_count)
		VALUES ($1, 1)
		ON CONFLICT (char_key)
		DO UPDATE SET sample_count = character_progress.sample_count + 1, updated_at = NOW()
		RETURNING sample_count`, key).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("進捗の加算に失敗しました (%s): %w", key, err)
	}
	return count, nil
}
