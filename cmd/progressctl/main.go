// Package main は進捗ストアの確認・移行用の管理コマンドです。
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/catalog"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/progress"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/services/aggregate"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/storage"
)

var (
	showRaw    bool
	copyTo     string
	copyDryRun bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "progressctl",
		Short:        "Inspect and migrate handwriting collection progress",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if err := config.LoadDotEnv(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: Error loading .env file: %v\n", err)
			}
		},
	}
	rootCmd.AddCommand(newDBCheckCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newCopyCmd())
	return rootCmd
}

// env は設定済みのストアを開いた状態です。
type env struct {
	cfg     *config.Config
	log     *logger.Logger
	catalog *catalog.Catalog
	docs    storage.DocumentStore
	store   progress.Store
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	c, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	docs, err := storage.Open(ctx, log, cfg.Storage)
	if err != nil {
		return nil, err
	}
	p, err := progress.Open(ctx, log, cfg.Progress, docs)
	if err != nil {
		closeIf(docs)
		return nil, err
	}
	return &env{cfg: cfg, log: log, catalog: c, docs: docs, store: p}, nil
}

func (e *env) Close() {
	closeIf(e.store)
	closeIf(e.docs)
	e.log.Sync()
}

func closeIf(v interface{}) {
	if c, ok := v.(io.Closer); ok {
		_ = c.Close()
	}
}

// newDBCheckCmd は DATABASE_URL への接続を確認し、進捗テーブルを用意します。
func newDBCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dbcheck",
		Short: "Ping DATABASE_URL and create the progress table if missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			databaseURL := os.Getenv("DATABASE_URL")
			if databaseURL == "" {
				return fmt.Errorf("DATABASE_URL 環境変数が設定されていません")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "データベース接続を試行中... (%s...)\n", databaseURL[:min(len(databaseURL), 20)])

			ps, err := progress.NewPostgresStore(cmd.Context(), logger.NewNop(), databaseURL)
			if err != nil {
				return err
			}
			defer ps.Close()

			var version string
			if err := ps.DB.QueryRowContext(cmd.Context(), "SELECT version()").Scan(&version); err != nil {
				fmt.Fprintf(out, "警告: SELECT version() クエリの実行に失敗しました: %v\n", err)
			} else {
				fmt.Fprintf(out, "データベースバージョン: %s\n", version)
			}
			counts, err := ps.Load(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "成功: character_progress に %d 件の文字があります\n", len(counts))
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print progress from the configured backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			agg := aggregate.NewAggregateService(e.catalog, e.store)
			if showRaw {
				counts, err := agg.CharacterProgress(cmd.Context())
				if err != nil {
					return err
				}
				return enc.Encode(counts)
			}
			global, err := agg.GlobalProgress(cmd.Context())
			if err != nil {
				return err
			}
			return enc.Encode(global)
		},
	}
	cmd.Flags().BoolVar(&showRaw, "raw", false, "print per-character counts instead of the summary")
	return cmd
}

// newCopyCmd は設定済みの進捗ストアの内容を別のバックエンドへ書き写します。
func newCopyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy the configured progress into another backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			counts, err := e.store.Load(cmd.Context())
			if err != nil {
				return err
			}
			targetCfg := e.cfg.Progress
			targetCfg.Backend = copyTo
			targetCfg.Increment = progress.IncrementAtomic
			target, err := progress.Open(cmd.Context(), e.log, targetCfg, e.docs)
			if err != nil {
				return err
			}
			defer closeIf(target)
			if target.Name() == e.store.Name() {
				return fmt.Errorf("source and target are both %s", target.Name())
			}

			keys := make([]string, 0, len(counts))
			for k := range counts {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			out := cmd.OutOrStdout()
			for _, k := range keys {
				fmt.Fprintf(out, "%s\t%d\n", k, counts[k])
			}
			if copyDryRun {
				fmt.Fprintf(out, "dry run: %d keys from %s would be written to %s\n", len(keys), e.store.Name(), target.Name())
				return nil
			}
			if err := target.Save(cmd.Context(), counts); err != nil {
				return err
			}
			fmt.Fprintf(out, "copied %d keys from %s to %s\n", len(keys), e.store.Name(), target.Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&copyTo, "to", progress.BackendPostgres, "target backend (document|redis|postgres)")
	cmd.Flags().BoolVar(&copyDryRun, "dry-run", false, "print the counts without writing")
	return cmd
}
