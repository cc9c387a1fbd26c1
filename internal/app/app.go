// Package app は依存関係を組み立ててサーバーを起動します。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/api"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/catalog"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/progress"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/realtime"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/services/aggregate"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/services/submission"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/storage"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Log    *logger.Logger
	Config *config.Config

	server  *http.Server
	hub     *realtime.Hub
	closers []io.Closer
}

// New は設定を読み込み、ストレージ・サービス・ルーターを組み立てます。
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Log: log, Config: cfg}

	c, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("カタログの読み込みに失敗しました: %w", err)
	}
	log.Info("catalog loaded", "characters", c.TotalCharacters(), "path", cfg.CatalogPath)

	docs, err := storage.Open(ctx, log, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.track(docs)
	// ローカル保存ではカテゴリごとのディレクトリを起動時に用意します。
	if local, ok := docs.(*storage.LocalStore); ok {
		dirs := make([]string, 0, len(catalog.Categories))
		for _, cat := range catalog.Categories {
			dirs = append(dirs, string(cat))
		}
		if err := local.EnsureDirs(dirs...); err != nil {
			a.Close()
			return nil, err
		}
	}

	p, err := progress.Open(ctx, log, cfg.Progress, docs)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.track(p)

	agg := aggregate.NewAggregateService(c, p)
	a.hub = realtime.NewHub(log, agg, cfg.CORSAllowedOrigins)
	subs := submission.NewSubmissionService(log, c, docs, p, submission.WithNotifier(a.hub))

	if cfg.SessionSecretGenerated {
		log.Warn("SESSION_SECRET is not set; sessions will not survive a restart")
	}
	sessions := middleware.NewSessions(log, cfg.SessionSecret, cfg.AppEnv == "production")

	handler := api.NewRouter(api.Deps{
		Log:          log,
		Catalog:      c,
		Submissions:  subs,
		Aggregator:   agg,
		Hub:          a.hub,
		Sessions:     sessions,
		CORSOrigins:  cfg.CORSAllowedOrigins,
		StorageName:  docs.Name(),
		ProgressName: p.Name(),
	})
	a.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("backends selected", "storage", docs.Name(), "progress", p.Name())
	return a, nil
}

// Run は ctx がキャンセルされるまでサーバーを動かし、その後グレースフルに停止します。
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("サーバーの起動に失敗しました: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.Log.Info("server shutting down")
		err := a.server.Shutdown(shutdownCtx)
		a.hub.Close()
		return err
	})
	err := g.Wait()
	a.Close()
	return err
}

// Close は開いているクライアント接続を全て閉じます。
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.Log.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) track(v interface{}) {
	if c, ok := v.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
}
