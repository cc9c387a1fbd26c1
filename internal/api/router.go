// Package api は HTTP ルーティングを組み立てます。
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/catalog"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/realtime"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/services/aggregate"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/services/submission"
)

// Deps はルーターが必要とする依存関係です。
type Deps struct {
	Log          *logger.Logger
	Catalog      *catalog.Catalog
	Submissions  submission.SubmissionService
	Aggregator   aggregate.AggregateService
	Hub          *realtime.Hub
	Sessions     *middleware.Sessions
	CORSOrigins  []string
	StorageName  string
	ProgressName string
}

// NewRouter は全エンドポイントを登録した http.Handler を返します。
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()

	// セッション不要なエンドポイント
	progressHandler := handlers.NewProgressHandler(d.Log, d.Aggregator)
	r.HandleFunc("/get_global_progress", progressHandler.GetGlobalProgress).Methods(http.MethodGet)
	r.HandleFunc("/get_character_progress", progressHandler.GetCharacterProgress).Methods(http.MethodGet)
	r.HandleFunc("/healthz", handlers.HealthHandler(d.StorageName, d.ProgressName)).Methods(http.MethodGet)
	if d.Hub != nil {
		r.HandleFunc("/ws/progress", d.Hub.ServeWS).Methods(http.MethodGet)
	}

	// セッションが必要なエンドポイント
	sessionRouter := r.PathPrefix("/").Subrouter()
	sessionRouter.Use(d.Sessions.Middleware)
	sessionRouter.Handle("/", handlers.NewIndexHandler(d.Catalog)).Methods(http.MethodGet)
	sessionRouter.Handle("/save_drawing", handlers.NewDrawingHandler(d.Log, d.Submissions)).Methods(http.MethodPost)

	return middleware.CORSHandler(d.CORSOrigins)(r)
}
