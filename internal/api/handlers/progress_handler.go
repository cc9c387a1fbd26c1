package handlers

import (
	"net/http"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/services/aggregate"
)

// ProgressHandler は収集進捗の取得エンドポイントを管理する構造体です。
type ProgressHandler struct {
	log        *logger.Logger
	aggregator aggregate.AggregateService
}

// NewProgressHandler は新しいProgressHandlerインスタンスを作成します。
func NewProgressHandler(log *logger.Logger, agg aggregate.AggregateService) *ProgressHandler {
	return &ProgressHandler{log: log.With("handler", "Progress"), aggregator: agg}
}

// GetGlobalProgress は全体の集計値を返すハンドラーです。
// GET /get_global_progress
func (h *ProgressHandler) GetGlobalProgress(w http.ResponseWriter, r *http.Request) {
	global, err := h.aggregator.GlobalProgress(r.Context())
	if err != nil {
		h.log.Error("global progress failed", "error", err)
		writeAppError(w, readError("failed to load progress", err))
		return
	}
	WriteJSONResponse(w, http.StatusOK, global)
}

// GetCharacterProgress は文字ごとの件数をそのまま返すハンドラーです。
// GET /get_character_progress
func (h *ProgressHandler) GetCharacterProgress(w http.ResponseWriter, r *http.Request) {
	counts, err := h.aggregator.CharacterProgress(r.Context())
	if err != nil {
		h.log.Error("character progress failed", "error", err)
		writeAppError(w, readError("failed to load progress", err))
		return
	}
	if counts == nil {
		counts = map[string]int{}
	}
	WriteJSONResponse(w, http.StatusOK, counts)
}
