package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/services/submission"
)

// MsgSaved は投稿成功時のメッセージです。
const MsgSaved = "Saved successfully!"

// MaxDrawingBodyBytes はリクエストボディの上限です。
const MaxDrawingBodyBytes = 10 << 20

// DrawingHandler は手書き画像の投稿APIのエンドポイントを処理します。
type DrawingHandler struct {
	log     *logger.Logger
	service submission.SubmissionService
}

// NewDrawingHandler はDrawingHandlerの新しいインスタンスを作成します。
func NewDrawingHandler(log *logger.Logger, s submission.SubmissionService) *DrawingHandler {
	return &DrawingHandler{log: log.With("handler", "SaveDrawing"), service: s}
}

// ServeHTTP は POST /save_drawing を処理します。
func (h *DrawingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	var req models.SaveDrawingRequest
	r.Body = http.MaxBytesReader(w, r.Body, MaxDrawingBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		h.log.Warn("invalid request body", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	_, err := h.service.Submit(r.Context(), submission.Submission{
		Character: req.Character,
		Category:  req.Category,
		Name:      req.Name,
		Image:     req.Image,
	}, userID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, models.APIResponse{Success: true, Message: MsgSaved})
}
