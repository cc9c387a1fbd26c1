package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/apperr"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/storage"
)

// WriteJSONResponse はJSONレスポンスを書き込みます。
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteErrorResponse はエラーレスポンスを {success:false, message} 形式で書き込みます。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	WriteJSONResponse(w, statusCode, models.APIResponse{Success: false, Message: message})
}

// writeAppError は apperr の種類からステータスとメッセージを決めます。
func writeAppError(w http.ResponseWriter, err error) {
	WriteErrorResponse(w, apperr.Status(err), apperr.PublicMessage(err))
}

// readError は読み取り系のストレージエラーを apperr に変換します。
func readError(msg string, err error) error {
	if errors.Is(err, storage.ErrStorageUnavailable) {
		return apperr.Unavailable("Storage is not configured", err)
	}
	return apperr.Storage(msg, err)
}
