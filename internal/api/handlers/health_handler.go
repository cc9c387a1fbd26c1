package handlers

import "net/http"

// HealthResponse は GET /healthz のレスポンスです。
type HealthResponse struct {
	Status   string `json:"status"`
	Storage  string `json:"storage"`
	Progress string `json:"progress"`
}

// HealthHandler は選択中のバックエンド名を返します。
func HealthHandler(storageName, progressName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSONResponse(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Storage:  storageName,
			Progress: progressName,
		})
	}
}
