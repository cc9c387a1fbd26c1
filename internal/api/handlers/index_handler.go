package handlers

import (
	"net/http"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/catalog"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/models"
)

// IndexHandler は描画画面の初期表示に必要な情報を返します。
type IndexHandler struct {
	catalog *catalog.Catalog
}

// NewIndexHandler はIndexHandlerの新しいインスタンスを作成します。
func NewIndexHandler(c *catalog.Catalog) *IndexHandler {
	return &IndexHandler{catalog: c}
}

// ServeHTTP は GET / を処理します。
// ?category=&character= でカタログ内の文字が指定されればそれを、無ければ最初の母音を選択します。
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		WriteErrorResponse(w, http.StatusInternalServerError, "Missing session")
		return
	}

	resp := models.IndexResponse{UserID: userID, Catalog: h.catalog}
	q := r.URL.Query()
	if cat, char := q.Get("category"), q.Get("character"); cat != "" && char != "" &&
		h.catalog.Contains(catalog.Category(cat), char) {
		resp.CurrentCategory, resp.CurrentCharacter = cat, char
	} else if e, ok := h.catalog.DefaultEntry(); ok {
		resp.CurrentCategory, resp.CurrentCharacter = string(e.Category), e.Character
	}
	WriteJSONResponse(w, http.StatusOK, resp)
}
