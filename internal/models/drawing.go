package models

import "github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/catalog"

// SaveDrawingRequest は /save_drawing へのリクエストボディです。
type SaveDrawingRequest struct {
	Character string `json:"character"`
	Category  string `json:"category"`
	Name      string `json:"name"`
	Image     string `json:"image"` // data:image/png;base64,... 形式
}

// APIResponse は成功/失敗を返す共通レスポンスです。
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// IndexResponse は GET / で返す描画画面用のコンテキストです。
type IndexResponse struct {
	UserID           string           `json:"user_id"`
	CurrentCharacter string           `json:"current_character,omitempty"`
	CurrentCategory  string           `json:"current_category,omitempty"`
	Catalog          *catalog.Catalog `json:"catalog"`
}
