// Package apperr は投稿処理で返すエラー種別を定義します。
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind はエラーの分類です。
type Kind int

const (
	// KindValidation はリクエスト不備 (利用者が修正可能)。
	KindValidation Kind = iota + 1
	// KindDecode は画像ペイロードの不正。Validation の一種として扱います。
	KindDecode
	// KindStorageUnavailable はストレージ未設定 (運用者が修正可能)。
	KindStorageUnavailable
	// KindStorage は書き込み・読み込み時のバックエンド障害。
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDecode:
		return "decode"
	case KindStorageUnavailable:
		return "storage_unavailable"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error は分類付きのエラーです。Message はクライアントへそのまま返されます。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Decode(message string, err error) *Error {
	return &Error{Kind: KindDecode, Message: message, Err: err}
}

func Storage(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

func Unavailable(message string, err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Message: message, Err: err}
}

// KindOf は err に含まれる最初の *Error の種別を返します。見つからなければ 0。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsValidation は Validation と Decode の両方で true を返します。
func IsValidation(err error) bool {
	k := KindOf(err)
	return k == KindValidation || k == KindDecode
}

// Status は err を HTTP ステータスコードへ変換します。
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation, KindDecode:
		return http.StatusBadRequest
	case KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage はレスポンスに載せるメッセージを返します。
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindStorage && e.Err != nil {
			return e.Error()
		}
		if e.Message != "" {
			return e.Message
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
