package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
)

// SessionCookieName はセッションを保持する Cookie の名前です。
const SessionCookieName = "session"

type UserIDKey struct{}

// GetUserIDFromContext retrieves the user ID from the context.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey{}).(string)
	return userID, ok && userID != ""
}

// WithUserID はユーザーIDを Context に設定します。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey{}, userID)
}

// Sessions は署名付き Cookie で匿名ユーザーのセッションを管理します。
type Sessions struct {
	log    *logger.Logger
	secret []byte
	secure bool
	now    func() time.Time
}

// NewSessions は HS256 で署名する Sessions を作成します。
// secure が true のとき Cookie に Secure 属性を付けます。
func NewSessions(log *logger.Logger, secret string, secure bool) *Sessions {
	return &Sessions{
		log:    log.With("component", "SessionMiddleware"),
		secret: []byte(secret),
		secure: secure,
		now:    time.Now,
	}
}

// Middleware はリクエストのセッションからユーザーIDを取り出して Context に設定します。
// Cookie が無い、または検証できない場合は新しいユーザーIDを発行します。
// セッションを理由にリクエストを拒否することはありません。
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.userIDFromRequest(r)
		if err != nil {
			userID = uuid.NewString()
			token, err := s.Sign(userID)
			if err != nil {
				s.log.Error("failed to sign session", "error", err)
			} else {
				http.SetCookie(w, s.cookie(token))
				s.log.Debug("new session issued", "user_id", userID)
			}
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// Sign はユーザーIDを sub に持つトークンを作成します。
func (s *Sessions) Sign(userID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(s.now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse はトークンを検証し、ユーザーIDを返します。
func (s *Sessions) Parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// アルゴリズムがHMACであることを確認
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid session token")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", fmt.Errorf("invalid session subject: %w", err)
	}
	return id.String(), nil
}

func (s *Sessions) userIDFromRequest(r *http.Request) (string, error) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}
	return s.Parse(c.Value)
}

func (s *Sessions) cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
