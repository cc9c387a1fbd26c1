package submission

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/apperr"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/catalog"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/logger"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/progress"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/storage"
)

// MsgMissingFields は必須項目が欠けているときのメッセージです。
const MsgMissingFields = "Missing required fields"

// Submission は1枚の手書き画像の投稿内容です。
type Submission struct {
	Character string
	Category  string
	Name      string
	Image     string // data URI
}

// Result は受理された投稿の保存先と更新後の件数です。
type Result struct {
	CanonicalKey string
	UserKey      string
	ProgressKey  string
	Count        int
}

// ProgressNotifier は進捗が更新されたことを受け取ります。
type ProgressNotifier interface {
	ProgressChanged(ctx context.Context, key string, count int)
}

// SubmissionService は投稿を検証・保存し、進捗を加算するビジネスロジックを定義するインターフェースです。
type SubmissionService interface {
	Submit(ctx context.Context, sub Submission, userID string) (*Result, error)
}

type Option func(*submissionServiceImpl)

// WithNotifier は投稿受理後に通知する先を設定します。
func WithNotifier(n ProgressNotifier) Option {
	return func(s *submissionServiceImpl) { s.notifier = n }
}

// WithSuffixGenerator はファイル名のランダム部分の生成方法を差し替えます。
func WithSuffixGenerator(gen func() string) Option {
	return func(s *submissionServiceImpl) { s.suffix = gen }
}

// submissionServiceImpl はSubmissionServiceインターフェースの実装です。
type submissionServiceImpl struct {
	log      *logger.Logger
	catalog  *catalog.Catalog
	blobs    storage.BlobStore
	progress progress.Store
	notifier ProgressNotifier
	suffix   func() string
}

// NewSubmissionService はSubmissionServiceの新しいインスタンスを作成します。
func NewSubmissionService(log *logger.Logger, c *catalog.Catalog, blobs storage.BlobStore, p progress.Store, opts ...Option) SubmissionService {
	s := &submissionServiceImpl{
		log:      log.With("service", "SubmissionService"),
		catalog:  c,
		blobs:    blobs,
		progress: p,
		suffix:   randomSuffix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit は投稿を処理します。
// 2つのコピー (カテゴリ別・ユーザー別) の書き込みはトランザクションではなく、
// 片方だけ成功した場合も書き込まれた画像は削除しません。
func (s *submissionServiceImpl) Submit(ctx context.Context, sub Submission, userID string) (*Result, error) {
	if sub.Character == "" || sub.Category == "" || sub.Name == "" || sub.Image == "" {
		return nil, apperr.Validation(MsgMissingFields)
	}
	if userID == "" {
		return nil, apperr.Validation("Missing session")
	}
	if !s.catalog.HasCategory(sub.Category) {
		return nil, apperr.Validation(fmt.Sprintf("Unknown category: %s", sub.Category))
	}

	data, err := DecodeDataURI(sub.Image)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("%s_%s.png", SanitizeFilename(sub.Name), s.suffix())
	canonicalKey, err := storage.Key(sub.Category, filename)
	if err != nil {
		return nil, apperr.Validation("Invalid name")
	}
	userKey, err := storage.Key(userID, sub.Category, filename)
	if err != nil {
		return nil, apperr.Validation("Invalid session")
	}

	if err := s.blobs.Put(ctx, canonicalKey, data, storage.ContentTypePNG); err != nil {
		s.log.Error("canonical write failed", "key", canonicalKey, "error", err)
		return nil, storageError("failed to save drawing", err)
	}
	if err := s.blobs.Put(ctx, userKey, data, storage.ContentTypePNG); err != nil {
		s.log.Error("per-user write failed; canonical copy kept", "key", canonicalKey, "user_id", userID, "error", err)
		return nil, storageError("failed to save drawing", err)
	}

	progressKey := progress.Key(sub.Category, sub.Character)
	count, err := s.progress.Increment(ctx, progressKey)
	if err != nil {
		s.log.Error("progress increment failed", "char_key", progressKey, "error", err)
		return nil, storageError("failed to update progress", err)
	}

	s.log.Info("drawing saved", "key", canonicalKey, "user_id", userID, "char_key", progressKey, "count", count, "bytes", len(data))
	if s.notifier != nil {
		s.notifier.ProgressChanged(ctx, progressKey, count)
	}
	return &Result{
		CanonicalKey: canonicalKey,
		UserKey:      userKey,
		ProgressKey:  progressKey,
		Count:        count,
	}, nil
}

// DecodeDataURI は "data:image/png;base64,...." から画像バイト列を取り出します。
func DecodeDataURI(uri string) ([]byte, error) {
	_, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, apperr.Decode("Invalid image data: missing ',' separator", nil)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, apperr.Decode("Invalid image data: malformed base64", err)
	}
	if len(data) == 0 {
		return nil, apperr.Decode("Invalid image data: empty image", nil)
	}
	return data, nil
}

// SanitizeFilename は [A-Za-z0-9_.- ] 以外の文字を '_' に置き換えます。
// 文字数 (rune 数) は変わりません。
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if allowedFilenameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func allowedFilenameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '.', r == '-', r == ' ':
		return true
	}
	return false
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func storageError(msg string, err error) error {
	if errors.Is(err, storage.ErrStorageUnavailable) {
		return apperr.Unavailable("Storage is not configured", err)
	}
	return apperr.Storage(msg, err)
}
