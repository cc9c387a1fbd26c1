// Package config はアプリケーション設定を環境変数から読み込みます。
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/platform/envutil"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/progress"
	"github.com/progate-hackathon-strawberry-flavor/telugu-collector-backend/internal/storage"
)

const (
	DefaultPort     = "8080"
	DefaultDataRoot = "collected_data"
	DefaultPrefix   = "telugu_handwriting/"
)

// DefaultCORSOrigins はローカル開発用のフロントエンドのオリジンです。
var DefaultCORSOrigins = []string{"http://localhost:3000", "http://localhost:8080"}

// Config はサーバー起動に必要な設定です。
type Config struct {
	Port        string
	AppEnv      string
	LogMode     string
	CatalogPath string

	Storage  storage.Config
	Progress progress.Config

	SessionSecret string
	// SessionSecretGenerated は SESSION_SECRET が未設定で一時的な鍵を生成したことを示します。
	SessionSecretGenerated bool
	CORSAllowedOrigins     []string
}

// LoadDotEnv は本番環境以外で .env ファイルを読み込みます。
// ファイルが無いのは正常なので、エラーは呼び出し側で警告として扱います。
func LoadDotEnv() error {
	if os.Getenv("APP_ENV") == "production" {
		return nil
	}
	return godotenv.Load()
}

// Load は環境変数から Config を組み立てます。
func Load() (*Config, error) {
	cfg := &Config{
		Port:        envutil.String("PORT", DefaultPort),
		AppEnv:      envutil.String("APP_ENV", "development"),
		LogMode:     envutil.String("LOG_MODE", ""),
		CatalogPath: envutil.String("CATALOG_PATH", ""),
		Storage: storage.Config{
			Backend:  strings.ToLower(envutil.String("STORAGE_BACKEND", storage.BackendLocal)),
			DataRoot: envutil.String("DATA_ROOT", DefaultDataRoot),
			Prefix:   envutil.String("STORAGE_PREFIX", DefaultPrefix),
			Supabase: storage.SupabaseConfig{
				URL:        envutil.String("SUPABASE_URL", ""),
				ServiceKey: envutil.String("SUPABASE_SERVICE_KEY", ""),
				Bucket:     envutil.String("SUPABASE_BUCKET", ""),
			},
			GCS: storage.GCSConfig{
				Bucket:          envutil.String("GCS_BUCKET_NAME", ""),
				CredentialsFile: envutil.String("GCS_CREDENTIALS_FILE", ""),
				EmulatorHost:    envutil.String("STORAGE_EMULATOR_HOST", ""),
			},
		},
		Progress: progress.Config{
			Backend:     strings.ToLower(envutil.String("PROGRESS_BACKEND", progress.BackendDocument)),
			DocumentKey: envutil.String("PROGRESS_KEY", ""),
			Increment:   strings.ToLower(envutil.String("PROGRESS_INCREMENT", progress.IncrementAtomic)),
			Redis: progress.RedisConfig{
				Addr:     envutil.String("REDIS_ADDR", ""),
				Password: envutil.String("REDIS_PASSWORD", ""),
				DB:       envutil.Int("REDIS_DB", 0),
				HashKey:  envutil.String("REDIS_PROGRESS_KEY", ""),
			},
			DatabaseURL: envutil.String("DATABASE_URL", ""),
		},
		SessionSecret:      envutil.String("SESSION_SECRET", ""),
		CORSAllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS"),
	}
	if cfg.LogMode == "" {
		cfg.LogMode = cfg.AppEnv
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = DefaultCORSOrigins
	}

	// ローカルでは進捗ドキュメントをデータルート直下に置き、
	// リモートでは global_progress/ 以下に置きます。
	if cfg.Progress.DocumentKey == "" {
		if cfg.Storage.Remote() {
			cfg.Progress.DocumentKey = progress.RemoteDocumentKey
		} else {
			cfg.Progress.DocumentKey = progress.LocalDocumentKey
		}
	}

	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("セッション鍵の生成に失敗しました: %w", err)
		}
		cfg.SessionSecret = secret
		cfg.SessionSecretGenerated = true
	}
	return cfg, nil
}

// Addr は http.Server 用の待ち受けアドレスです。
func (c *Config) Addr() string {
	return ":" + c.Port
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
