package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Appwrite（リモートプラットフォーム）
	AppwriteEndpoint     string
	AppwriteProjectID    string
	AppwriteDatabaseID   string
	AppwriteCollectionID string
	AppwriteBucketID     string
	// AppwriteSessionは前回のセッションを引き継ぐためのシークレット。
	// 未設定の場合は未ログイン状態で起動する。
	AppwriteSession string

	// Platform request
	RequestTimeout time.Duration
	UploadMaxSize  int64

	// OAuth
	OAuthProbeDelay time.Duration

	// Rate Limit
	RateLimitGeneral int
	RateLimitPublish int

	// Server
	ServerPort string
	BaseURL    string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.AppwriteEndpoint = os.Getenv("APPWRITE_ENDPOINT")
	if cfg.AppwriteEndpoint == "" {
		missing = append(missing, "APPWRITE_ENDPOINT")
	}

	cfg.AppwriteProjectID = os.Getenv("APPWRITE_PROJECT_ID")
	if cfg.AppwriteProjectID == "" {
		missing = append(missing, "APPWRITE_PROJECT_ID")
	}

	cfg.AppwriteDatabaseID = os.Getenv("APPWRITE_DATABASE_ID")
	if cfg.AppwriteDatabaseID == "" {
		missing = append(missing, "APPWRITE_DATABASE_ID")
	}

	cfg.AppwriteCollectionID = os.Getenv("APPWRITE_COLLECTION_ID")
	if cfg.AppwriteCollectionID == "" {
		missing = append(missing, "APPWRITE_COLLECTION_ID")
	}

	cfg.AppwriteBucketID = os.Getenv("APPWRITE_BUCKET_ID")
	if cfg.AppwriteBucketID == "" {
		missing = append(missing, "APPWRITE_BUCKET_ID")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// エンドポイントの末尾スラッシュを取り除いて正規化する
	cfg.AppwriteEndpoint = strings.TrimRight(cfg.AppwriteEndpoint, "/")

	// Optional fields with defaults
	cfg.AppwriteSession = os.Getenv("APPWRITE_SESSION")
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", 10*time.Second)
	cfg.UploadMaxSize = getEnvInt64("UPLOAD_MAX_SIZE", 10485760)
	cfg.OAuthProbeDelay = getEnvDuration("OAUTH_PROBE_DELAY", 800*time.Millisecond)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitPublish = getEnvInt("RATE_LIMIT_PUBLISH", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
