// Package config はアプリケーション設定の読み込みを提供する。
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
	// Database
	DatabaseURL string

	// Redis（ライブ位置情報・ジオコードキャッシュ）
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Session
	SessionMaxAge int

	// Rate Limit（req/min/user）
	RateLimitGeneral   int
	RateLimitFriendReq int

	// Live Location
	LiveFixTTL       time.Duration // この時間更新のないフィックスはワーカーが破棄する
	LiveMinSendGap   time.Duration // クライアント送信の最小間隔
	LiveMaxAccuracyM float64       // この精度(m)を超えるフィックスは送信しない
	LivePollInterval time.Duration // 集約側ポーリング間隔（1s〜15sにクランプ）

	// Geocoder
	GeocoderBaseURL  string
	GeocodeTimeout   time.Duration
	GeocodeCacheTTL  time.Duration

	// Link Preview
	LinkPreviewTimeout time.Duration
	LinkPreviewMaxSize int64

	// Worker
	CleanupInterval time.Duration

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	if cfg.RedisAddr == "" {
		missing = append(missing, "REDIS_ADDR")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.RedisPassword = getEnvString("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitFriendReq = getEnvInt("RATE_LIMIT_FRIEND_REQ", 30)
	cfg.LiveFixTTL = getEnvDuration("LIVE_FIX_TTL", 2*time.Minute)
	cfg.LiveMinSendGap = getEnvDuration("LIVE_MIN_SEND_GAP", 1200*time.Millisecond)
	cfg.LiveMaxAccuracyM = getEnvFloat("LIVE_MAX_ACCURACY_M", 1500)
	cfg.LivePollInterval = getEnvDuration("LIVE_POLL_INTERVAL", 5*time.Second)
	cfg.GeocoderBaseURL = getEnvString("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org")
	cfg.GeocodeTimeout = getEnvDuration("GEOCODE_TIMEOUT", 5*time.Second)
	cfg.GeocodeCacheTTL = getEnvDuration("GEOCODE_CACHE_TTL", 24*time.Hour)
	cfg.LinkPreviewTimeout = getEnvDuration("LINK_PREVIEW_TIMEOUT", 5*time.Second)
	cfg.LinkPreviewMaxSize = getEnvInt64("LINK_PREVIEW_MAX_SIZE", 1048576)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 1*time.Hour)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
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

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
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
