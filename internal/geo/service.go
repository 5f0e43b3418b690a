// Package geo は逆ジオコーディングのプロキシを提供する。
// 上流（Nominatim互換API）への問い合わせ結果はRedisにキャッシュされる。
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/spotomo/internal/model"
	"github.com/hitoshi/spotomo/internal/security"
)

// Address は逆ジオコーディングの結果。
type Address struct {
	DisplayName string `json:"display_name"`
}

// Config はServiceの設定。
type Config struct {
	BaseURL  string        // 上流APIのベースURL
	Timeout  time.Duration // 上流APIのタイムアウト
	CacheTTL time.Duration // キャッシュの有効期間
}

// Service は逆ジオコーディングを提供する。
type Service struct {
	httpClient *http.Client
	rdb        *redis.Client
	config     Config
}

// NewService はServiceを生成する。上流へのリクエストはSSRF防止付き
// クライアント経由で行う。
func NewService(guard security.SSRFGuardService, rdb *redis.Client, config Config) *Service {
	return &Service{
		httpClient: guard.NewSafeClient(config.Timeout, 1<<20),
		rdb:        rdb,
		config:     config,
	}
}

// Reverse は緯度経度から住所表記を取得する。
// 座標は小数第4位（約10m）に丸めてキャッシュキーとする。
func (s *Service) Reverse(ctx context.Context, lat, lng float64) (*Address, error) {
	fix := model.LocationFix{Latitude: lat, Longitude: lng}
	if !fix.ValidCoordinates() {
		return nil, model.NewInvalidCoordinateError(lat, lng)
	}

	cacheKey := fmt.Sprintf("geocode:%.4f,%.4f", lat, lng)

	if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
		addr := &Address{}
		if err := json.Unmarshal([]byte(cached), addr); err == nil {
			return addr, nil
		}
	} else if err != redis.Nil {
		slog.Warn("geocode cache read failed", slog.String("error", err.Error()))
	}

	addr, err := s.fetch(ctx, lat, lng)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(addr); err == nil {
		if err := s.rdb.Set(ctx, cacheKey, data, s.config.CacheTTL).Err(); err != nil {
			slog.Warn("geocode cache write failed", slog.String("error", err.Error()))
		}
	}

	return addr, nil
}

// fetch は上流APIに問い合わせる。
func (s *Service) fetch(ctx context.Context, lat, lng float64) (*Address, error) {
	endpoint := fmt.Sprintf("%s/reverse?%s", s.config.BaseURL, url.Values{
		"lat":    {fmt.Sprintf("%f", lat)},
		"lon":    {fmt.Sprintf("%f", lng)},
		"format": {"jsonv2"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "spotomo/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, model.NewGeocodeFailedError("上流APIに接続できません")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewGeocodeFailedError(fmt.Sprintf("上流APIがステータス%dを返しました", resp.StatusCode))
	}

	addr := &Address{}
	if err := json.NewDecoder(resp.Body).Decode(addr); err != nil {
		return nil, model.NewGeocodeFailedError("上流APIの応答を解釈できません")
	}

	return addr, nil
}
