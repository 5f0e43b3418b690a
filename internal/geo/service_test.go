package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/spotomo/internal/model"
)

// permissiveGuard はテスト用のガード。httptestのループバックURLを通す。
type permissiveGuard struct{}

func (permissiveGuard) NewSafeClient(timeout time.Duration, _ int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (permissiveGuard) ValidateURL(_ string) error { return nil }

// setupTestRedis はテスト用Redisに接続する。接続できない環境ではスキップする。
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("テスト用Redisに接続できません（スキップ）: %v", err)
	}

	t.Cleanup(func() {
		rdb.FlushDB(context.Background())
		rdb.Close()
	})
	rdb.FlushDB(context.Background())

	return rdb
}

func TestReverse_FetchesAndCaches(t *testing.T) {
	rdb := setupTestRedis(t)

	var upstreamCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
		if r.URL.Query().Get("format") != "jsonv2" {
			t.Errorf("format = %q, want jsonv2", r.URL.Query().Get("format"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"display_name": "東京都千代田区丸の内一丁目"}`))
	}))
	defer server.Close()

	svc := NewService(permissiveGuard{}, rdb, Config{
		BaseURL:  server.URL,
		Timeout:  5 * time.Second,
		CacheTTL: time.Minute,
	})
	ctx := context.Background()

	addr, err := svc.Reverse(ctx, 35.6812, 139.7671)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if addr.DisplayName != "東京都千代田区丸の内一丁目" {
		t.Errorf("DisplayName = %q", addr.DisplayName)
	}

	// 同一座標の2回目はキャッシュから返り、上流は呼ばれない
	addr2, err := svc.Reverse(ctx, 35.6812, 139.7671)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if addr2.DisplayName != addr.DisplayName {
		t.Errorf("キャッシュの内容が一致しない: %q", addr2.DisplayName)
	}
	if n := upstreamCalls.Load(); n != 1 {
		t.Errorf("上流の呼び出し回数 = %d, want 1", n)
	}
}

func TestReverse_RejectsOutOfRangeCoordinates(t *testing.T) {
	rdb := setupTestRedis(t)
	svc := NewService(permissiveGuard{}, rdb, Config{
		BaseURL: "http://example.com", Timeout: time.Second, CacheTTL: time.Minute,
	})

	_, err := svc.Reverse(context.Background(), 95, 139.76)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCoordinate {
		t.Errorf("InvalidCoordinateエラーが返るはず: %v", err)
	}
}

func TestReverse_UpstreamErrorIsGeocodeFailed(t *testing.T) {
	rdb := setupTestRedis(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := NewService(permissiveGuard{}, rdb, Config{
		BaseURL: server.URL, Timeout: time.Second, CacheTTL: time.Minute,
	})

	_, err := svc.Reverse(context.Background(), 35.68, 139.76)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeGeocodeFailed {
		t.Errorf("GeocodeFailedエラーが返るはず: %v", err)
	}
}
