// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordFriendRequest(result string)
	RecordLocationFix()
	RecordWSConnection(delta int)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordGeocodeCache(hit bool)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	friendRequests *prometheus.CounterVec
	locationFixes  prometheus.Counter
	wsConnections  prometheus.Gauge
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
	geocodeCache   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		friendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spotomo_friend_requests_total",
			Help: "フレンド申請の結果別合計数",
		}, []string{"result"}),
		locationFixes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spotomo_location_fixes_total",
			Help: "受理されたライブ位置フィックスの合計数",
		}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spotomo_ws_connections",
			Help: "現在のWebSocket接続数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spotomo_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spotomo_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		geocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spotomo_geocode_cache_total",
			Help: "逆ジオコーディングのキャッシュヒット/ミス数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.friendRequests,
		c.locationFixes,
		c.wsConnections,
		c.httpStatus,
		c.requestLatency,
		c.geocodeCache,
	)

	return c
}

// RecordFriendRequest はフレンド申請の結果を記録する。
// resultは "pending" | "accepted" | "rejected" 等。
func (c *Collector) RecordFriendRequest(result string) {
	c.friendRequests.WithLabelValues(result).Inc()
}

// RecordLocationFix は受理されたライブ位置フィックスを記録する。
func (c *Collector) RecordLocationFix() {
	c.locationFixes.Inc()
}

// RecordWSConnection はWebSocket接続数の増減を記録する。
func (c *Collector) RecordWSConnection(delta int) {
	c.wsConnections.Add(float64(delta))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はAPIリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordGeocodeCache は逆ジオコーディングのキャッシュヒット/ミスを記録する。
func (c *Collector) RecordGeocodeCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.geocodeCache.WithLabelValues(result).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
