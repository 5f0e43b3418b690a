package middleware

import (
	"net/http"
	"time"
)

// MetricsRecorder はHTTPメトリクスの記録インターフェース。
// metrics.Collectorが実装する。
type MetricsRecorder interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// NewMetricsMiddleware はレスポンスのステータスコードとレイテンシを
// 記録するミドルウェアを返す。
func NewMetricsMiddleware(recorder MetricsRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			recorder.RecordHTTPStatus(sr.statusCode)
			recorder.RecordRequestLatency(time.Since(start))
		})
	}
}
