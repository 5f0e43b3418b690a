// Package model はドメインモデルを定義する。
package model

import "time"

// LocationFix はイベント内の1ユーザーの最新位置を表す。
// ユーザー×イベントごとに1件のみ保持し、更新のたびに上書きされる。
// 履歴は持たない一時データで、共有停止または退出で削除される。
type LocationFix struct {
	EventID   string   `json:"event_id"`
	UserID    string   `json:"user_id"`
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"lng"`
	Accuracy  *float64 `json:"accuracy,omitempty"` // メートル単位。取得できない端末ではnil
	Heading   *float64 `json:"heading,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidCoordinates は緯度経度が有効範囲内かを返す。
// 緯度 [-90, 90]、経度 [-180, 180]。範囲外は却下する（丸めない）。
func (f *LocationFix) ValidCoordinates() bool {
	return f.Latitude >= -90 && f.Latitude <= 90 &&
		f.Longitude >= -180 && f.Longitude <= 180
}
