// Package model はドメインモデルを定義する。
package model

import "time"

// Event はスポーツイベント（集まり）を表す。
type Event struct {
	ID           string
	OwnerID      string
	Title        string
	Sport        string
	LocationText string
	Latitude     *float64
	Longitude    *float64
	StartsAt     time.Time
	CreatedAt    time.Time
}

// EventMember はイベントへの参加を表す。
type EventMember struct {
	EventID  string
	UserID   string
	JoinedAt time.Time
}
