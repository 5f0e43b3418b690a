// Package model はドメインモデルを定義する。
package model

import "time"

// Post はソーシャルフィードへの投稿を表す。
// Bodyはサニタイズ済みHTMLとして保存される。
type Post struct {
	ID              string
	AuthorID        string
	Body            string
	LinkURL         string
	LinkTitle       string
	LinkDescription string
	CreatedAt       time.Time
}
