// Package model はドメインモデルを定義する。
package model

import "time"

// RelationshipStatus はフレンド関係の状態を表す。
type RelationshipStatus string

const (
	// RelationshipStatusNone はレコードが存在しない状態。
	RelationshipStatusNone RelationshipStatus = "none"
	// RelationshipStatusPending は申請中（相手の承認待ち）の状態。
	RelationshipStatusPending RelationshipStatus = "pending"
	// RelationshipStatusAccepted は成立済みのフレンド関係。終端状態。
	RelationshipStatusAccepted RelationshipStatus = "accepted"
)

// Relationship は2ユーザー間のフレンド関係を表す。
// UserA < UserB（辞書順）となるよう正規化して保存し、
// 順序なしペアごとに高々1レコードであることを複合主キーで保証する。
type Relationship struct {
	UserA     string
	UserB     string
	Requester string
	Status    RelationshipStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Addressee は申請を受けた側のユーザーIDを返す。
func (r *Relationship) Addressee() string {
	if r.Requester == r.UserA {
		return r.UserB
	}
	return r.UserA
}

// Other は指定ユーザーから見た相手側のユーザーIDを返す。
func (r *Relationship) Other(userID string) string {
	if userID == r.UserA {
		return r.UserB
	}
	return r.UserA
}

// Involves は指定ユーザーがこの関係の当事者かを返す。
func (r *Relationship) Involves(userID string) bool {
	return userID == r.UserA || userID == r.UserB
}

// SortPair は2つのユーザーIDを辞書順に並べ替えて返す。
// SortPair(a, b) と SortPair(b, a) は常に同じ結果になる。
func SortPair(u1, u2 string) (string, string) {
	if u1 > u2 {
		return u2, u1
	}
	return u1, u2
}

// PairKey は順序に依存しない正規化ペアキーを返す。
// 2つのIDを辞書順に並べ ":" で連結する。
// IDはサーバー発行のUUIDであるため、大文字小文字や空白の正規化は行わない。
func PairKey(u1, u2 string) string {
	a, b := SortPair(u1, u2)
	return a + ":" + b
}
