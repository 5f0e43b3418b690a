// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// IDは登録時に発行され、以後変更されない。
type User struct {
	ID           string
	Email        string
	Username     string
	DisplayName  string
	PasswordHash string
	SkillLevel   string
	LocationText string
	Latitude     *float64
	Longitude    *float64
	Sports       []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicProfile は他ユーザーに公開してよいプロフィール情報を返す。
// メールアドレスとパスワードハッシュは含まない。
func (u *User) PublicProfile() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		SkillLevel:   u.SkillLevel,
		LocationText: u.LocationText,
		Sports:       u.Sports,
	}
}

// SearchableFields はパートナー検索の部分一致対象となる文字列を返す。
// 表示名・ユーザー名・スキル・地域・スポーツ種目を連結した小文字化前の文字列。
func (u *User) SearchableFields() string {
	s := u.DisplayName + " " + u.Username + " " + u.SkillLevel + " " + u.LocationText
	for _, sport := range u.Sports {
		s += " " + sport
	}
	return s
}

// PublicUser はユーザーの公開プロフィール。
type PublicUser struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	DisplayName  string   `json:"display_name"`
	SkillLevel   string   `json:"skill_level"`
	LocationText string   `json:"location_text"`
	Sports       []string `json:"sports"`
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
