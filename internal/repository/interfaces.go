// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/spotomo/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// ExistsByEmailOrUsername はメールアドレスまたはユーザー名が登録済みかを返す。
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile はプロフィール項目（表示名・スキル・地域・座標・種目）を更新する。
	// ID・メールアドレス・ユーザー名・パスワードハッシュは変更しない。
	UpdateProfile(ctx context.Context, user *model.User) error

	// ListAll は全ユーザーを登録順（created_at昇順）で返す。
	// パートナー検索の走査元として使用する。limitが0以下の場合は無制限。
	ListAll(ctx context.Context, limit int) ([]*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// RelationshipRepository はフレンド関係の永続化インターフェース。
// ペアは常に正規化順（user_a < user_b）で保存される。
type RelationshipRepository interface {
	// Find は順序なしペアの関係レコードを取得する。
	// 存在しない場合はnilを返す（エラーではなく正当な不在状態）。
	Find(ctx context.Context, u1, u2 string) (*model.Relationship, error)

	// Upsert は正規化ペアキーに対してレコードを挿入または置換する。
	Upsert(ctx context.Context, rel *model.Relationship) error

	// ListByUser は指定ユーザーが当事者である全レコードを返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Relationship, error)

	// ListAcceptedByUser は成立済みの関係を承認時刻（updated_at）昇順で返す。
	ListAcceptedByUser(ctx context.Context, userID string) ([]*model.Relationship, error)

	// ListPendingByAddressee は指定ユーザー宛の承認待ち申請を申請時刻昇順で返す。
	ListPendingByAddressee(ctx context.Context, userID string) ([]*model.Relationship, error)
}

// EventRepository はイベントデータの永続化インターフェース。
type EventRepository interface {
	// Create はイベントを作成し、作成者をメンバーとして登録する。
	Create(ctx context.Context, event *model.Event) error
	// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Event, error)
	// List はイベント一覧を開始時刻昇順で返す。
	List(ctx context.Context, limit int) ([]*model.Event, error)
	// AddMember はイベントにメンバーを追加する。既存メンバーの場合は何もしない。
	AddMember(ctx context.Context, eventID, userID string) error
	// RemoveMember はイベントからメンバーを削除する。
	RemoveMember(ctx context.Context, eventID, userID string) error
	// IsMember は指定ユーザーがイベントのメンバーかを返す。
	IsMember(ctx context.Context, eventID, userID string) (bool, error)
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error
	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)
	// DeleteByID は指定IDの投稿を削除する。
	DeleteByID(ctx context.Context, id string) error
	// ListByAuthors は指定した投稿者群の投稿を新しい順で返す。
	ListByAuthors(ctx context.Context, authorIDs []string, limit int) ([]*model.Post, error)
}

// LocationRepository はライブ位置情報の一時保存インターフェース。
// 実装はRedisを想定しており、ユーザー×イベントごとに最新1件のみ保持する。
type LocationRepository interface {
	// Upsert はフィックスを保存する。既存のフィックスは上書きされる。
	Upsert(ctx context.Context, fix *model.LocationFix) error
	// Remove は指定ユーザーのフィックスを削除する。存在しない場合も成功扱い。
	Remove(ctx context.Context, eventID, userID string) error
	// ListByEvent はイベント内の全フィックスを返す。
	ListByEvent(ctx context.Context, eventID string) ([]*model.LocationFix, error)
	// PurgeStale は指定時刻より古いフィックスを全イベントから削除し、削除件数を返す。
	PurgeStale(ctx context.Context, olderThan time.Time) (int, error)
}
