// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, friend, event, location, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeDuplicateUser        = "DUPLICATE_USER"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeSelfRequest          = "SELF_REQUEST"
	ErrCodeRequestNotFound      = "REQUEST_NOT_FOUND"
	ErrCodeNotAddressee         = "NOT_ADDRESSEE"
	ErrCodeEventNotFound        = "EVENT_NOT_FOUND"
	ErrCodeNotEventMember       = "NOT_EVENT_MEMBER"
	ErrCodeInvalidCoordinate    = "INVALID_COORDINATE"
	ErrCodePostNotFound         = "POST_NOT_FOUND"
	ErrCodeNotPostAuthor        = "NOT_POST_AUTHOR"
	ErrCodeGeocodeFailed        = "GEOCODE_FAILED"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidInputError は入力不備エラーを生成する。
func NewInvalidInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUserNotFoundError は対象ユーザーが存在しない場合のエラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "friend",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewDuplicateUserError はメールアドレスまたはユーザー名が登録済みの場合のエラーを生成する。
func NewDuplicateUserError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUser,
		Message:  "このメールアドレスまたはユーザー名は既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスまたはユーザー名をお試しください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレスの存在有無を漏らさないよう、メッセージは区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewSelfRequestError は自分自身へのフレンド申請エラーを生成する。
func NewSelfRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfRequest,
		Message:  "自分自身にフレンド申請はできません。",
		Category: "validation",
		Action:   "別のユーザーを指定してください。",
	}
}

// NewRequestNotFoundError は対象のフレンド申請が存在しない場合のエラーを生成する。
func NewRequestNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeRequestNotFound,
		Message:  "承認待ちのフレンド申請が見つかりません。",
		Category: "friend",
		Action:   "申請の状態を確認してください。",
	}
}

// NewNotAddresseeError は申請の受信者以外が承認しようとした場合のエラーを生成する。
func NewNotAddresseeError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAddressee,
		Message:  "この申請を承認できるのは申請を受けた側のユーザーのみです。",
		Category: "friend",
		Action:   "相手からの承認をお待ちください。",
	}
}

// NewEventNotFoundError はイベントが見つからない場合のエラーを生成する。
func NewEventNotFoundError(eventID string) *APIError {
	return &APIError{
		Code:     ErrCodeEventNotFound,
		Message:  fmt.Sprintf("指定されたイベントが見つかりません: %s", eventID),
		Category: "event",
		Action:   "イベントIDを確認してください。",
	}
}

// NewNotEventMemberError はイベント非参加者が位置共有を行おうとした場合のエラーを生成する。
func NewNotEventMemberError() *APIError {
	return &APIError{
		Code:     ErrCodeNotEventMember,
		Message:  "このイベントに参加していません。",
		Category: "event",
		Action:   "イベントに参加してから位置共有を開始してください。",
	}
}

// NewInvalidCoordinateError は緯度経度が有効範囲外の場合のエラーを生成する。
func NewInvalidCoordinateError(lat, lng float64) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCoordinate,
		Message:  fmt.Sprintf("緯度経度が有効範囲外です: lat=%g, lng=%g", lat, lng),
		Category: "location",
		Action:   "緯度は-90〜90、経度は-180〜180の範囲で指定してください。",
	}
}

// NewPostNotFoundError は投稿が見つからない場合のエラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %s", postID),
		Category: "validation",
		Action:   "投稿IDを確認してください。",
	}
}

// NewNotPostAuthorError は投稿者以外が投稿を削除しようとした場合のエラーを生成する。
func NewNotPostAuthorError() *APIError {
	return &APIError{
		Code:     ErrCodeNotPostAuthor,
		Message:  "自分の投稿のみ削除できます。",
		Category: "validation",
		Action:   "削除対象の投稿を確認してください。",
	}
}

// NewGeocodeFailedError はジオコーディング上流APIの呼び出し失敗エラーを生成する。
func NewGeocodeFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeGeocodeFailed,
		Message:  fmt.Sprintf("住所の取得に失敗しました: %s", reason),
		Category: "location",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
