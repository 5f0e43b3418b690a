package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/spotomo/internal/model"
	"github.com/hitoshi/spotomo/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	existsFn      func(ctx context.Context, email, username string) (bool, error)
	createFn      func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, email, username)
	}
	return false, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, _ *model.User) error {
	return nil
}

func (m *mockUserRepo) ListAll(_ context.Context, _ int) ([]*model.User, error) {
	return nil, nil
}

type mockSessionRepo struct {
	createFn     func(ctx context.Context, session *model.Session) error
	findByIDFn   func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(_ context.Context, _ string) error {
	return nil
}

func (m *mockSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

var (
	_ repository.UserRepository    = (*mockUserRepo)(nil)
	_ repository.SessionRepository = (*mockSessionRepo)(nil)
)

func newTestService(userRepo *mockUserRepo, sessionRepo *mockSessionRepo) *Service {
	return NewService(userRepo, sessionRepo, ServiceConfig{SessionMaxAge: 3600})
}

// --- Register ---

func TestRegister_CreatesUserAndSession(t *testing.T) {
	var createdUser *model.User
	var createdSession *model.Session

	userRepo := &mockUserRepo{
		createFn: func(_ context.Context, user *model.User) error {
			createdUser = user
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		createFn: func(_ context.Context, session *model.Session) error {
			createdSession = session
			return nil
		},
	}
	svc := newTestService(userRepo, sessionRepo)

	user, session, err := svc.Register(context.Background(), RegisterInput{
		Email:    "Alice@Example.com",
		Username: "alice",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if createdUser == nil {
		t.Fatal("ユーザーが作成されていない")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("メールアドレスが小文字化されていない: %q", user.Email)
	}
	if user.DisplayName != "alice" {
		t.Errorf("表示名が未指定の場合はユーザー名になるはず: %q", user.DisplayName)
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct horse battery" {
		t.Error("パスワードがハッシュ化されていない")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse battery")); err != nil {
		t.Errorf("ハッシュが元のパスワードと照合できない: %v", err)
	}

	if createdSession == nil {
		t.Fatal("セッションが作成されていない")
	}
	if session.UserID != user.ID {
		t.Errorf("セッションのUserID = %q, want %q", session.UserID, user.ID)
	}
	if len(session.ID) != 64 {
		t.Errorf("セッションIDは32バイトのhex（64文字）のはず: len=%d", len(session.ID))
	}
	if !session.ExpiresAt.After(time.Now()) {
		t.Error("セッション有効期限が過去になっている")
	}
}

func TestRegister_DuplicateUser(t *testing.T) {
	userRepo := &mockUserRepo{
		existsFn: func(_ context.Context, _, _ string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "password123",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateUser {
		t.Errorf("DuplicateUserエラーが返るはず: %v", err)
	}
}

func TestRegister_InvalidInput(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"不正なメールアドレス", RegisterInput{Email: "not-an-email", Username: "alice", Password: "password123"}},
		{"ユーザー名が短すぎる", RegisterInput{Email: "a@example.com", Username: "ab", Password: "password123"}},
		{"パスワードが短すぎる", RegisterInput{Email: "a@example.com", Username: "alice", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(context.Background(), tt.input)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidInput {
				t.Errorf("InvalidInputエラーが返るはず: %v", err)
			}
		})
	}
}

// --- Login ---

func testPasswordHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("テスト用ハッシュの生成に失敗: %v", err)
	}
	return string(hash)
}

func TestLogin_Success(t *testing.T) {
	hash := testPasswordHash(t, "password123")
	userRepo := &mockUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*model.User, error) {
			if email != "alice@example.com" {
				return nil, nil
			}
			return &model.User{ID: "user-1", Email: email, PasswordHash: hash}, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	user, session, err := svc.Login(context.Background(), "Alice@Example.com", "password123")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("user.ID = %q, want %q", user.ID, "user-1")
	}
	if session.UserID != "user-1" {
		t.Errorf("session.UserID = %q, want %q", session.UserID, "user-1")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	hash := testPasswordHash(t, "password123")
	userRepo := &mockUserRepo{
		findByEmailFn: func(_ context.Context, _ string) (*model.User, error) {
			return &model.User{ID: "user-1", PasswordHash: hash}, nil
		},
	}
	svc := newTestService(userRepo, &mockSessionRepo{})

	_, _, err := svc.Login(context.Background(), "alice@example.com", "wrong-password")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("InvalidCredentialsエラーが返るはず: %v", err)
	}
}

func TestLogin_UnknownEmailIsSameError(t *testing.T) {
	// 未登録メールアドレスとパスワード不一致が同一エラーであること
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "password123")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("InvalidCredentialsエラーが返るはず: %v", err)
	}
}

// --- Logout / GetCurrentUser ---

func TestLogout_DeletesSession(t *testing.T) {
	var deletedID string
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(_ context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	svc := newTestService(&mockUserRepo{}, sessionRepo)

	if err := svc.Logout(context.Background(), "session-1"); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if deletedID != "session-1" {
		t.Errorf("deletedID = %q, want %q", deletedID, "session-1")
	}
}

func TestLogout_EmptySessionID(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	if err := svc.Logout(context.Background(), ""); err == nil {
		t.Error("空のセッションIDはエラーになるはず")
	}
}

func TestGetCurrentUser_Success(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(_ context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Username: "alice"}, nil
		},
	}
	svc := newTestService(userRepo, sessionRepo)

	user, err := svc.GetCurrentUser(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("user.ID = %q, want %q", user.ID, "user-1")
	}
}

func TestGetCurrentUser_ExpiredSession(t *testing.T) {
	// 期限切れセッションはリポジトリがnilを返す
	svc := newTestService(&mockUserRepo{}, &mockSessionRepo{})

	if _, err := svc.GetCurrentUser(context.Background(), "expired-session"); err == nil {
		t.Error("期限切れセッションはエラーになるはず")
	}
}
