package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/spotomo/internal/model"
	"github.com/hitoshi/spotomo/internal/post"
)

// mockPostService はPostServiceInterfaceのモック実装。
type mockPostService struct {
	createFn func(ctx context.Context, authorID string, input post.CreateInput) (*model.Post, error)
	deleteFn func(ctx context.Context, postID, userID string) error
	feedFn   func(ctx context.Context, userID string, limit int) ([]*model.Post, error)
}

var _ PostServiceInterface = (*mockPostService)(nil)

func (m *mockPostService) Create(ctx context.Context, authorID string, input post.CreateInput) (*model.Post, error) {
	if m.createFn != nil {
		return m.createFn(ctx, authorID, input)
	}
	return &model.Post{}, nil
}

func (m *mockPostService) Delete(ctx context.Context, postID, userID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, postID, userID)
	}
	return nil
}

func (m *mockPostService) Feed(ctx context.Context, userID string, limit int) ([]*model.Post, error) {
	if m.feedFn != nil {
		return m.feedFn(ctx, userID, limit)
	}
	return nil, nil
}

func TestPostCreate_Success(t *testing.T) {
	service := &mockPostService{
		createFn: func(ctx context.Context, authorID string, input post.CreateInput) (*model.Post, error) {
			if authorID != "alice" {
				t.Errorf("authorID = %q, want alice", authorID)
			}
			return &model.Post{ID: "post-1", AuthorID: authorID, Body: input.Body}, nil
		},
	}
	h := NewPostHandler(service)

	body, _ := json.Marshal(map[string]string{"body": "今日は良い汗をかいた"})
	req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(body))
	req = withUserID(req, "alice")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestPostCreate_EmptyBodyRejected(t *testing.T) {
	service := &mockPostService{
		createFn: func(ctx context.Context, authorID string, input post.CreateInput) (*model.Post, error) {
			return nil, model.NewInvalidInputError("本文は必須です")
		},
	}
	h := NewPostHandler(service)

	body, _ := json.Marshal(map[string]string{"body": ""})
	req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(body))
	req = withUserID(req, "alice")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestPostDelete_NotAuthor(t *testing.T) {
	service := &mockPostService{
		deleteFn: func(ctx context.Context, postID, userID string) error {
			return model.NewNotPostAuthorError()
		},
	}
	h := NewPostHandler(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/posts/post-1", nil)
	req = withUserID(req, "bob")
	req = withChiURLParam(req, "id", "post-1")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	resp := parseAPIErrorResponse(t, w)
	if resp["code"] != "NOT_POST_AUTHOR" {
		t.Errorf("code = %q, want NOT_POST_AUTHOR", resp["code"])
	}
}

func TestPostDelete_Success(t *testing.T) {
	service := &mockPostService{
		deleteFn: func(ctx context.Context, postID, userID string) error {
			if postID != "post-1" || userID != "alice" {
				t.Errorf("post/user = %q/%q, want post-1/alice", postID, userID)
			}
			return nil
		},
	}
	h := NewPostHandler(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/posts/post-1", nil)
	req = withUserID(req, "alice")
	req = withChiURLParam(req, "id", "post-1")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestPostFeed_ReturnsPosts(t *testing.T) {
	service := &mockPostService{
		feedFn: func(ctx context.Context, userID string, limit int) ([]*model.Post, error) {
			return []*model.Post{
				{ID: "post-2", AuthorID: "bob"},
				{ID: "post-1", AuthorID: "alice"},
			}, nil
		},
	}
	h := NewPostHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req = withUserID(req, "alice")
	w := httptest.NewRecorder()

	h.Feed(w, req)

	var resp []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("投稿数 = %d, want 2", len(resp))
	}
	if resp[0]["id"] != "post-2" {
		t.Errorf("先頭の投稿 = %v, want post-2", resp[0]["id"])
	}
}

func TestPostFeed_ReturnsEmptyArrayNotNull(t *testing.T) {
	h := NewPostHandler(&mockPostService{})

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req = withUserID(req, "alice")
	w := httptest.NewRecorder()

	h.Feed(w, req)

	if w.Body.String() == "null\n" {
		t.Error("空フィードはnullではなく[]で返すべき")
	}
}
