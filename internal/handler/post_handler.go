package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/spotomo/internal/middleware"
	"github.com/hitoshi/spotomo/internal/model"
	"github.com/hitoshi/spotomo/internal/post"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	Create(ctx context.Context, authorID string, input post.CreateInput) (*model.Post, error)
	Delete(ctx context.Context, postID, userID string) error
	Feed(ctx context.Context, userID string, limit int) ([]*model.Post, error)
}

// PostHandler はソーシャルフィード投稿のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

// createPostRequest は投稿作成リクエストのボディ。
type createPostRequest struct {
	Body    string `json:"body"`
	LinkURL string `json:"link_url"`
}

// postResponse は投稿のAPIレスポンス。
type postResponse struct {
	ID              string    `json:"id"`
	AuthorID        string    `json:"author_id"`
	Body            string    `json:"body"`
	LinkURL         string    `json:"link_url,omitempty"`
	LinkTitle       string    `json:"link_title,omitempty"`
	LinkDescription string    `json:"link_description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func toPostResponse(p *model.Post) postResponse {
	return postResponse{
		ID:              p.ID,
		AuthorID:        p.AuthorID,
		Body:            p.Body,
		LinkURL:         p.LinkURL,
		LinkTitle:       p.LinkTitle,
		LinkDescription: p.LinkDescription,
		CreatedAt:       p.CreatedAt,
	}
}

// Create は投稿を作成する。本文はサニタイズされ、リンクがあれば
// プレビューをベストエフォートで付与する。
// POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), userID, post.CreateInput{
		Body:    req.Body,
		LinkURL: req.LinkURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPostResponse(created))
}

// Feed は自分とフレンドの投稿を新しい順で返す。
// GET /api/posts?limit=
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("limitは0以上の整数で指定してください"))
			return
		}
		limit = parsed
	}

	posts, err := h.service.Feed(r.Context(), userID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, toPostResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete は自分の投稿を削除する。
// DELETE /api/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	postID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), postID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
