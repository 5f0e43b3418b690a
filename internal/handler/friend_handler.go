package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/spotomo/internal/friend"
	"github.com/hitoshi/spotomo/internal/middleware"
	"github.com/hitoshi/spotomo/internal/model"
)

// FriendServiceInterface はフレンドハンドラーが必要とするサービスインターフェース。
type FriendServiceInterface interface {
	Request(ctx context.Context, requesterID, targetID string) (*friend.RequestResult, error)
	Accept(ctx context.Context, userID, requesterID string) error
	ListFriends(ctx context.Context, userID string) ([]*friend.Friend, error)
	ListIncoming(ctx context.Context, userID string) ([]*friend.IncomingRequest, error)
	Status(ctx context.Context, u1, u2 string) (model.RelationshipStatus, error)
}

// FriendHandler はフレンド関係のHTTPハンドラー。
type FriendHandler struct {
	service FriendServiceInterface
}

// NewFriendHandler はFriendHandlerを生成する。
func NewFriendHandler(service FriendServiceInterface) *FriendHandler {
	return &FriendHandler{service: service}
}

// friendTargetRequest は申請・承認リクエストのボディ。
type friendTargetRequest struct {
	UserID string `json:"user_id"`
}

// requestResultResponse はフレンド申請結果のレスポンス。
type requestResultResponse struct {
	Status   string `json:"status"`
	Accepted bool   `json:"accepted"`
}

// statusResponse は関係状態のレスポンス。
// CanMessageは関係が成立している場合のみtrueになる派生フィールド。
type statusResponse struct {
	Status     string `json:"status"`
	CanMessage bool   `json:"can_message"`
}

// Request はフレンド申請を処理する。
// POST /api/friends/request
func (h *FriendHandler) Request(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req friendTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if req.UserID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("user_idは必須です"))
		return
	}

	result, err := h.service.Request(r.Context(), userID, req.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, requestResultResponse{
		Status:   string(result.Status),
		Accepted: result.Accepted,
	})
}

// Accept はフレンド申請を承認する。
// POST /api/friends/accept
func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req friendTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if req.UserID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("user_idは必須です"))
		return
	}

	if err := h.service.Accept(r.Context(), userID, req.UserID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: string(model.RelationshipStatusAccepted)})
}

// ListFriends はフレンド一覧を返す。
// GET /api/friends
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	friends, err := h.service.ListFriends(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if friends == nil {
		friends = []*friend.Friend{}
	}

	writeJSON(w, http.StatusOK, friends)
}

// ListIncoming は自分宛の承認待ち申請一覧を返す。
// GET /api/friends/requests
func (h *FriendHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	requests, err := h.service.ListIncoming(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if requests == nil {
		requests = []*friend.IncomingRequest{}
	}

	writeJSON(w, http.StatusOK, requests)
}

// Status は指定ユーザーとの関係状態を返す。
// GET /api/friends/status/{userID}
func (h *FriendHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	otherID := chi.URLParam(r, "userID")

	status, err := h.service.Status(r.Context(), userID, otherID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:     string(status),
		CanMessage: status == model.RelationshipStatusAccepted,
	})
}
