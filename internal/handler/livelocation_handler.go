package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/spotomo/internal/livelocation"
	"github.com/hitoshi/spotomo/internal/middleware"
	"github.com/hitoshi/spotomo/internal/model"
	"github.com/hitoshi/spotomo/internal/ws"
)

// LiveLocationServiceInterface はライブ位置ハンドラーが必要とするサービスインターフェース。
type LiveLocationServiceInterface interface {
	Publish(ctx context.Context, eventID, userID string, input livelocation.FixInput) (*model.LocationFix, error)
	Stop(ctx context.Context, eventID, userID string) error
	List(ctx context.Context, eventID, viewerID string) ([]livelocation.Entry, error)
}

// MembershipChecker はWebSocket接続前のメンバー確認インターフェース。
type MembershipChecker interface {
	IsMember(ctx context.Context, eventID, userID string) (bool, error)
}

// LiveLocationHandler はライブ位置共有のHTTPハンドラー。
type LiveLocationHandler struct {
	service LiveLocationServiceInterface
	members MembershipChecker
	hub     *ws.Hub
}

// NewLiveLocationHandler はLiveLocationHandlerを生成する。
func NewLiveLocationHandler(service LiveLocationServiceInterface, members MembershipChecker, hub *ws.Hub) *LiveLocationHandler {
	return &LiveLocationHandler{
		service: service,
		members: members,
		hub:     hub,
	}
}

// Publish は自分の現在位置フィックスを登録・更新する。
// PUT /api/events/{id}/live-location
func (h *LiveLocationHandler) Publish(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	eventID := chi.URLParam(r, "id")

	var input livelocation.FixInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	fix, err := h.service.Publish(r.Context(), eventID, userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fix)
}

// Stop は自分の位置共有を停止する。共有していなかった場合も成功を返す。
// DELETE /api/events/{id}/live-location
func (h *LiveLocationHandler) Stop(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	eventID := chi.URLParam(r, "id")

	if err := h.service.Stop(r.Context(), eventID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List はイベントの共有中フィックス一覧を返す。
// GET /api/events/{id}/live-locations
func (h *LiveLocationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	eventID := chi.URLParam(r, "id")

	entries, err := h.service.List(r.Context(), eventID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []livelocation.Entry{}
	}

	writeJSON(w, http.StatusOK, entries)
}

// Watch はWebSocket接続を確立し、イベントの位置更新をプッシュ配信する。
// メンバーでないユーザーの接続は拒否する。
// GET /api/events/{id}/live-locations/ws
func (h *LiveLocationHandler) Watch(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	eventID := chi.URLParam(r, "id")

	isMember, err := h.members.IsMember(r.Context(), eventID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !isMember {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewNotEventMemberError())
		return
	}

	ws.ServeWS(h.hub, w, r, eventID, userID)
}
