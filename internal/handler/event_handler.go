package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/spotomo/internal/event"
	"github.com/hitoshi/spotomo/internal/middleware"
	"github.com/hitoshi/spotomo/internal/model"
)

// EventServiceInterface はイベントハンドラーが必要とするサービスインターフェース。
type EventServiceInterface interface {
	Create(ctx context.Context, ownerID string, input event.CreateInput) (*model.Event, error)
	Get(ctx context.Context, eventID string) (*model.Event, error)
	List(ctx context.Context, limit int) ([]*model.Event, error)
	Join(ctx context.Context, eventID, userID string) error
	Leave(ctx context.Context, eventID, userID string) error
}

// EventHandler はイベント管理のHTTPハンドラー。
type EventHandler struct {
	service EventServiceInterface
}

// NewEventHandler はEventHandlerを生成する。
func NewEventHandler(service EventServiceInterface) *EventHandler {
	return &EventHandler{service: service}
}

// createEventRequest はイベント作成リクエストのボディ。
type createEventRequest struct {
	Title        string    `json:"title"`
	Sport        string    `json:"sport"`
	LocationText string    `json:"location_text"`
	Latitude     *float64  `json:"lat"`
	Longitude    *float64  `json:"lng"`
	StartsAt     time.Time `json:"starts_at"`
}

// eventResponse はイベント情報のAPIレスポンス。
type eventResponse struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Sport        string    `json:"sport"`
	LocationText string    `json:"location_text"`
	Latitude     *float64  `json:"lat,omitempty"`
	Longitude    *float64  `json:"lng,omitempty"`
	StartsAt     time.Time `json:"starts_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func toEventResponse(e *model.Event) eventResponse {
	return eventResponse{
		ID:           e.ID,
		OwnerID:      e.OwnerID,
		Title:        e.Title,
		Sport:        e.Sport,
		LocationText: e.LocationText,
		Latitude:     e.Latitude,
		Longitude:    e.Longitude,
		StartsAt:     e.StartsAt,
		CreatedAt:    e.CreatedAt,
	}
}

// Create はイベントを作成する。作成者は自動的にメンバーになる。
// POST /api/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.service.Create(r.Context(), userID, event.CreateInput{
		Title:        req.Title,
		Sport:        req.Sport,
		LocationText: req.LocationText,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		StartsAt:     req.StartsAt,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(created))
}

// List はイベント一覧を返す。
// GET /api/events?limit=
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("limitは0以上の整数で指定してください"))
			return
		}
		limit = parsed
	}

	events, err := h.service.List(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]eventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, toEventResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get はイベント詳細を返す。
// GET /api/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	e, err := h.service.Get(r.Context(), eventID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(e))
}

// Join はイベントへの参加を処理する。参加済みの場合も成功を返す。
// POST /api/events/{id}/join
func (h *EventHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	eventID := chi.URLParam(r, "id")

	if err := h.service.Join(r.Context(), eventID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Leave はイベントからの離脱を処理する。ライブ位置の共有中なら停止する。
// DELETE /api/events/{id}/leave
func (h *EventHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	eventID := chi.URLParam(r, "id")

	if err := h.service.Leave(r.Context(), eventID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
