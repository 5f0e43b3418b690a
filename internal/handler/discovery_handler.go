package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/spotomo/internal/discovery"
	"github.com/hitoshi/spotomo/internal/middleware"
	"github.com/hitoshi/spotomo/internal/model"
)

// DiscoveryServiceInterface はパートナー検索ハンドラーが必要とするサービスインターフェース。
type DiscoveryServiceInterface interface {
	Search(ctx context.Context, requesterID string, filter discovery.Filter) ([]model.PublicUser, error)
}

// DiscoveryHandler はパートナー検索のHTTPハンドラー。
type DiscoveryHandler struct {
	service DiscoveryServiceInterface
}

// NewDiscoveryHandler はDiscoveryHandlerを生成する。
func NewDiscoveryHandler(service DiscoveryServiceInterface) *DiscoveryHandler {
	return &DiscoveryHandler{service: service}
}

// Search はパートナー候補の検索結果を返す。
// GET /api/partners?q=&skill=&location=
func (h *DiscoveryHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	q := r.URL.Query()
	filter := discovery.Filter{
		Query:    q.Get("q"),
		Skill:    q.Get("skill"),
		Location: q.Get("location"),
	}

	partners, err := h.service.Search(r.Context(), userID, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if partners == nil {
		partners = []model.PublicUser{}
	}

	writeJSON(w, http.StatusOK, partners)
}
