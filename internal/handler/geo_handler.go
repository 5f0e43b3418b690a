package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hitoshi/spotomo/internal/geo"
	"github.com/hitoshi/spotomo/internal/middleware"
	"github.com/hitoshi/spotomo/internal/model"
)

// GeoServiceInterface は逆ジオコーディングハンドラーが必要とするサービスインターフェース。
type GeoServiceInterface interface {
	Reverse(ctx context.Context, lat, lng float64) (*geo.Address, error)
}

// GeoHandler は逆ジオコーディングのHTTPハンドラー。
type GeoHandler struct {
	service GeoServiceInterface
}

// NewGeoHandler はGeoHandlerを生成する。
func NewGeoHandler(service GeoServiceInterface) *GeoHandler {
	return &GeoHandler{service: service}
}

// Reverse は座標から住所表記を取得して返す。
// GET /api/geo/reverse?lat=&lng=
func (h *GeoHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("latは数値で指定してください"))
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("lngは数値で指定してください"))
		return
	}

	addr, err := h.service.Reverse(r.Context(), lat, lng)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, addr)
}
