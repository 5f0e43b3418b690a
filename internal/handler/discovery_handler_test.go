package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/spotomo/internal/discovery"
	"github.com/hitoshi/spotomo/internal/model"
)

// mockDiscoveryService はDiscoveryServiceInterfaceのモック実装。
type mockDiscoveryService struct {
	searchFn func(ctx context.Context, requesterID string, filter discovery.Filter) ([]model.PublicUser, error)
}

var _ DiscoveryServiceInterface = (*mockDiscoveryService)(nil)

func (m *mockDiscoveryService) Search(ctx context.Context, requesterID string, filter discovery.Filter) ([]model.PublicUser, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, requesterID, filter)
	}
	return nil, nil
}

func TestPartnerSearch_PassesQueryParams(t *testing.T) {
	var got discovery.Filter
	service := &mockDiscoveryService{
		searchFn: func(ctx context.Context, requesterID string, filter discovery.Filter) ([]model.PublicUser, error) {
			if requesterID != "alice" {
				t.Errorf("requesterID = %q, want alice", requesterID)
			}
			got = filter
			return []model.PublicUser{{ID: "bob", Username: "bob"}}, nil
		},
	}
	h := NewDiscoveryHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/partners?q=テニス&skill=中級者&location=渋谷", nil)
	req = withUserID(req, "alice")
	w := httptest.NewRecorder()

	h.Search(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got.Query != "テニス" || got.Skill != "中級者" || got.Location != "渋谷" {
		t.Errorf("filter = %+v, クエリパラメータが渡されていない", got)
	}

	var resp []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("結果数 = %d, want 1", len(resp))
	}
	if _, ok := resp[0]["email"]; ok {
		t.Error("検索結果にメールアドレスを含めてはならない")
	}
}

func TestPartnerSearch_ReturnsEmptyArrayNotNull(t *testing.T) {
	h := NewDiscoveryHandler(&mockDiscoveryService{})

	req := httptest.NewRequest(http.MethodGet, "/api/partners", nil)
	req = withUserID(req, "alice")
	w := httptest.NewRecorder()

	h.Search(w, req)

	if w.Body.String() == "null\n" {
		t.Error("空の検索結果はnullではなく[]で返すべき")
	}
}

func TestPartnerSearch_Unauthenticated(t *testing.T) {
	h := NewDiscoveryHandler(&mockDiscoveryService{})

	req := httptest.NewRequest(http.MethodGet, "/api/partners", nil)
	w := httptest.NewRecorder()

	h.Search(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
