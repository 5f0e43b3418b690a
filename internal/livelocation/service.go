// Package livelocation はイベント中のライブ位置共有を提供する。
//
// サーバー側のServiceに加え、クライアントが従うべき送信規律を
// ライブラリ型として実装している（Publisher / Poller）。
package livelocation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/spotomo/internal/model"
	"github.com/hitoshi/spotomo/internal/repository"
)

// Broadcaster はイベント単位のプッシュ配信インターフェース。
// ws.Hubが実装する。
type Broadcaster interface {
	Broadcast(eventID string, data []byte)
}

// FixInput はフィックス送信の入力。
type FixInput struct {
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"lng"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Heading   *float64 `json:"heading,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
}

// Entry は一覧応答の1エントリ。閲覧者自身のフィックスにはIsMeが立つ。
type Entry struct {
	Fix  model.LocationFix `json:"fix"`
	IsMe bool              `json:"is_me"`
}

// pushMessage はWebSocketで配信される更新通知。
type pushMessage struct {
	Type string             `json:"type"` // "fix" | "remove"
	Fix  *model.LocationFix `json:"fix,omitempty"`

	EventID string `json:"event_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// Service はライブ位置のサーバー側ロジックを提供する。
type Service struct {
	eventRepo repository.EventRepository
	locRepo   repository.LocationRepository
	hub       Broadcaster
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(eventRepo repository.EventRepository, locRepo repository.LocationRepository, hub Broadcaster) *Service {
	return &Service{
		eventRepo: eventRepo,
		locRepo:   locRepo,
		hub:       hub,
		now:       time.Now,
	}
}

// Publish は指定イベントへのフィックスを検証して保存し、閲覧者に配信する。
// イベント非参加者はNotEventMember、範囲外座標はInvalidCoordinateエラー。
func (s *Service) Publish(ctx context.Context, eventID, userID string, input FixInput) (*model.LocationFix, error) {
	if err := s.requireMember(ctx, eventID, userID); err != nil {
		return nil, err
	}

	fix := &model.LocationFix{
		EventID:   eventID,
		UserID:    userID,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Accuracy:  input.Accuracy,
		Heading:   input.Heading,
		Speed:     input.Speed,
		UpdatedAt: s.now(),
	}
	if !fix.ValidCoordinates() {
		return nil, model.NewInvalidCoordinateError(input.Latitude, input.Longitude)
	}

	if err := s.locRepo.Upsert(ctx, fix); err != nil {
		return nil, fmt.Errorf("failed to store location fix: %w", err)
	}

	s.push(pushMessage{Type: "fix", Fix: fix}, eventID)

	return fix, nil
}

// Stop は位置共有を停止し、フィックスを削除する。
// フィックスが存在しない場合も成功として扱う（冪等）。
func (s *Service) Stop(ctx context.Context, eventID, userID string) error {
	if err := s.requireMember(ctx, eventID, userID); err != nil {
		return err
	}

	if err := s.locRepo.Remove(ctx, eventID, userID); err != nil {
		return fmt.Errorf("failed to remove location fix: %w", err)
	}

	s.push(pushMessage{Type: "remove", EventID: eventID, UserID: userID}, eventID)

	return nil
}

// List はイベント内の全フィックスを返す。閲覧者自身のエントリにはIsMeが立つ。
func (s *Service) List(ctx context.Context, eventID, viewerID string) ([]Entry, error) {
	if err := s.requireMember(ctx, eventID, viewerID); err != nil {
		return nil, err
	}

	fixes, err := s.locRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list location fixes: %w", err)
	}

	entries := make([]Entry, 0, len(fixes))
	for _, fix := range fixes {
		entries = append(entries, Entry{
			Fix:  *fix,
			IsMe: fix.UserID == viewerID,
		})
	}

	return entries, nil
}

// requireMember はイベントの存在とメンバーシップを検証する。
func (s *Service) requireMember(ctx context.Context, eventID, userID string) error {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to find event: %w", err)
	}
	if event == nil {
		return model.NewEventNotFoundError(eventID)
	}

	isMember, err := s.eventRepo.IsMember(ctx, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to check event membership: %w", err)
	}
	if !isMember {
		return model.NewNotEventMemberError()
	}

	return nil
}

func (s *Service) push(msg pushMessage, eventID string) {
	if s.hub == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal push message", slog.String("error", err.Error()))
		return
	}
	s.hub.Broadcast(eventID, data)
}
