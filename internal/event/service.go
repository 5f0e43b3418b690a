// Package event はスポーツイベントの作成・参加管理を提供する。
package event

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/spotomo/internal/model"
	"github.com/hitoshi/spotomo/internal/repository"
)

// CreateInput はイベント作成の入力。
type CreateInput struct {
	Title        string
	Sport        string
	LocationText string
	Latitude     *float64
	Longitude    *float64
	StartsAt     time.Time
}

// Service はイベントのビジネスロジックを提供する。
type Service struct {
	eventRepo repository.EventRepository
	locRepo   repository.LocationRepository
}

// NewService はServiceを生成する。
func NewService(eventRepo repository.EventRepository, locRepo repository.LocationRepository) *Service {
	return &Service{eventRepo: eventRepo, locRepo: locRepo}
}

// Create はイベントを作成する。作成者は自動的にメンバーになる。
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (*model.Event, error) {
	title := strings.TrimSpace(input.Title)
	sport := strings.TrimSpace(input.Sport)
	if title == "" {
		return nil, model.NewInvalidInputError("タイトルは必須です")
	}
	if sport == "" {
		return nil, model.NewInvalidInputError("スポーツ種目は必須です")
	}
	if input.StartsAt.IsZero() {
		return nil, model.NewInvalidInputError("開始日時は必須です")
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return nil, model.NewInvalidInputError("緯度と経度は両方指定してください")
	}
	if input.Latitude != nil {
		fix := model.LocationFix{Latitude: *input.Latitude, Longitude: *input.Longitude}
		if !fix.ValidCoordinates() {
			return nil, model.NewInvalidCoordinateError(*input.Latitude, *input.Longitude)
		}
	}

	event := &model.Event{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Title:        title,
		Sport:        sport,
		LocationText: strings.TrimSpace(input.LocationText),
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		StartsAt:     input.StartsAt,
		CreatedAt:    time.Now(),
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	slog.Info("event created",
		slog.String("event_id", event.ID),
		slog.String("owner_id", ownerID),
		slog.String("sport", sport),
	)

	return event, nil
}

// Get は指定IDのイベントを取得する。
func (s *Service) Get(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	if event == nil {
		return nil, model.NewEventNotFoundError(eventID)
	}
	return event, nil
}

// List はイベント一覧を開始時刻昇順で返す。
func (s *Service) List(ctx context.Context, limit int) ([]*model.Event, error) {
	events, err := s.eventRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// Join はイベントに参加する。既に参加済みの場合は冪等な成功。
func (s *Service) Join(ctx context.Context, eventID, userID string) error {
	if _, err := s.Get(ctx, eventID); err != nil {
		return err
	}

	if err := s.eventRepo.AddMember(ctx, eventID, userID); err != nil {
		return fmt.Errorf("failed to join event: %w", err)
	}

	slog.Info("user joined event",
		slog.String("event_id", eventID),
		slog.String("user_id", userID),
	)
	return nil
}

// Leave はイベントから退出する。退出時にライブ位置のフィックスも削除する。
func (s *Service) Leave(ctx context.Context, eventID, userID string) error {
	if _, err := s.Get(ctx, eventID); err != nil {
		return err
	}

	if err := s.eventRepo.RemoveMember(ctx, eventID, userID); err != nil {
		return fmt.Errorf("failed to leave event: %w", err)
	}

	// 退出後の位置残留を防ぐ。削除失敗はログのみで退出自体は成功とする。
	if err := s.locRepo.Remove(ctx, eventID, userID); err != nil {
		slog.Warn("failed to remove location fix on leave",
			slog.String("event_id", eventID),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("user left event",
		slog.String("event_id", eventID),
		slog.String("user_id", userID),
	)
	return nil
}

// IsMember は指定ユーザーがイベントのメンバーかを返す。
func (s *Service) IsMember(ctx context.Context, eventID, userID string) (bool, error) {
	return s.eventRepo.IsMember(ctx, eventID, userID)
}
