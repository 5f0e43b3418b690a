// Package user はユーザープロフィールのドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/spotomo/internal/model"
	"github.com/hitoshi/spotomo/internal/repository"
)

// maxDisplayNameLength は表示名の最大文字数。
const maxDisplayNameLength = 64

// UpdateInput はプロフィール更新の入力。
// nilのフィールドは変更しない。Sportsはnilで変更なし、空スライスで全削除。
type UpdateInput struct {
	DisplayName  *string
	SkillLevel   *string
	LocationText *string
	Latitude     *float64
	Longitude    *float64
	Sports       []string
}

// Service はユーザープロフィールのサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Get はユーザーを取得する。存在しない場合はUserNotFoundエラーを返す。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}
	return user, nil
}

// UpdateProfile は本人のプロフィールを更新し、更新後のユーザーを返す。
// 緯度・経度は両方同時に指定された場合のみ更新する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, input UpdateInput) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, model.NewInvalidInputError("表示名を空にはできません")
		}
		if len([]rune(name)) > maxDisplayNameLength {
			return nil, model.NewInvalidInputError("表示名が長すぎます")
		}
		user.DisplayName = name
	}
	if input.SkillLevel != nil {
		user.SkillLevel = strings.TrimSpace(*input.SkillLevel)
	}
	if input.LocationText != nil {
		user.LocationText = strings.TrimSpace(*input.LocationText)
	}

	if (input.Latitude == nil) != (input.Longitude == nil) {
		return nil, model.NewInvalidInputError("緯度と経度は両方指定してください")
	}
	if input.Latitude != nil {
		fix := model.LocationFix{Latitude: *input.Latitude, Longitude: *input.Longitude}
		if !fix.ValidCoordinates() {
			return nil, model.NewInvalidCoordinateError(*input.Latitude, *input.Longitude)
		}
		user.Latitude = input.Latitude
		user.Longitude = input.Longitude
	}

	if input.Sports != nil {
		sports := make([]string, 0, len(input.Sports))
		for _, sport := range input.Sports {
			sport = strings.TrimSpace(sport)
			if sport != "" {
				sports = append(sports, sport)
			}
		}
		user.Sports = sports
	}

	user.UpdatedAt = time.Now()

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	slog.Info("プロフィールを更新しました",
		slog.String("user_id", userID),
	)

	return user, nil
}
