// Package friend はフレンド申請と承認の状態遷移を提供する。
//
// 2ユーザー間の関係は none → pending → accepted の一方向にのみ遷移する。
// accepted は終端状態であり、以後の申請・承認操作は冪等な成功として扱う。
package friend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/spotomo/internal/model"
	"github.com/hitoshi/spotomo/internal/repository"
)

// RequestResult はフレンド申請の結果を表す。
type RequestResult struct {
	Status model.RelationshipStatus // 申請後の関係状態
	// Accepted は今回の申請で関係が成立した場合にtrue。
	// 相手からの申請が承認待ちだった場合、自分の申請が承認の意思表示となる。
	Accepted bool
}

// Friend はフレンド一覧の1エントリを表す。
type Friend struct {
	User  model.PublicUser `json:"user"`
	Since time.Time        `json:"since"` // 関係が成立した時刻
}

// IncomingRequest は自分宛の承認待ち申請を表す。
type IncomingRequest struct {
	Requester   model.PublicUser `json:"requester"`
	RequestedAt time.Time        `json:"requested_at"`
}

// Service はフレンド関係のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	relRepo  repository.RelationshipRepository
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, relRepo repository.RelationshipRepository) *Service {
	return &Service{
		userRepo: userRepo,
		relRepo:  relRepo,
		now:      time.Now,
	}
}

// Request はrequesterIDからtargetIDへのフレンド申請を処理する。
//
// 状態ごとの挙動:
//   - 関係なし: pending申請を新規作成する
//   - 自分の申請がpending: 何もしない（冪等な成功）
//   - 相手の申請がpending: 承認の意思表示とみなし、関係を成立させる
//   - accepted: 何もしない（冪等な成功）
//
// 自分自身への申請はSelfRequestエラー、相手が存在しない場合はUserNotFoundエラー。
func (s *Service) Request(ctx context.Context, requesterID, targetID string) (*RequestResult, error) {
	if requesterID == targetID {
		return nil, model.NewSelfRequestError()
	}

	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to find target user: %w", err)
	}
	if target == nil {
		return nil, model.NewUserNotFoundError(targetID)
	}

	rel, err := s.relRepo.Find(ctx, requesterID, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to find relationship: %w", err)
	}

	now := s.now()

	switch {
	case rel == nil:
		a, b := model.SortPair(requesterID, targetID)
		err := s.relRepo.Upsert(ctx, &model.Relationship{
			UserA:     a,
			UserB:     b,
			Requester: requesterID,
			Status:    model.RelationshipStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create friend request: %w", err)
		}

		slog.Info("friend request created",
			slog.String("requester_id", requesterID),
			slog.String("target_id", targetID),
		)
		return &RequestResult{Status: model.RelationshipStatusPending}, nil

	case rel.Status == model.RelationshipStatusAccepted:
		// 成立済み: 冪等な成功
		return &RequestResult{Status: model.RelationshipStatusAccepted}, nil

	case rel.Requester == requesterID:
		// 自分の申請が承認待ち: 冪等な成功
		return &RequestResult{Status: model.RelationshipStatusPending}, nil

	default:
		// 相手からの申請が承認待ち: 相互申請は承認とみなす
		rel.Status = model.RelationshipStatusAccepted
		rel.UpdatedAt = now
		if err := s.relRepo.Upsert(ctx, rel); err != nil {
			return nil, fmt.Errorf("failed to accept reciprocal request: %w", err)
		}

		slog.Info("reciprocal friend request accepted",
			slog.String("requester_id", requesterID),
			slog.String("target_id", targetID),
		)
		return &RequestResult{Status: model.RelationshipStatusAccepted, Accepted: true}, nil
	}
}

// Accept はrequesterIDからの申請をuserIDが承認する。
//
// 承認できるのは承認待ち申請の宛先ユーザーのみ。宛先以外（申請者自身を含む）が
// 承認しようとした場合はNotAddresseeエラー、レコードが存在しない場合は
// RequestNotFoundエラーを返す。
// 成立済みの関係に対する承認は冪等な成功として扱う。
func (s *Service) Accept(ctx context.Context, userID, requesterID string) error {
	if userID == requesterID {
		return model.NewSelfRequestError()
	}

	rel, err := s.relRepo.Find(ctx, userID, requesterID)
	if err != nil {
		return fmt.Errorf("failed to find relationship: %w", err)
	}
	if rel == nil {
		return model.NewRequestNotFoundError()
	}

	if rel.Status == model.RelationshipStatusAccepted {
		// 冪等な成功
		return nil
	}

	if rel.Addressee() != userID {
		// 承認待ちレコードの宛先でないユーザーによる承認は拒否する
		// （申請者自身が自分の申請を承認しようとした場合もここに該当する）
		return model.NewNotAddresseeError()
	}

	rel.Status = model.RelationshipStatusAccepted
	rel.UpdatedAt = s.now()
	if err := s.relRepo.Upsert(ctx, rel); err != nil {
		return fmt.Errorf("failed to accept friend request: %w", err)
	}

	slog.Info("friend request accepted",
		slog.String("user_id", userID),
		slog.String("requester_id", requesterID),
	)
	return nil
}

// ListFriends は成立済みのフレンドを承認時刻の古い順で返す。
func (s *Service) ListFriends(ctx context.Context, userID string) ([]*Friend, error) {
	rels, err := s.relRepo.ListAcceptedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accepted relationships: %w", err)
	}

	friends := make([]*Friend, 0, len(rels))
	for _, rel := range rels {
		other, err := s.userRepo.FindByID(ctx, rel.Other(userID))
		if err != nil {
			return nil, fmt.Errorf("failed to find friend user: %w", err)
		}
		if other == nil {
			// 相手が削除済みの場合は一覧から除外する
			continue
		}
		friends = append(friends, &Friend{
			User:  other.PublicProfile(),
			Since: rel.UpdatedAt,
		})
	}

	return friends, nil
}

// ListIncoming は自分宛の承認待ち申請を申請時刻の古い順で返す。
func (s *Service) ListIncoming(ctx context.Context, userID string) ([]*IncomingRequest, error) {
	rels, err := s.relRepo.ListPendingByAddressee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}

	requests := make([]*IncomingRequest, 0, len(rels))
	for _, rel := range rels {
		requester, err := s.userRepo.FindByID(ctx, rel.Requester)
		if err != nil {
			return nil, fmt.Errorf("failed to find requester: %w", err)
		}
		if requester == nil {
			continue
		}
		requests = append(requests, &IncomingRequest{
			Requester:   requester.PublicProfile(),
			RequestedAt: rel.CreatedAt,
		})
	}

	return requests, nil
}

// Status は2ユーザー間の現在の関係状態を返す。
// レコードが存在しない場合はRelationshipStatusNoneを返す。
func (s *Service) Status(ctx context.Context, u1, u2 string) (model.RelationshipStatus, error) {
	rel, err := s.relRepo.Find(ctx, u1, u2)
	if err != nil {
		return "", fmt.Errorf("failed to find relationship: %w", err)
	}
	if rel == nil {
		return model.RelationshipStatusNone, nil
	}
	return rel.Status, nil
}

// FriendIDs は成立済みフレンドのユーザーID一覧を返す。
// フィード生成など、プロフィール解決を伴わない用途向け。
func (s *Service) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	rels, err := s.relRepo.ListAcceptedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accepted relationships: %w", err)
	}

	ids := make([]string, 0, len(rels))
	for _, rel := range rels {
		ids = append(ids, rel.Other(userID))
	}
	return ids, nil
}
