// Package post はソーシャルフィードへの投稿を提供する。
package post

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/spotomo/internal/linkpreview"
	"github.com/hitoshi/spotomo/internal/model"
	"github.com/hitoshi/spotomo/internal/repository"
	"github.com/hitoshi/spotomo/internal/security"
)

// maxBodyLength は投稿本文の最大長（サニタイズ前の文字数）。
const maxBodyLength = 5000

// FriendLister はフィード対象となるフレンドIDの取得を抽象化する。
// friend.Serviceが実装する。
type FriendLister interface {
	FriendIDs(ctx context.Context, userID string) ([]string, error)
}

// CreateInput は投稿作成の入力。
type CreateInput struct {
	Body    string
	LinkURL string // 任意。指定時はプレビューを取得して添付する
}

// Service は投稿のビジネスロジックを提供する。
type Service struct {
	postRepo  repository.PostRepository
	friends   FriendLister
	sanitizer security.ContentSanitizerService
	previews  linkpreview.Fetcher
}

// NewService はServiceを生成する。
func NewService(
	postRepo repository.PostRepository,
	friends FriendLister,
	sanitizer security.ContentSanitizerService,
	previews linkpreview.Fetcher,
) *Service {
	return &Service{
		postRepo:  postRepo,
		friends:   friends,
		sanitizer: sanitizer,
		previews:  previews,
	}
}

// Create は投稿を作成する。本文はサニタイズして保存される。
// リンクが指定された場合はプレビューの取得を試みるが、取得失敗は
// 投稿自体を妨げない（URLのみ保存される）。
func (s *Service) Create(ctx context.Context, authorID string, input CreateInput) (*model.Post, error) {
	rawBody := strings.TrimSpace(input.Body)
	if rawBody == "" {
		return nil, model.NewInvalidInputError("本文は必須です")
	}
	if len(rawBody) > maxBodyLength {
		return nil, model.NewInvalidInputError("本文が長すぎます")
	}

	post := &model.Post{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Body:      s.sanitizer.Sanitize(rawBody),
		CreatedAt: time.Now(),
	}

	if linkURL := strings.TrimSpace(input.LinkURL); linkURL != "" {
		post.LinkURL = linkURL
		preview, err := s.previews.Fetch(ctx, linkURL)
		if err != nil {
			slog.Warn("failed to fetch link preview",
				slog.String("url", linkURL),
				slog.String("error", err.Error()),
			)
		} else {
			post.LinkTitle = preview.Title
			post.LinkDescription = preview.Description
		}
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	slog.Info("post created",
		slog.String("post_id", post.ID),
		slog.String("author_id", authorID),
	)

	return post, nil
}

// Delete は投稿を削除する。削除できるのは投稿者本人のみ。
func (s *Service) Delete(ctx context.Context, postID, userID string) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return model.NewPostNotFoundError(postID)
	}
	if post.AuthorID != userID {
		return model.NewNotPostAuthorError()
	}

	if err := s.postRepo.DeleteByID(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	slog.Info("post deleted",
		slog.String("post_id", postID),
		slog.String("user_id", userID),
	)
	return nil
}

// Feed は自分とフレンドの投稿を新しい順で返す。
func (s *Service) Feed(ctx context.Context, userID string, limit int) ([]*model.Post, error) {
	friendIDs, err := s.friends.FriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}

	authorIDs := append(friendIDs, userID)
	posts, err := s.postRepo.ListByAuthors(ctx, authorIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}
