// Package discovery はスポーツパートナー検索を提供する。
package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/hitoshi/spotomo/internal/model"
	"github.com/hitoshi/spotomo/internal/repository"
)

// maxResults は1回の検索で返す最大件数。
const maxResults = 50

// Filter はパートナー検索の絞り込み条件。全項目が任意。
type Filter struct {
	Query    string // 全項目に対するフリーワード
	Skill    string // スキルレベル
	Location string // 活動地域
}

// Service はパートナー検索のビジネスロジックを提供する。読み取り専用。
type Service struct {
	userRepo repository.UserRepository
	relRepo  repository.RelationshipRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, relRepo repository.RelationshipRepository) *Service {
	return &Service{userRepo: userRepo, relRepo: relRepo}
}

// Search は条件に合致するユーザーの公開プロフィールを返す。
//
// 各条件は検索対象文字列（表示名・ユーザー名・スキル・地域・種目の連結）への
// 大文字小文字を区別しない部分一致で、複数条件はAND結合。
// 検索者自身と、検索者との関係がnone以外（申請中・成立済み）のユーザーは除外する。
// 結果は登録順を保ったまま最大50件で打ち切る。
func (s *Service) Search(ctx context.Context, requesterID string, filter Filter) ([]model.PublicUser, error) {
	users, err := s.userRepo.ListAll(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	// 検索者が当事者の関係を1回で引いて除外セットを作る
	rels, err := s.relRepo.ListByUser(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	excluded := make(map[string]bool, len(rels)+1)
	excluded[requesterID] = true
	for _, rel := range rels {
		excluded[rel.Other(requesterID)] = true
	}

	terms := filterTerms(filter)

	results := make([]model.PublicUser, 0, maxResults)
	for _, user := range users {
		if excluded[user.ID] {
			continue
		}
		if !matchesAll(user, terms) {
			continue
		}
		results = append(results, user.PublicProfile())
		if len(results) >= maxResults {
			break
		}
	}

	return results, nil
}

// filterTerms は空でない条件を検索語のリストに変換する。
func filterTerms(filter Filter) []string {
	var terms []string
	for _, raw := range []string{filter.Query, filter.Skill, filter.Location} {
		if t := strings.TrimSpace(raw); t != "" {
			terms = append(terms, strings.ToLower(t))
		}
	}
	return terms
}

// matchesAll は全検索語がユーザーの検索対象文字列に含まれるかを返す。
func matchesAll(user *model.User, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(user.SearchableFields())
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}
