package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/spotomo/internal/model"
)

// PostgresRelationshipRepo はPostgreSQLを使用したフレンド関係リポジトリ。
// レコードは常に user_a < user_b の正規化順で保存される。
type PostgresRelationshipRepo struct {
	db *sql.DB
}

// NewPostgresRelationshipRepo はPostgresRelationshipRepoを生成する。
func NewPostgresRelationshipRepo(db *sql.DB) *PostgresRelationshipRepo {
	return &PostgresRelationshipRepo{db: db}
}

// Find は順序なしペアの関係レコードを取得する。存在しない場合はnilを返す。
func (r *PostgresRelationshipRepo) Find(ctx context.Context, u1, u2 string) (*model.Relationship, error) {
	a, b := model.SortPair(u1, u2)

	rel := &model.Relationship{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_a, user_b, requester, status, created_at, updated_at
		 FROM relationships
		 WHERE user_a = $1 AND user_b = $2`,
		a, b,
	).Scan(&rel.UserA, &rel.UserB, &rel.Requester, &rel.Status, &rel.CreatedAt, &rel.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find relationship: %w", err)
	}

	return rel, nil
}

// Upsert は正規化ペアキーに対してレコードを挿入または置換する。
func (r *PostgresRelationshipRepo) Upsert(ctx context.Context, rel *model.Relationship) error {
	a, b := model.SortPair(rel.UserA, rel.UserB)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO relationships (user_a, user_b, requester, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_a, user_b)
		 DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`,
		a, b, rel.Requester, rel.Status, rel.CreatedAt, rel.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert relationship: %w", err)
	}
	return nil
}

// ListByUser は指定ユーザーが当事者である全レコードを返す。
func (r *PostgresRelationshipRepo) ListByUser(ctx context.Context, userID string) ([]*model.Relationship, error) {
	return r.list(ctx,
		`SELECT user_a, user_b, requester, status, created_at, updated_at
		 FROM relationships
		 WHERE user_a = $1 OR user_b = $1
		 ORDER BY updated_at ASC`,
		userID,
	)
}

// ListAcceptedByUser は成立済みの関係を承認時刻昇順で返す。
func (r *PostgresRelationshipRepo) ListAcceptedByUser(ctx context.Context, userID string) ([]*model.Relationship, error) {
	return r.list(ctx,
		`SELECT user_a, user_b, requester, status, created_at, updated_at
		 FROM relationships
		 WHERE (user_a = $1 OR user_b = $1) AND status = 'accepted'
		 ORDER BY updated_at ASC`,
		userID,
	)
}

// ListPendingByAddressee は指定ユーザー宛の承認待ち申請を申請時刻昇順で返す。
// 宛先 = 当事者であり申請者ではないユーザー。
func (r *PostgresRelationshipRepo) ListPendingByAddressee(ctx context.Context, userID string) ([]*model.Relationship, error) {
	return r.list(ctx,
		`SELECT user_a, user_b, requester, status, created_at, updated_at
		 FROM relationships
		 WHERE (user_a = $1 OR user_b = $1) AND requester <> $1 AND status = 'pending'
		 ORDER BY created_at ASC`,
		userID,
	)
}

func (r *PostgresRelationshipRepo) list(ctx context.Context, query string, args ...any) ([]*model.Relationship, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	defer rows.Close()

	var rels []*model.Relationship
	for rows.Next() {
		rel := &model.Relationship{}
		err := rows.Scan(&rel.UserA, &rel.UserB, &rel.Requester, &rel.Status, &rel.CreatedAt, &rel.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate relationships: %w", err)
	}

	return rels, nil
}

// compile-time interface check
var _ RelationshipRepository = (*PostgresRelationshipRepo)(nil)
