package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/spotomo/internal/model"
)

// PostgresEventRepo はPostgreSQLを使用したイベントリポジトリ。
type PostgresEventRepo struct {
	db *sql.DB
}

// NewPostgresEventRepo はPostgresEventRepoを生成する。
func NewPostgresEventRepo(db *sql.DB) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

// Create はイベントを作成し、作成者をメンバーとして登録する。
// 2つの挿入は同一トランザクションで行う。
func (r *PostgresEventRepo) Create(ctx context.Context, event *model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO events (id, owner_id, title, sport, location_text, latitude, longitude, starts_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.OwnerID, event.Title, event.Sport, event.LocationText,
		event.Latitude, event.Longitude, event.StartsAt, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO event_members (event_id, user_id, joined_at)
		 VALUES ($1, $2, $3)`,
		event.ID, event.OwnerID, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add event owner as member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event creation: %w", err)
	}
	return nil
}

// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
func (r *PostgresEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	event := &model.Event{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, sport, location_text, latitude, longitude, starts_at, created_at
		 FROM events
		 WHERE id = $1`,
		id,
	).Scan(&event.ID, &event.OwnerID, &event.Title, &event.Sport, &event.LocationText,
		&event.Latitude, &event.Longitude, &event.StartsAt, &event.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event: %w", err)
	}

	return event, nil
}

// List はイベント一覧を開始時刻昇順で返す。limitが0以下の場合は無制限。
func (r *PostgresEventRepo) List(ctx context.Context, limit int) ([]*model.Event, error) {
	query := `SELECT id, owner_id, title, sport, location_text, latitude, longitude, starts_at, created_at
		 FROM events
		 ORDER BY starts_at ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		event := &model.Event{}
		err := rows.Scan(&event.ID, &event.OwnerID, &event.Title, &event.Sport, &event.LocationText,
			&event.Latitude, &event.Longitude, &event.StartsAt, &event.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

// AddMember はイベントにメンバーを追加する。既存メンバーの場合は何もしない。
func (r *PostgresEventRepo) AddMember(ctx context.Context, eventID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_members (event_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (event_id, user_id) DO NOTHING`,
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add event member: %w", err)
	}
	return nil
}

// RemoveMember はイベントからメンバーを削除する。
func (r *PostgresEventRepo) RemoveMember(ctx context.Context, eventID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM event_members WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove event member: %w", err)
	}
	return nil
}

// IsMember は指定ユーザーがイベントのメンバーかを返す。
func (r *PostgresEventRepo) IsMember(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_members WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check event membership: %w", err)
	}
	return exists, nil
}

// compile-time interface check
var _ EventRepository = (*PostgresEventRepo)(nil)
