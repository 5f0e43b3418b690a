package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/spotomo/internal/model"
)

// RedisLocationRepo はRedisを使用したライブ位置情報リポジトリ。
// イベントごとに1つのハッシュ（live:{eventID}）を持ち、
// フィールドキーはユーザーID、値はフィックスのJSON。
// ユーザー×イベントごとに最新1件のみ保持する。
type RedisLocationRepo struct {
	rdb *redis.Client
}

// NewRedisLocationRepo はRedisLocationRepoを生成する。
func NewRedisLocationRepo(rdb *redis.Client) *RedisLocationRepo {
	return &RedisLocationRepo{rdb: rdb}
}

func liveKey(eventID string) string {
	return "live:" + eventID
}

// Upsert はフィックスを保存する。既存のフィックスは上書きされる。
func (r *RedisLocationRepo) Upsert(ctx context.Context, fix *model.LocationFix) error {
	data, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("failed to marshal location fix: %w", err)
	}
	if err := r.rdb.HSet(ctx, liveKey(fix.EventID), fix.UserID, data).Err(); err != nil {
		return fmt.Errorf("failed to store location fix: %w", err)
	}
	return nil
}

// Remove は指定ユーザーのフィックスを削除する。存在しない場合も成功扱い。
func (r *RedisLocationRepo) Remove(ctx context.Context, eventID, userID string) error {
	if err := r.rdb.HDel(ctx, liveKey(eventID), userID).Err(); err != nil {
		return fmt.Errorf("failed to remove location fix: %w", err)
	}
	return nil
}

// ListByEvent はイベント内の全フィックスを返す。
func (r *RedisLocationRepo) ListByEvent(ctx context.Context, eventID string) ([]*model.LocationFix, error) {
	values, err := r.rdb.HGetAll(ctx, liveKey(eventID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list location fixes: %w", err)
	}

	fixes := make([]*model.LocationFix, 0, len(values))
	for _, raw := range values {
		fix := &model.LocationFix{}
		if err := json.Unmarshal([]byte(raw), fix); err != nil {
			// 壊れたエントリは読み飛ばす。クリーンアップワーカーが後で回収する。
			continue
		}
		fixes = append(fixes, fix)
	}

	return fixes, nil
}

// PurgeStale は指定時刻より古いフィックスを全イベントから削除し、削除件数を返す。
func (r *RedisLocationRepo) PurgeStale(ctx context.Context, olderThan time.Time) (int, error) {
	var purged int

	iter := r.rdb.Scan(ctx, 0, "live:*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		values, err := r.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return purged, fmt.Errorf("failed to read live hash: %w", err)
		}

		var stale []string
		for field, raw := range values {
			fix := &model.LocationFix{}
			if err := json.Unmarshal([]byte(raw), fix); err != nil {
				stale = append(stale, field)
				continue
			}
			if fix.UpdatedAt.Before(olderThan) {
				stale = append(stale, field)
			}
		}

		if len(stale) > 0 {
			if err := r.rdb.HDel(ctx, key, stale...).Err(); err != nil {
				return purged, fmt.Errorf("failed to purge stale fixes: %w", err)
			}
			purged += len(stale)
		}
	}
	if err := iter.Err(); err != nil {
		return purged, fmt.Errorf("failed to scan live keys: %w", err)
	}

	return purged, nil
}

// compile-time interface check
var _ LocationRepository = (*RedisLocationRepo)(nil)
