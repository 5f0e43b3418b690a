// Package cleanup は期限切れデータの自動削除ジョブを提供する。
// 期限切れセッション（Postgres）と更新の途絶えたライブ位置フィックス
// （Redis）を定期バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// defaultFixTTL はライブ位置フィックスの保持期間のデフォルト値。
// この期間更新がないフィックスは共有停止とみなして削除する。
const defaultFixTTL = 10 * time.Minute

// SessionPurger は期限切れセッションの削除インターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// FixPurger は古いライブ位置フィックスの削除インターフェース。
// repository.LocationRepositoryの部分集合として定義する。
type FixPurger interface {
	PurgeStale(ctx context.Context, olderThan time.Time) (int, error)
}

// Job は期限切れデータの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type Job struct {
	sessions SessionPurger
	fixes    FixPurger
	logger   *slog.Logger
	FixTTL   time.Duration // フィックスの保持期間（デフォルト: 10分）
	now      func() time.Time
}

// NewJob は新しいJobを生成する。
func NewJob(sessions SessionPurger, fixes FixPurger, logger *slog.Logger) *Job {
	return &Job{
		sessions: sessions,
		fixes:    fixes,
		logger:   logger,
		FixTTL:   defaultFixTTL,
		now:      time.Now,
	}
}

// RunOnce は期限切れセッションと古いフィックスを1回削除する。
// 削除対象がない場合でもエラーにならない。
func (j *Job) RunOnce(ctx context.Context) error {
	start := j.now()

	sessionCount, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	fixCount, err := j.fixes.PurgeStale(ctx, start.Add(-j.FixTTL))
	if err != nil {
		j.logger.Error("古いライブ位置フィックスの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to purge stale fixes: %w", err)
	}

	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("deleted_sessions", sessionCount),
		slog.Int("deleted_fixes", fixCount),
		slog.Duration("duration", time.Since(start)),
	)

	return nil
}

// Start は指定間隔のティッカーでジョブを起動する。
// 起動直後に1回実行し、コンテキストがキャンセルされるまで継続する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("クリーンアップジョブを開始しました",
		slog.Duration("interval", interval),
		slog.Duration("fix_ttl", j.FixTTL),
	)

	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error("クリーンアップサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("クリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error("クリーンアップサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
