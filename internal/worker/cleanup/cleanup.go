// Package cleanup はポータルローカルデータの自動削除ジョブを提供する。
// 期限切れのセッション行と、表示されないまま失効したフラッシュメッセージを
// 定期バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionPruner は期限切れセッションの削除を抽象化するインターフェース。
type SessionPruner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// FlashPruner は期限切れフラッシュメッセージの削除を抽象化するインターフェース。
type FlashPruner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Recorder は削除件数のメトリクス記録を抽象化するインターフェース。
type Recorder interface {
	RecordSessionsCleaned(count int64)
}

// CleanupJob は期限切れデータの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	sessions SessionPruner
	flashes  FlashPruner
	recorder Recorder
	logger   *slog.Logger
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(sessions SessionPruner, flashes FlashPruner, recorder Recorder, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessions: sessions,
		flashes:  flashes,
		recorder: recorder,
		logger:   logger,
	}
}

// Run は期限切れのセッションとフラッシュメッセージを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	sessionCount, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("セッションクリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	j.recorder.RecordSessionsCleaned(sessionCount)

	flashCount, err := j.flashes.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("フラッシュメッセージクリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to delete expired flash messages: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("deleted_sessions", sessionCount),
		slog.Int64("deleted_flashes", flashCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// StartLoop はクリーンアップジョブを定期実行する。
// 起動直後に1回実行し、以降はinterval間隔で繰り返す。
// ctxのキャンセルで停止する。ブロッキングするため通常はgoroutineで呼ぶ。
func (j *CleanupJob) StartLoop(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
}
