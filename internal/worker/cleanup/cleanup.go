// Package cleanup は期限切れデータの自動削除ジョブを提供する。
// 期限切れセッションと、ユーザー退会後に残ったログイン補助レコードを
// 定期バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionCleaner は期限切れセッションの削除インターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionCleaner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// LoginRecordCleaner は孤立ログイン補助レコードの削除インターフェース。
type LoginRecordCleaner interface {
	DeleteOrphaned(ctx context.Context) (int64, error)
}

// MetricsRecorder はクリーンアップ結果のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordSessionsCleaned(count int64)
}

// CleanupJob は期限切れデータの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	sessions     SessionCleaner
	loginRecords LoginRecordCleaner
	metrics      MetricsRecorder
	logger       *slog.Logger
}

// NewCleanupJob は新しいCleanupJobを生成する。metricsはnil可。
func NewCleanupJob(
	sessions SessionCleaner,
	loginRecords LoginRecordCleaner,
	metrics MetricsRecorder,
	logger *slog.Logger,
) *CleanupJob {
	return &CleanupJob{
		sessions:     sessions,
		loginRecords: loginRecords,
		metrics:      metrics,
		logger:       logger,
	}
}

// Run は期限切れセッションと孤立ログイン補助レコードを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	sessionCount, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("failed to delete expired sessions",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordSessionsCleaned(sessionCount)
	}

	recordCount, err := j.loginRecords.DeleteOrphaned(ctx)
	if err != nil {
		j.logger.Error("failed to delete orphaned login records",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("孤立ログイン補助レコードの削除に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("cleanup job completed",
		slog.Int64("deleted_sessions", sessionCount),
		slog.Int64("deleted_login_records", recordCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
