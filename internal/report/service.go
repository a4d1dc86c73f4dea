// Package report は直近1週間の完了タスクを集計する週次レポートを提供する。
package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/checkmate/internal/model"
	"github.com/hitoshi/checkmate/internal/repository"
	"github.com/hitoshi/checkmate/internal/security"
)

// reportWindow は週次レポートの集計期間。
const reportWindow = 7 * 24 * time.Hour

// WeeklyReport は週次レポートの集計結果。
type WeeklyReport struct {
	From           time.Time     // 集計期間の開始
	To             time.Time     // 集計期間の終了
	CompletedTasks []*model.Task // 期間内に日付を持つ完了タスク
	CompletedCount int
	Note           string // ユーザーの振り返りメモ。未保存の場合は空。
}

// Service は週次レポートの集計とメモの保存を提供する。
type Service struct {
	taskRepo repository.TaskRepository
	noteRepo repository.ReportNoteRepository
	sanitizer security.TextSanitizerService

	// now は現在時刻の供給源。テストで差し替える。
	now func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	taskRepo repository.TaskRepository,
	noteRepo repository.ReportNoteRepository,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{
		taskRepo:  taskRepo,
		noteRepo:  noteRepo,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Weekly は直近7日間に日付を持つ完了タスクを集計し、
// 保存済みの振り返りメモとあわせて返す。
func (s *Service) Weekly(ctx context.Context, userID string) (*WeeklyReport, error) {
	if userID == "" {
		return nil, model.NewNotAuthenticatedError()
	}

	to := s.now()
	from := to.Add(-reportWindow)

	completed, err := s.taskRepo.ListByOwnerAndCompleted(ctx, userID, true)
	if err != nil {
		slog.Error("完了タスクの取得に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewRepositoryUnavailableError()
	}

	inWindow := make([]*model.Task, 0, len(completed))
	for _, t := range completed {
		if t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		inWindow = append(inWindow, t)
	}

	report := &WeeklyReport{
		From:           from,
		To:             to,
		CompletedTasks: inWindow,
		CompletedCount: len(inWindow),
	}

	note, err := s.noteRepo.FindByUserID(ctx, userID)
	if err != nil {
		slog.Error("レポートメモの取得に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewRepositoryUnavailableError()
	}
	if note != nil {
		report.Note = note.Body
	}

	return report, nil
}

// SaveNote は振り返りメモをサニタイズしてUPSERTする。
// 同じ内容で複数回呼んでも結果は変わらない。
func (s *Service) SaveNote(ctx context.Context, userID, body string) (*model.ReportNote, error) {
	if userID == "" {
		return nil, model.NewNotAuthenticatedError()
	}

	if s.sanitizer != nil {
		body = s.sanitizer.Sanitize(body)
	}

	note := &model.ReportNote{
		UserID:    userID,
		Body:      body,
		UpdatedAt: s.now(),
	}

	if err := s.noteRepo.Upsert(ctx, note); err != nil {
		slog.Error("レポートメモの保存に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewRepositoryUnavailableError()
	}

	return note, nil
}
