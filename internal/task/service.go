// Package task はタスク管理のドメインロジックを提供する。
// 単一ユーザーのタスクに対するCRUD、オーナーチェックの強制、
// サインイン中ユーザーのタスク一覧のインメモリビューを担う。
package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/checkmate/internal/auth"
	"github.com/hitoshi/checkmate/internal/model"
	"github.com/hitoshi/checkmate/internal/repository"
	"github.com/hitoshi/checkmate/internal/security"
)

// rebuildTimeout はサインイン変化時のキャッシュ再構築に使うタイムアウト。
const rebuildTimeout = 10 * time.Second

// MetricsRecorder はタスク操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordTaskCreated()
	RecordTaskToggled()
	RecordTaskDeleted(count int)
	RecordBatchDeleteFailure()
}

// ServiceConfig はタスクサービスの設定。
type ServiceConfig struct {
	ClockInterval time.Duration // 現在時刻を更新する間隔
	Timezone      string        // タスク日付のタイムゾーン
}

// Service はタスク管理のサービス層。
//
// インメモリのタスク一覧はあくまでキャッシュであり、真実の源は常にリポジトリ。
// サインイン中ユーザーが変わるとキャッシュは破棄され、リポジトリから再構築される。
// 変更系の操作は必ずリポジトリへの永続化が成功してからキャッシュへ反映する
// （確認してからコミットする方針。楽観的なローカル先行更新は行わない）。
type Service struct {
	taskRepo  repository.TaskRepository
	sanitizer security.TextSanitizerService
	metrics   MetricsRecorder
	loc       *time.Location

	mu         sync.Mutex
	cache      []*model.Task
	cacheOwner string // キャッシュが属するユーザー。未確定の場合は空文字列。
	alive      bool

	clockMu sync.Mutex
	current time.Time

	done        chan struct{}
	closeOnce   sync.Once
	unsubscribe func()
}

// NewService はServiceを生成し、現在時刻の定期更新とサインイン変化の購読を開始する。
// notifierがnilの場合は購読しない（テスト用）。metricsはnil可。
func NewService(
	taskRepo repository.TaskRepository,
	sanitizer security.TextSanitizerService,
	notifier *auth.IdentityNotifier,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	if config.ClockInterval <= 0 {
		config.ClockInterval = time.Minute
	}

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		slog.Warn("タイムゾーンの読み込みに失敗したためUTCを使用します",
			slog.String("timezone", config.Timezone),
			slog.String("error", err.Error()),
		)
		loc = time.UTC
	}

	s := &Service{
		taskRepo:  taskRepo,
		sanitizer: sanitizer,
		metrics:   metrics,
		loc:       loc,
		alive:     true,
		current:   time.Now().In(loc),
		done:      make(chan struct{}),
	}

	if notifier != nil {
		s.unsubscribe = notifier.Subscribe(s.onIdentityChanged)
	}

	go s.runClock(config.ClockInterval)

	return s
}

// Close はサービスを停止する。
// 定期タイマーを止め、サインイン変化の購読を解除し、
// 以後に完了する処理中のリポジトリ呼び出しの結果を破棄させる。
// 複数回呼んでも安全。
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.mu.Lock()
		s.alive = false
		s.cache = nil
		s.mu.Unlock()
	})
}

// LoadTasks は指定ユーザーの全タスクを取得し、インメモリビューを置き換える。
// 識別子が空の場合はNOT_AUTHENTICATEDを返し、リポジトリには問い合わせない。
// ストレージの返却順序に依存しない。
func (s *Service) LoadTasks(ctx context.Context, identityID string) ([]*model.Task, error) {
	if identityID == "" {
		return nil, model.NewNotAuthenticatedError()
	}

	tasks, err := s.taskRepo.ListByOwner(ctx, identityID)
	if err != nil {
		slog.Error("タスク一覧の取得に失敗しました",
			slog.String("owner_id", identityID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewRepositoryUnavailableError()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 呼び出し中にサービスが停止した、またはサインイン中ユーザーが
	// 変わった場合は、取得結果をビューへ反映せずそのまま返す。
	if s.alive && s.adoptOwnerLocked(identityID) {
		s.cache = tasks
	}

	return append([]*model.Task(nil), tasks...), nil
}

// AddTask はタスクを作成して永続化し、採番されたIDを持つタスクを返す。
// 日付がゼロ値の場合は定期更新中の現在時刻を使用する。
// 永続化が失敗した場合、インメモリビューは変更されない。
func (s *Service) AddTask(ctx context.Context, identityID, text string, date time.Time) (*model.Task, error) {
	if identityID == "" {
		return nil, model.NewNotAuthenticatedError()
	}

	if s.sanitizer != nil {
		text = s.sanitizer.Sanitize(text)
	}
	if date.IsZero() {
		date = s.CurrentTime()
	}

	newTask := &model.Task{
		OwnerID:   identityID,
		Text:      text,
		Completed: false,
		Date:      date,
	}

	// 永続化が成功するまではビューに反映しない
	if err := s.taskRepo.Create(ctx, newTask); err != nil {
		slog.Error("タスクの作成に失敗しました",
			slog.String("owner_id", identityID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewRepositoryUnavailableError()
	}

	s.mu.Lock()
	if s.alive && s.cacheOwner == identityID {
		s.cache = append(s.cache, newTask)
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordTaskCreated()
	}

	return newTask, nil
}

// ToggleTask はタスクの完了フラグを反転して永続化する。
// 反転は永続化済みの現在値に対して行うため、リトライで二重に反転しても
// 各呼び出しが正確に1回ずつ反転する（自己逆元）。
// オーナー不一致はいかなる書き込みよりも前にTASK_UNAUTHORIZEDで失敗する。
func (s *Service) ToggleTask(ctx context.Context, identityID, taskID string) (*model.Task, error) {
	if identityID == "" {
		return nil, model.NewNotAuthenticatedError()
	}

	// 永続化済みの状態を取得してオーナーチェック
	persisted, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		slog.Error("タスクの取得に失敗しました",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewRepositoryUnavailableError()
	}
	if persisted == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	if persisted.OwnerID != identityID {
		return nil, model.NewTaskUnauthorizedError(taskID)
	}

	// キャッシュ上の推測値ではなく、永続化済みの値から反転する
	toggled := !persisted.Completed
	if err := s.taskRepo.UpdateFields(ctx, taskID, model.TaskFields{Completed: &toggled}); err != nil {
		slog.Error("タスクの更新に失敗しました",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewRepositoryUnavailableError()
	}

	persisted.Completed = toggled

	s.mu.Lock()
	if s.alive && s.cacheOwner == identityID {
		for i, t := range s.cache {
			if t.ID == taskID {
				s.cache[i] = persisted
				break
			}
		}
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordTaskToggled()
	}

	return persisted, nil
}

// DeleteTask はタスクを削除する。
// リポジトリでの削除が確認できてからインメモリビューを更新する。
// オーナー不一致はTASK_UNAUTHORIZEDで失敗し、タスクは変更されない。
func (s *Service) DeleteTask(ctx context.Context, identityID, taskID string) error {
	if identityID == "" {
		return model.NewNotAuthenticatedError()
	}

	persisted, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		slog.Error("タスクの取得に失敗しました",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
		return model.NewRepositoryUnavailableError()
	}
	if persisted == nil {
		return model.NewTaskNotFoundError(taskID)
	}
	if persisted.OwnerID != identityID {
		return model.NewTaskUnauthorizedError(taskID)
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		slog.Error("タスクの削除に失敗しました",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
		return model.NewRepositoryUnavailableError()
	}

	s.removeFromCache(identityID, []string{taskID})

	if s.metrics != nil {
		s.metrics.RecordTaskDeleted(1)
	}

	return nil
}

// DeleteCompleted は完了済みタスクを原子的な一括削除で全て削除し、
// 残った未完了タスクの一覧を返す。
// 一括削除は全件成功か全件失敗のいずれかで、失敗した場合は
// インメモリビューもリポジトリも呼び出し前と同じ状態を保つ。
func (s *Service) DeleteCompleted(ctx context.Context, identityID string) ([]*model.Task, error) {
	if identityID == "" {
		return nil, model.NewNotAuthenticatedError()
	}

	completed, err := s.taskRepo.ListByOwnerAndCompleted(ctx, identityID, true)
	if err != nil {
		slog.Error("完了済みタスクの取得に失敗しました",
			slog.String("owner_id", identityID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewRepositoryUnavailableError()
	}

	if len(completed) > 0 {
		ids := make([]string, len(completed))
		for i, t := range completed {
			ids[i] = t.ID
		}

		if err := s.taskRepo.BatchDelete(ctx, identityID, ids); err != nil {
			if s.metrics != nil {
				s.metrics.RecordBatchDeleteFailure()
			}
			slog.Error("完了済みタスクの一括削除に失敗しました",
				slog.String("owner_id", identityID),
				slog.Int("task_count", len(ids)),
				slog.String("error", err.Error()),
			)
			// ビューは変更しない（呼び出し前の状態を維持）
			return nil, model.NewRepositoryUnavailableError()
		}

		s.removeFromCache(identityID, ids)

		if s.metrics != nil {
			s.metrics.RecordTaskDeleted(len(ids))
		}
	}

	remaining, err := s.taskRepo.ListByOwnerAndCompleted(ctx, identityID, false)
	if err != nil {
		slog.Error("未完了タスクの取得に失敗しました",
			slog.String("owner_id", identityID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewRepositoryUnavailableError()
	}

	return remaining, nil
}

// ToggleAllCompletion はインメモリビュー上の全タスクの完了フラグを
// 「全件完了済みか」の否定値に揃える純粋なローカル変換。
// 全件完了済みなら全件未完了に、そうでなければ全件完了にする。
// リポジトリへは書き込まない。2回適用すると各タスクは元のフラグに戻る。
// LoadTasksで構築されたビューが存在しないユーザーに対しては何もしない。
func (s *Service) ToggleAllCompletion(identityID string) ([]*model.Task, error) {
	if identityID == "" {
		return nil, model.NewNotAuthenticatedError()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.alive || s.cacheOwner != identityID || len(s.cache) == 0 {
		return nil, nil
	}

	allCompleted := true
	for _, t := range s.cache {
		if !t.Completed {
			allCompleted = false
			break
		}
	}

	updated := make([]*model.Task, len(s.cache))
	for i, t := range s.cache {
		copied := *t
		copied.Completed = !allCompleted
		updated[i] = &copied
	}
	s.cache = updated

	return append([]*model.Task(nil), updated...), nil
}

// CurrentTime は定期更新中の現在時刻を返す。
// 新規タスクの日付スタンプに使用する。
func (s *Service) CurrentTime() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	return s.current
}

// runClock は固定間隔で現在時刻を更新する。
// 処理中のCRUD呼び出しとは独立に動作し、Closeで停止する。
func (s *Service) runClock(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.clockMu.Lock()
			s.current = time.Now().In(s.loc)
			s.clockMu.Unlock()
		}
	}
}

// onIdentityChanged はサインイン中ユーザーの変化を受けてビューを破棄し、
// 新しいユーザーのタスクでビューを再構築する。
// 変化前のユーザーに対する処理中の操作はそのユーザーに対して完了するが、
// その結果がビューへ反映されることはない（オーナーチェックで破棄される）。
func (s *Service) onIdentityChanged(identityID string) {
	s.mu.Lock()
	if !s.alive || s.cacheOwner == identityID {
		s.mu.Unlock()
		return
	}
	s.cacheOwner = identityID
	s.cache = nil
	s.mu.Unlock()

	if identityID == auth.IdentityNone {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), rebuildTimeout)
		defer cancel()

		tasks, err := s.taskRepo.ListByOwner(ctx, identityID)
		if err != nil {
			slog.Error("ビューの再構築に失敗しました",
				slog.String("owner_id", identityID),
				slog.String("error", err.Error()),
			)
			return
		}

		s.mu.Lock()
		if s.alive && s.cacheOwner == identityID {
			s.cache = tasks
		}
		s.mu.Unlock()
	}()
}

// adoptOwnerLocked はビューのオーナーを確定させる。
// 未確定（空文字列）の場合は指定ユーザーを新しいオーナーとして採用する。
// muを保持した状態で呼び出すこと。
func (s *Service) adoptOwnerLocked(identityID string) bool {
	if s.cacheOwner == identityID {
		return true
	}
	if s.cacheOwner == "" {
		s.cacheOwner = identityID
		return true
	}
	return false
}

// removeFromCache は指定ユーザーのビューから該当IDのタスクを取り除く。
func (s *Service) removeFromCache(identityID string, ids []string) {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.alive || s.cacheOwner != identityID {
		return
	}

	kept := s.cache[:0]
	for _, t := range s.cache {
		if !idSet[t.ID] {
			kept = append(kept, t)
		}
	}
	s.cache = kept
}
