package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/checkmate/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// ListByOwner は指定オーナーの全タスクを取得する。返却順序は保証されない。
func (r *PostgresTaskRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, text, completed, date, created_at, updated_at
		 FROM tasks WHERE owner_id = $1`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// ListByOwnerAndCompleted はオーナーと完了フラグでタスクを絞り込んで取得する。
func (r *PostgresTaskRepo) ListByOwnerAndCompleted(ctx context.Context, ownerID string, completed bool) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, text, completed, date, created_at, updated_at
		 FROM tasks WHERE owner_id = $1 AND completed = $2`,
		ownerID, completed,
	)
	if err != nil {
		return nil, fmt.Errorf("タスクの絞り込み取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	task := &model.Task{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, text, completed, date, created_at, updated_at
		 FROM tasks WHERE id = $1`,
		id,
	).Scan(&task.ID, &task.OwnerID, &task.Text, &task.Completed, &task.Date, &task.CreatedAt, &task.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}

	return task, nil
}

// Create はタスクを作成し、採番したIDをtask.IDに設定する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, owner_id, text, completed, date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		task.ID, task.OwnerID, task.Text, task.Completed, task.Date, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateFields はタスクを部分更新する。nilのフィールドは変更しない。
// COALESCEで既存値を維持する（部分マージ）。
func (r *PostgresTaskRepo) UpdateFields(ctx context.Context, id string, fields model.TaskFields) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET
		    text = COALESCE($2, text),
		    completed = COALESCE($3, completed),
		    date = COALESCE($4, date),
		    updated_at = now()
		 WHERE id = $1`,
		id, fields.Text, fields.Completed, fields.Date,
	)
	if err != nil {
		return fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewTaskNotFoundError(id)
	}
	return nil
}

// Delete は指定IDのタスクを削除する。
func (r *PostgresTaskRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewTaskNotFoundError(id)
	}
	return nil
}

// BatchDelete は指定オーナーの複数タスクを同一トランザクションで削除する。
// 全件成功するか全件失敗するかのいずれか。オーナー不一致のIDが含まれる場合は
// ロールバックし、部分削除は発生しない。
func (r *PostgresTaskRepo) BatchDelete(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM tasks WHERE id = $1 AND owner_id = $2`,
			id, ownerID,
		)
		if err != nil {
			return fmt.Errorf("一括削除に失敗しました: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("削除件数の取得に失敗しました: %w", err)
		}
		// オーナー不一致または既に削除済みのIDは全体を失敗させる
		if rowsAffected == 0 {
			return model.NewTaskUnauthorizedError(id)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// scanTasks はクエリ結果をタスクのスライスに変換する。
func scanTasks(rows *sql.Rows) ([]*model.Task, error) {
	var tasks []*model.Task
	for rows.Next() {
		task := &model.Task{}
		if err := rows.Scan(&task.ID, &task.OwnerID, &task.Text, &task.Completed, &task.Date, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("タスク行の読み取りに失敗しました: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タスク行の走査に失敗しました: %w", err)
	}
	return tasks, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
