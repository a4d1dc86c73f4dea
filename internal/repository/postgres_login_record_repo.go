package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/checkmate/internal/model"
)

// PostgresLoginRecordRepo はPostgreSQLを使用したログイン補助レコードリポジトリ。
type PostgresLoginRecordRepo struct {
	db *sql.DB
}

// NewPostgresLoginRecordRepo はPostgresLoginRecordRepoを生成する。
func NewPostgresLoginRecordRepo(db *sql.DB) *PostgresLoginRecordRepo {
	return &PostgresLoginRecordRepo{db: db}
}

// Create はログイン補助レコードを作成する。
func (r *PostgresLoginRecordRepo) Create(ctx context.Context, record *model.LoginRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_records (id, user_id, email, created_at)
		 VALUES ($1, $2, $3, $4)`,
		record.ID, record.UserID, record.Email, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert login record: %w", err)
	}
	return nil
}

// DeleteOrphaned はユーザーが存在しないレコードを削除し、削除件数を返す。
// クリーンアップワーカーから呼び出される。冪等。
func (r *PostgresLoginRecordRepo) DeleteOrphaned(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM login_records
		 WHERE NOT EXISTS (SELECT 1 FROM users WHERE users.id = login_records.user_id)`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned login records: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ LoginRecordRepository = (*PostgresLoginRecordRepo)(nil)
