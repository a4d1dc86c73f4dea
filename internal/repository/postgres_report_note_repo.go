package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/checkmate/internal/model"
)

// PostgresReportNoteRepo はPostgreSQLを使用した週次レポートメモリポジトリ。
type PostgresReportNoteRepo struct {
	db *sql.DB
}

// NewPostgresReportNoteRepo はPostgresReportNoteRepoを生成する。
func NewPostgresReportNoteRepo(db *sql.DB) *PostgresReportNoteRepo {
	return &PostgresReportNoteRepo{db: db}
}

// FindByUserID は指定ユーザーのメモを取得する。見つからない場合はnilを返す。
func (r *PostgresReportNoteRepo) FindByUserID(ctx context.Context, userID string) (*model.ReportNote, error) {
	note := &model.ReportNote{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, body, updated_at FROM report_notes WHERE user_id = $1`,
		userID,
	).Scan(&note.UserID, &note.Body, &note.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("レポートメモの取得に失敗しました: %w", err)
	}

	return note, nil
}

// Upsert はメモを冪等にUPSERTする。
// PRIMARY KEY(user_id)制約を利用したINSERT ON CONFLICTで実装する。
func (r *PostgresReportNoteRepo) Upsert(ctx context.Context, note *model.ReportNote) error {
	note.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO report_notes (user_id, body, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET
		     body = EXCLUDED.body,
		     updated_at = EXCLUDED.updated_at`,
		note.UserID, note.Body, note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("レポートメモの保存に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ReportNoteRepository = (*PostgresReportNoteRepo)(nil)
