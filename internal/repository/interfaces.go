// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/checkmate/internal/model"
)

// TaskRepository はタスクデータの永続化インターフェース。
// オーナーと完了フラグによる絞り込み、単一更新、原子的な一括削除を提供する。
type TaskRepository interface {
	// ListByOwner は指定オーナーの全タスクを取得する。
	// 返却順序は保証されない。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Task, error)

	// ListByOwnerAndCompleted はオーナーと完了フラグでタスクを絞り込んで取得する。
	ListByOwnerAndCompleted(ctx context.Context, ownerID string, completed bool) ([]*model.Task, error)

	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// Create はタスクを作成し、採番したIDをtask.IDに設定する。
	Create(ctx context.Context, task *model.Task) error

	// UpdateFields はタスクを部分更新する。nilのフィールドは変更しない。
	UpdateFields(ctx context.Context, id string, fields model.TaskFields) error

	// Delete は指定IDのタスクを削除する。
	Delete(ctx context.Context, id string) error

	// BatchDelete は指定オーナーの複数タスクを同一トランザクションで削除する。
	// 全件成功するか全件失敗するかのいずれかで、部分削除は発生しない。
	// オーナーが一致しないIDが含まれる場合はトランザクション全体を失敗させる。
	BatchDelete(ctx context.Context, ownerID string, ids []string) error
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// ProfileRepository はプロフィールデータの永続化インターフェース。
type ProfileRepository interface {
	// FindByUserID は指定ユーザーのプロフィールを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Profile, error)

	// Merge はプロフィールを部分マージで更新する。
	// レコードが存在しない場合は遅延作成する。nilのフィールドは既存の値を維持する。
	Merge(ctx context.Context, userID string, fields model.ProfileFields) (*model.Profile, error)
}

// LoginRecordRepository はログイン補助レコードの永続化インターフェース。
type LoginRecordRepository interface {
	// Create はログイン補助レコードを作成する。
	Create(ctx context.Context, record *model.LoginRecord) error
	// DeleteOrphaned はユーザーが存在しないレコードを削除し、削除件数を返す。
	DeleteOrphaned(ctx context.Context) (int64, error)
}

// ReportNoteRepository は週次レポートメモの永続化インターフェース。
type ReportNoteRepository interface {
	// FindByUserID は指定ユーザーのメモを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.ReportNote, error)
	// Upsert はメモを冪等にUPSERTする。
	Upsert(ctx context.Context, note *model.ReportNote) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
