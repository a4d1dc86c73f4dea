package repository

import (
	"testing"

	"github.com/hitoshi/checkmate/internal/model"
)

// TestPostgresUserRepo_ImplementsInterface はPostgresUserRepoがUserRepositoryを実装することを検証する。
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	// コンパイル時チェック：PostgresUserRepoがUserRepositoryを満たすことを検証
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// TestPostgresSessionRepo_ImplementsInterface はPostgresSessionRepoがSessionRepositoryを実装することを検証する。
func TestPostgresSessionRepo_ImplementsInterface(t *testing.T) {
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

// TestPostgresLoginRecordRepo_ImplementsInterface はPostgresLoginRecordRepoがLoginRecordRepositoryを実装することを検証する。
func TestPostgresLoginRecordRepo_ImplementsInterface(t *testing.T) {
	var _ LoginRecordRepository = (*PostgresLoginRecordRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// Userモデルが平文パスワードを保持しないことを検証
func TestPostgresUserRepo_UserModel_Fields(t *testing.T) {
	user := &model.User{
		ID:           "user-id-1",
		Email:        "taro@example.com",
		PasswordHash: "$2a$10$hash",
	}

	if user.Email != "taro@example.com" {
		t.Errorf("user.Email = %q", user.Email)
	}
	if user.PasswordHash == "" {
		t.Error("password hash should be set")
	}
}
