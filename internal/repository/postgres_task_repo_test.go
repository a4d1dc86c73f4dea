package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/checkmate/internal/model"
)

// TestPostgresTaskRepo_ImplementsInterface はPostgresTaskRepoがTaskRepositoryを実装することを検証する。
func TestPostgresTaskRepo_ImplementsInterface(t *testing.T) {
	// コンパイル時チェック：PostgresTaskRepoがTaskRepositoryを満たすことを検証
	var _ TaskRepository = (*PostgresTaskRepo)(nil)
}

// NewPostgresTaskRepoが正しく初期化されることを検証
func TestNewPostgresTaskRepo_Initializes(t *testing.T) {
	repo := NewPostgresTaskRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// Taskモデルのフィールドが正しく構築されることを検証
func TestPostgresTaskRepo_TaskModel_Fields(t *testing.T) {
	now := time.Now()
	task := &model.Task{
		ID:        "task-id-1",
		OwnerID:   "user-id-1",
		Text:      "牛乳を買う",
		Completed: false,
		Date:      now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if task.ID != "task-id-1" {
		t.Errorf("task.ID = %q, want %q", task.ID, "task-id-1")
	}
	if task.OwnerID != "user-id-1" {
		t.Errorf("task.OwnerID = %q, want %q", task.OwnerID, "user-id-1")
	}
	if task.Completed {
		t.Error("task.Completed should default to false")
	}
}

// TaskFieldsのnilフィールドが未変更を意味することを検証
func TestPostgresTaskRepo_TaskFields_NilMeansUnchanged(t *testing.T) {
	completed := true
	fields := model.TaskFields{Completed: &completed}

	if fields.Text != nil {
		t.Error("text should be nil when not updated")
	}
	if fields.Date != nil {
		t.Error("date should be nil when not updated")
	}
	if fields.Completed == nil || !*fields.Completed {
		t.Error("completed should be set to true")
	}
}
