package repository

import (
	"testing"

	"github.com/hitoshi/checkmate/internal/model"
)

// TestPostgresProfileRepo_ImplementsInterface はPostgresProfileRepoがProfileRepositoryを実装することを検証する。
func TestPostgresProfileRepo_ImplementsInterface(t *testing.T) {
	// コンパイル時チェック：PostgresProfileRepoがProfileRepositoryを満たすことを検証
	var _ ProfileRepository = (*PostgresProfileRepo)(nil)
}

// TestPostgresReportNoteRepo_ImplementsInterface はPostgresReportNoteRepoがReportNoteRepositoryを実装することを検証する。
func TestPostgresReportNoteRepo_ImplementsInterface(t *testing.T) {
	var _ ReportNoteRepository = (*PostgresReportNoteRepo)(nil)
}

// NewPostgresProfileRepoが正しく初期化されることを検証
func TestNewPostgresProfileRepo_Initializes(t *testing.T) {
	repo := NewPostgresProfileRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// Profileの写真フィールドがnil許容であることを検証
func TestPostgresProfileRepo_ProfileModel_NilPhoto(t *testing.T) {
	profile := &model.Profile{
		UserID:      "user-id-1",
		DisplayName: "太郎",
	}

	if profile.Photo != nil {
		t.Error("photo should be nil by default")
	}
	if profile.PhotoMime != "" {
		t.Error("photo_mime should be empty by default")
	}
}

// ProfileFieldsのnilフィールドが既存値維持を意味することを検証
func TestPostgresProfileRepo_ProfileFields_NilMeansKeep(t *testing.T) {
	name := "次郎"
	fields := model.ProfileFields{DisplayName: &name}

	if fields.Photo != nil {
		t.Error("photo should be nil when not supplied")
	}
	if fields.PhotoMime != nil {
		t.Error("photo_mime should be nil when not supplied")
	}
}
