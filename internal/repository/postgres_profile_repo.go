package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/checkmate/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// FindByUserID は指定ユーザーのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	profile := &model.Profile{}
	var photo []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, display_name, photo_data, photo_mime, created_at, updated_at
		 FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&profile.UserID, &profile.DisplayName, &photo, &profile.PhotoMime, &profile.CreatedAt, &profile.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}

	profile.Photo = photo
	return profile, nil
}

// Merge はプロフィールを部分マージで更新する。
// レコードが存在しない場合は遅延作成する。nilのフィールドは既存の値を維持する。
func (r *PostgresProfileRepo) Merge(ctx context.Context, userID string, fields model.ProfileFields) (*model.Profile, error) {
	now := time.Now().UTC()

	// 既存レコードを確認
	existing, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		// 遅延作成
		profile := &model.Profile{
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if fields.DisplayName != nil {
			profile.DisplayName = *fields.DisplayName
		}
		if fields.Photo != nil {
			profile.Photo = fields.Photo
		}
		if fields.PhotoMime != nil {
			profile.PhotoMime = *fields.PhotoMime
		}

		_, err := r.db.ExecContext(ctx,
			`INSERT INTO profiles (user_id, display_name, photo_data, photo_mime, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (user_id) DO UPDATE SET
			     display_name = EXCLUDED.display_name,
			     photo_data = EXCLUDED.photo_data,
			     photo_mime = EXCLUDED.photo_mime,
			     updated_at = EXCLUDED.updated_at`,
			profile.UserID, profile.DisplayName, profile.Photo, profile.PhotoMime,
			profile.CreatedAt, profile.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("プロフィールの作成に失敗しました: %w", err)
		}

		return profile, nil
	}

	// 既存レコードの部分マージ
	existing.UpdatedAt = now
	if fields.DisplayName != nil {
		existing.DisplayName = *fields.DisplayName
	}
	if fields.Photo != nil {
		existing.Photo = fields.Photo
	}
	if fields.PhotoMime != nil {
		existing.PhotoMime = *fields.PhotoMime
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE profiles SET
		    display_name = $2, photo_data = $3, photo_mime = $4, updated_at = $5
		 WHERE user_id = $1`,
		existing.UserID, existing.DisplayName, existing.Photo, existing.PhotoMime,
		existing.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}

	return existing, nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
