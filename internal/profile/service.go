// Package profile はユーザープロフィールの取得と部分マージ更新を提供する。
package profile

import (
	"context"
	"log/slog"

	"github.com/hitoshi/checkmate/internal/model"
	"github.com/hitoshi/checkmate/internal/repository"
	"github.com/hitoshi/checkmate/internal/security"
)

// Service はプロフィールに関するビジネスロジックを提供する。
//
// プロフィールのレコードはユーザー登録時には作成せず、最初の更新時に
// 遅延作成する。更新は常に部分マージで行い、リクエストに含まれない
// フィールド（写真など）を上書きで消してしまうことがないようにする。
type Service struct {
	profileRepo    repository.ProfileRepository
	sanitizer      security.TextSanitizerService
	photoValidator *security.PhotoValidator
}

// NewService はServiceを生成する。
func NewService(
	profileRepo repository.ProfileRepository,
	sanitizer security.TextSanitizerService,
	photoValidator *security.PhotoValidator,
) *Service {
	return &Service{
		profileRepo:    profileRepo,
		sanitizer:      sanitizer,
		photoValidator: photoValidator,
	}
}

// Get は指定ユーザーのプロフィールを取得する。
// レコードがまだ存在しない場合はエラーではなく空のプロフィールを返す。
func (s *Service) Get(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, model.NewNotAuthenticatedError()
	}

	p, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		slog.Error("プロフィールの取得に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewRepositoryUnavailableError()
	}
	if p == nil {
		return &model.Profile{UserID: userID}, nil
	}

	return p, nil
}

// Update はプロフィールを部分マージで更新し、マージ後のプロフィールを返す。
// 表示名はサニタイズし、写真は形式とサイズを検証してから保存する。
// nilのフィールドは既存の値を維持する。
func (s *Service) Update(ctx context.Context, userID string, fields model.ProfileFields) (*model.Profile, error) {
	if userID == "" {
		return nil, model.NewNotAuthenticatedError()
	}

	if fields.DisplayName != nil && s.sanitizer != nil {
		cleaned := s.sanitizer.Sanitize(*fields.DisplayName)
		fields.DisplayName = &cleaned
	}

	if fields.Photo != nil {
		mime := ""
		if fields.PhotoMime != nil {
			mime = *fields.PhotoMime
		}
		if err := s.photoValidator.Validate(fields.Photo, mime); err != nil {
			return nil, err
		}
	}

	merged, err := s.profileRepo.Merge(ctx, userID, fields)
	if err != nil {
		slog.Error("プロフィールの更新に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewRepositoryUnavailableError()
	}

	slog.Info("profile updated",
		slog.String("user_id", userID),
		slog.Bool("photo_updated", fields.Photo != nil),
	)

	return merged, nil
}
