// Package auth はメールアドレスとパスワードによる認証、セッション管理、
// サインイン状態の変化通知を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/checkmate/internal/model"
	"github.com/hitoshi/checkmate/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo        repository.UserRepository
	sessionRepo     repository.SessionRepository
	loginRecordRepo repository.LoginRecordRepository
	notifier        *IdentityNotifier
	config          ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	loginRecordRepo repository.LoginRecordRepository,
	notifier *IdentityNotifier,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:        userRepo,
		sessionRepo:     sessionRepo,
		loginRecordRepo: loginRecordRepo,
		notifier:        notifier,
		config:          config,
	}
}

// Notifier はサインイン状態の変化通知を返す。
// タスクサービスなどがキャッシュ再構築のために購読する。
func (s *Service) Notifier() *IdentityNotifier {
	return s.notifier
}

// Login はメールアドレスとパスワードでログインし、セッションを発行する。
// 入力が空の場合はEMPTY_CREDENTIALS、未登録メールはNOT_REGISTERED、
// パスワード不一致はWRONG_PASSWORDを返す。
// 認証エラーはリポジトリ問い合わせ前にローカルで検出できるものから順に判定する。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
	// 1. 空チェック（リポジトリへの問い合わせ前に失敗させる）
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil, nil, model.NewEmptyCredentialsError()
	}

	// 2. 登録済みメールアドレスの確認
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewNotRegisteredError()
	}

	// 3. パスワード照合
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, model.NewWrongPasswordError()
	}

	// 4. セッションを発行し、サインイン状態の変化を通知
	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	s.notifier.Notify(user.ID)

	return session, user, nil
}

// Register は新規ユーザーを作成し、セッションを発行する。
// パスワードが空の場合はEMPTY_CREDENTIALS、登録済みメールはEMAIL_TAKENを返す。
// ログイン補助レコードの書き込みはベストエフォートで行い、
// 失敗しても登録処理は成功として扱う（ログにのみ記録する）。
func (s *Service) Register(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
	// 1. 空チェック（いかなるリポジトリ書き込みよりも前に失敗させる）
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil, nil, model.NewEmptyCredentialsError()
	}

	// 2. 重複メールアドレスの確認
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, nil, model.NewEmailTakenError()
	}

	// 3. パスワードハッシュとユーザーレコードの作成
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	// 4. ログイン補助レコードをベストエフォートで書き込む
	// 失敗しても登録は成功として扱う。リクエストのコンテキストに
	// 依存しないよう独立したコンテキストで実行する。
	go s.writeLoginRecord(context.WithoutCancel(ctx), user)

	// 5. セッションを発行し、サインイン状態の変化を通知
	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.notifier.Notify(user.ID)

	return session, user, nil
}

// Logout はセッションを破棄し、サインアウトを通知する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	s.notifier.Notify(IdentityNone)
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
// セッションが期限切れまたは存在しない場合はエラーを返す。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		// 期限切れは外部駆動のサインアウトとして扱い、購読者へ通知する
		s.notifier.Notify(IdentityNone)
		return nil, fmt.Errorf("session not found or expired")
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	return user, nil
}

// writeLoginRecord はログイン補助レコードを書き込む。
// 失敗はログにのみ記録する（可観測性シンクへの報告）。
func (s *Service) writeLoginRecord(ctx context.Context, user *model.User) {
	record := &model.LoginRecord{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: time.Now(),
	}

	if err := s.loginRecordRepo.Create(ctx, record); err != nil {
		slog.Error("failed to write login record",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
