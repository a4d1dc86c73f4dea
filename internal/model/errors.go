// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, task, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNotAuthenticated      = "NOT_AUTHENTICATED"
	ErrCodeTaskUnauthorized      = "TASK_UNAUTHORIZED"
	ErrCodeTaskNotFound          = "TASK_NOT_FOUND"
	ErrCodeNotRegistered         = "NOT_REGISTERED"
	ErrCodeWrongPassword         = "WRONG_PASSWORD"
	ErrCodeEmptyCredentials      = "EMPTY_CREDENTIALS"
	ErrCodeEmailTaken            = "EMAIL_TAKEN"
	ErrCodeInvalidPhoto          = "INVALID_PHOTO"
	ErrCodeRepositoryUnavailable = "REPOSITORY_UNAVAILABLE"
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
)

// NewNotAuthenticatedError は未認証エラーを生成する。
// リポジトリへの問い合わせ前にローカルで検出される。
func NewNotAuthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthenticated,
		Message:  "ログインしていません。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewTaskUnauthorizedError は他ユーザーのタスクへの操作エラーを生成する。
// ストレージエラーではなくポリシー違反として扱う。
func NewTaskUnauthorizedError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskUnauthorized,
		Message:  fmt.Sprintf("このタスクを操作する権限がありません: %s", taskID),
		Category: "task",
		Action:   "自分のタスクのみ操作できます。",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
		Category: "task",
		Action:   "タスク一覧を再読み込みしてください。",
	}
}

// NewNotRegisteredError は未登録メールアドレスでのログインエラーを生成する。
func NewNotRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeNotRegistered,
		Message:  "このメールアドレスは登録されていません。",
		Category: "auth",
		Action:   "先にアカウント登録を行ってください。",
	}
}

// NewWrongPasswordError はパスワード不一致エラーを生成する。
func NewWrongPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeWrongPassword,
		Message:  "パスワードが正しくありません。",
		Category: "auth",
		Action:   "パスワードを確認して再度お試しください。",
	}
}

// NewEmptyCredentialsError はメールアドレスまたはパスワードが空の場合のエラーを生成する。
func NewEmptyCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyCredentials,
		Message:  "メールアドレスとパスワードを入力してください。",
		Category: "validation",
		Action:   "両方の項目を入力してから再度お試しください。",
	}
}

// NewEmailTakenError は登録済みメールアドレスでの再登録エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "ログイン画面からログインしてください。",
	}
}

// NewInvalidPhotoError はプロフィール写真の検証エラーを生成する。
func NewInvalidPhotoError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPhoto,
		Message:  fmt.Sprintf("写真を保存できません: %s", reason),
		Category: "validation",
		Action:   "JPEG/PNG/WebP形式の画像を選択してください。",
	}
}

// NewRepositoryUnavailableError はバックエンドの一時的な障害エラーを生成する。
func NewRepositoryUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeRepositoryUnavailable,
		Message:  "データの保存先に接続できません。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
