// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// パスワードはbcryptハッシュのみ保持する。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// LoginRecord は登録時に書き込まれるログイン補助レコードを表す。
// ベストエフォートの副次書き込みであり、登録処理の成否には影響しない。
type LoginRecord struct {
	ID        string
	UserID    string
	Email     string
	CreatedAt time.Time
}
