// Package model はドメインモデルを定義する。
package model

import "time"

// Profile はユーザーのプロフィール情報を表す。
// 初回書き込み時に遅延作成され、部分マージで更新される。
type Profile struct {
	UserID      string
	DisplayName string
	Photo       []byte // プロフィール写真のバイナリデータ
	PhotoMime   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileFields はプロフィールの部分マージ用フィールドを表す。
// nilのフィールドは既存の値を維持する。
type ProfileFields struct {
	DisplayName *string
	Photo       []byte
	PhotoMime   *string
}

// ReportNote は週次レポートに添えるユーザーの振り返りメモを表す。
type ReportNote struct {
	UserID    string
	Body      string
	UpdatedAt time.Time
}
