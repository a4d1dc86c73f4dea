// Package model はドメインモデルを定義する。
package model

import "time"

// Task はユーザーのTODOタスクを表す。
// IDはリポジトリが永続化時に採番する。永続化前は空文字列。
// OwnerIDは作成時に確定し、以後変更されない。
type Task struct {
	ID        string
	OwnerID   string
	Text      string
	Completed bool
	Date      time.Time // タスクに紐づく日付。作成日時とは別。
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskFields はタスクの部分更新フィールドを表す。
// nilのフィールドは変更されない。
type TaskFields struct {
	Text      *string
	Completed *bool
	Date      *time.Time
}
