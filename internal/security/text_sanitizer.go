// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はタスク本文や表示名などユーザー入力の自由テキストを
// サニタイズし、HTMLタグの混入によるXSSリスクからユーザーを保護する。
// bluemondayのStrictPolicyにより全てのタグを除去し、プレーンテキストのみを保存する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はユーザー入力テキストのサニタイズ機能のインターフェースを定義する。
// タスク本文、表示名、レポートメモの保存前に使用される。
type TextSanitizerService interface {
	// Sanitize は入力テキストから全てのHTMLタグを除去し、
	// 前後の空白をトリムしたプレーンテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全てのタグと属性を除去する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストから全てのHTMLタグを除去する。
// StrictPolicyはテキスト部分をエンティティエスケープするため、
// プレーンテキストとして保存できるようアンエスケープして返す。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// compile-time interface check
var _ TextSanitizerService = (*textSanitizer)(nil)
