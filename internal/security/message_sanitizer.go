// Package security はアプリケーションのセキュリティ機能を提供する。
//
// MessageSanitizerService は上流APIから受け取ったエラーメッセージを
// バナー表示する前にサニタイズし、XSS攻撃からユーザーを保護する。
// 上流の文言はポータルの管理外なので、タグを一切許可しない
// 厳格ポリシーでプレーンテキストに落とす。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// MessageSanitizerService は表示用メッセージのサニタイズ機能のインターフェースを定義する。
// 上流APIのエラー文言をフラッシュメッセージに積む前に使用される。
type MessageSanitizerService interface {
	// Sanitize はメッセージをサニタイズしてプレーンテキストを返す。
	// すべてのHTMLタグを除去し、前後の空白を取り除く。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(message string) string
}

// messageSanitizer はMessageSanitizerServiceの実装。
// bluemondayの厳格ポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type messageSanitizer struct {
	policy *bluemonday.Policy
}

// NewMessageSanitizer はMessageSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはタグも属性も一切許可せず、テキストのみを通過させる。
func NewMessageSanitizer() *messageSanitizer {
	return &messageSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はメッセージをサニタイズしてプレーンテキストを返す。
func (s *messageSanitizer) Sanitize(message string) string {
	return strings.TrimSpace(s.policy.Sanitize(message))
}
