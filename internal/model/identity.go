// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// ロール定数。貸出バックエンドが返すrole文字列の既知の値。
// 比較は常に大文字小文字を無視して行う（サーバー側は自由形式の文字列）。
const (
	RoleStudent = "STUDENT"
	RoleStaff   = "STAFF"
	RoleAdmin   = "ADMIN"
)

// Identity は認証済みユーザーをポータルから見た姿を表す。
// ログイン時にバックエンドから取得し、セッションにキャッシュする。
// 正本はあくまでバックエンド側にあり、ロールはプロフィール再取得で更新されうる。
type Identity struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HasRole はIdentityが指定ロールを持つかを大文字小文字を無視して判定する。
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	return strings.EqualFold(i.Role, role)
}

// Session はポータル側のログインセッションを表す。
// バックエンドのベアラートークンとIdentityのキャッシュを保持する。
// クライアント側でのタイマー失効は行わず、上流の401が失効のシグナルとなる。
type Session struct {
	ID        string
	Identity  Identity
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// FlashMessage はセッションに紐付く一時表示メッセージを表す。
// expires_atを過ぎたメッセージは表示されずクリーンアップで削除される。
type FlashMessage struct {
	ID        string
	SessionID string
	Level     string // "info" | "error"
	Text      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Preference はユーザーごとのポータル表示設定を表す。
type Preference struct {
	UserID    int64
	Theme     string // "light" | "dark"
	UpdatedAt time.Time
}
