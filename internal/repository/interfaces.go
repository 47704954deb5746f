// Package repository はポータルローカルデータの永続化インターフェースを定義する。
package repository

import (
	"context"

	"github.com/maki/equiport/internal/model"
)

// SessionRepository はセッションデータの永続化インターフェース。
// セッション行は認証済みIdentityのキャッシュと上流ベアラートークンを保持する。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。期限切れまたは未存在の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// UpdateIdentity はセッションにキャッシュされたIdentityを更新する。
	// バックグラウンドのプロフィール再取得でロールが変わった場合に使う。
	UpdateIdentity(ctx context.Context, sessionID string, identity model.Identity) error

	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// PreferenceRepository はユーザー表示設定の永続化インターフェース。
type PreferenceRepository interface {
	// FindByUserID は指定ユーザーの設定を取得する。未設定の場合はnilを返す。
	FindByUserID(ctx context.Context, userID int64) (*model.Preference, error)

	// UpsertTheme はテーマ設定を冪等に保存する。
	UpsertTheme(ctx context.Context, userID int64, theme string) error
}

// FlashRepository はフラッシュメッセージの永続化インターフェース。
type FlashRepository interface {
	// Push はメッセージをセッションのキューに追加する。
	Push(ctx context.Context, msg *model.FlashMessage) error

	// PopBySessionID はセッションの未失効メッセージを作成順で全件取り出し、削除する。
	PopBySessionID(ctx context.Context, sessionID string) ([]model.FlashMessage, error)

	// DeleteExpired は期限切れメッセージを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
