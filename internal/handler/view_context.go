package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/maki/equiport/internal/middleware"
	"github.com/maki/equiport/internal/model"
)

// PreferenceStore はテーマ設定の読み書きに必要なインターフェース。
// repository.PreferenceRepositoryの部分集合として定義する。
type PreferenceStore interface {
	FindByUserID(ctx context.Context, userID int64) (*model.Preference, error)
	UpsertTheme(ctx context.Context, userID int64, theme string) error
}

// viewContext はログイン済みページの共通テンプレートデータを組み立てる。
// フラッシュメッセージの取り出しとテーマ設定の解決をまとめる。
type viewContext struct {
	flashes FlashServiceInterface
	prefs   PreferenceStore
	logger  *slog.Logger
}

// pageData はタイトルとページ固有データから共通データを組み立てる。
// フラッシュはここで取り出した時点でキューから消える。
func (vc *viewContext) pageData(r *http.Request, title string, data any) PageData {
	pd := PageData{
		Title:     title,
		Theme:     "light",
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		Data:      data,
	}

	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		return pd
	}

	pd.Identity = &session.Identity
	pd.Flashes = vc.flashes.Pop(r.Context(), session.ID)

	pref, err := vc.prefs.FindByUserID(r.Context(), session.Identity.ID)
	if err != nil {
		vc.logger.Error("テーマ設定の取得に失敗しました",
			slog.Int64("user_id", session.Identity.ID),
			slog.String("error", err.Error()),
		)
	} else if pref != nil {
		pd.Theme = pref.Theme
	}

	return pd
}
