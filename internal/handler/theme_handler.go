package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/maki/equiport/internal/middleware"
)

// ThemeHandler はテーマ切り替えのHTTPハンドラー。
type ThemeHandler struct {
	prefs  PreferenceStore
	logger *slog.Logger
}

// NewThemeHandler はThemeHandlerを生成する。
func NewThemeHandler(prefs PreferenceStore, logger *slog.Logger) *ThemeHandler {
	return &ThemeHandler{
		prefs:  prefs,
		logger: logger,
	}
}

// Toggle はテーマ設定を保存し、元のページへ戻す。
// POST /theme
// フォームのthemeはlightかdarkのみ受け付け、それ以外はlightに倒す。
func (h *ThemeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	theme := r.PostFormValue("theme")
	if theme != "dark" {
		theme = "light"
	}

	if err := h.prefs.UpsertTheme(r.Context(), session.Identity.ID, theme); err != nil {
		h.logger.Error("テーマ設定の保存に失敗しました",
			slog.Int64("user_id", session.Identity.ID),
			slog.String("error", err.Error()),
		)
	}

	// オープンリダイレクト対策でサイト内パスのみ許可する
	redirect := r.PostFormValue("redirect")
	if !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") {
		redirect = "/dashboard"
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}
