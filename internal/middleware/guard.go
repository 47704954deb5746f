package middleware

import (
	"log/slog"
	"net/http"
)

// NewRequireIdentity は未ログインのリクエストをログイン画面へ誘導するミドルウェアを返す。
// SessionMiddlewareの後に配置する。
func NewRequireIdentity(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if session == nil {
				logger.Info("未ログインのアクセスをリダイレクトしました",
					slog.String("path", r.URL.Path),
				)
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewRequireRole は指定ロールを持たないログイン済みユーザーを
// ダッシュボードへ送り返すミドルウェアを返す。ロール比較は大文字小文字を区別しない。
// RequireIdentityの後に配置する。
func NewRequireRole(role string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if session == nil {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			if !session.Identity.HasRole(role) {
				logger.Warn("権限のないアクセスをリダイレクトしました",
					slog.String("path", r.URL.Path),
					slog.Int64("user_id", session.Identity.ID),
					slog.String("role", session.Identity.Role),
					slog.String("required_role", role),
				)
				http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
