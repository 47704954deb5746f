package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/maki/equiport/internal/gateway"
	"github.com/maki/equiport/internal/middleware"
	"github.com/maki/equiport/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*model.Session, error)
	Register(ctx context.Context, name, email, password, role string) (*model.Identity, error)
	Logout(ctx context.Context, session *model.Session) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	SessionMaxAge int
	CookieSecure  bool
	CookieDomain  string
}

// AuthHandler はログイン・登録・ログアウト画面のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	renderer  *Renderer
	sanitizer Sanitizer
	config    AuthHandlerConfig
	logger    *slog.Logger
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, renderer *Renderer, sanitizer Sanitizer, config AuthHandlerConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:   service,
		renderer:  renderer,
		sanitizer: sanitizer,
		config:    config,
		logger:    logger,
	}
}

// loginView はログイン画面のテンプレートデータ。
type loginView struct {
	Email     string
	Error     string
	Notice    string
	FieldErrs model.FieldErrors
}

// LoginPage はログイン画面を表示する。
// GET /
// ログイン済みの場合はダッシュボードへ誘導する。
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	view := loginView{}
	if r.URL.Query().Get("registered") == "1" {
		view.Notice = "登録が完了しました。ログインしてください。"
	}

	h.renderLogin(w, r, http.StatusOK, view)
}

// Login はログインフォームの送信を処理する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	fieldErrs := model.FieldErrors{}
	if email == "" {
		fieldErrs["email"] = "メールアドレスを入力してください"
	}
	if password == "" {
		fieldErrs["password"] = "パスワードを入力してください"
	}
	if fieldErrs.Has() {
		h.renderLogin(w, r, http.StatusUnprocessableEntity, loginView{Email: email, FieldErrs: fieldErrs})
		return
	}

	session, err := h.service.Login(r.Context(), email, password)
	if err != nil {
		message := networkErrorMessage
		if ue, ok := gateway.AsUpstreamError(err); ok && ue.Message != "" {
			message = h.sanitizer.Sanitize(ue.Message)
		}
		h.renderLogin(w, r, http.StatusUnauthorized, loginView{Email: email, Error: message})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// registerView は登録画面のテンプレートデータ。
type registerView struct {
	Name      string
	Email     string
	Role      string
	Error     string
	FieldErrs model.FieldErrors
}

// RegisterPage は登録画面を表示する。
// GET /register
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderRegister(w, r, http.StatusOK, registerView{Role: model.RoleStudent})
}

// Register は登録フォームの送信を処理する。
// POST /register
// 登録に成功したらログイン画面へ誘導する（セッションは発行しない）。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	view := registerView{
		Name:  strings.TrimSpace(r.PostFormValue("name")),
		Email: strings.TrimSpace(r.PostFormValue("email")),
		Role:  r.PostFormValue("role"),
	}
	password := r.PostFormValue("password")

	fieldErrs := model.FieldErrors{}
	if view.Name == "" {
		fieldErrs["name"] = "名前を入力してください"
	}
	if view.Email == "" || !strings.Contains(view.Email, "@") {
		fieldErrs["email"] = "有効なメールアドレスを入力してください"
	}
	if len(password) < 6 {
		fieldErrs["password"] = "パスワードは6文字以上で入力してください"
	}
	switch strings.ToUpper(view.Role) {
	case model.RoleStudent, model.RoleStaff:
	default:
		fieldErrs["role"] = "ロールの値が不正です"
	}
	if fieldErrs.Has() {
		h.renderRegister(w, r, http.StatusUnprocessableEntity, registerView{
			Name: view.Name, Email: view.Email, Role: view.Role, FieldErrs: fieldErrs,
		})
		return
	}

	if _, err := h.service.Register(r.Context(), view.Name, view.Email, password, view.Role); err != nil {
		message := networkErrorMessage
		if ue, ok := gateway.AsUpstreamError(err); ok && ue.Message != "" {
			message = h.sanitizer.Sanitize(ue.Message)
		}
		view.Error = message
		h.renderRegister(w, r, http.StatusUnprocessableEntity, view)
		return
	}

	http.Redirect(w, r, "/?registered=1", http.StatusSeeOther)
}

// Logout はログアウトを処理する。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session != nil {
		if err := h.service.Logout(r.Context(), session); err != nil {
			h.logger.Error("ログアウト処理に失敗しました",
				slog.String("error", err.Error()),
			)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, view loginView) {
	h.renderer.Render(w, status, "login.html", PageData{
		Title:     "ログイン",
		Theme:     "light",
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		Data:      view,
	})
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, status int, view registerView) {
	h.renderer.Render(w, status, "register.html", PageData{
		Title:     "ユーザー登録",
		Theme:     "light",
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
		Data:      view,
	})
}
