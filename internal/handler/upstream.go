package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/maki/equiport/internal/flash"
	"github.com/maki/equiport/internal/gateway"
	"github.com/maki/equiport/internal/middleware"
	"github.com/maki/equiport/internal/model"
)

// networkErrorMessage は上流に到達できなかった場合のユーザー向け文言。
const networkErrorMessage = "サーバーに接続できませんでした。時間をおいてやり直してください。"

// FlashServiceInterface はハンドラーが必要とするフラッシュメッセージ操作のインターフェース。
type FlashServiceInterface interface {
	Push(ctx context.Context, sessionID, level, text string) error
	Pop(ctx context.Context, sessionID string) []model.FlashMessage
}

// SessionDeleter はセッション破棄に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionDeleter interface {
	DeleteByID(ctx context.Context, id string) error
}

// Sanitizer は上流メッセージの無害化インターフェース。
type Sanitizer interface {
	Sanitize(message string) string
}

// upstreamErrorHandler は上流APIのエラーを画面遷移に変換する共通処理。
type upstreamErrorHandler struct {
	flashes   FlashServiceInterface
	sessions  SessionDeleter
	sanitizer Sanitizer
	logger    *slog.Logger
}

// handle は上流エラーの種別に応じてリダイレクト先とフラッシュを決める。
//   - 401: セッションを破棄しログイン画面へ（トークン失効）
//   - その他の上流エラー: 無害化した文言をエラーフラッシュに積み、fallbackへ
//   - ネットワークエラー: 汎用文言をエラーフラッシュに積み、fallbackへ
func (h *upstreamErrorHandler) handle(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	session := middleware.SessionFromContext(r.Context())

	if errors.Is(err, gateway.ErrUnauthorized) {
		if session != nil {
			if delErr := h.sessions.DeleteByID(r.Context(), session.ID); delErr != nil {
				h.logger.Error("失効セッションの削除に失敗しました",
					slog.String("error", delErr.Error()),
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
		return
	}

	message := networkErrorMessage
	if ue, ok := gateway.AsUpstreamError(err); ok && ue.Message != "" {
		message = h.sanitizer.Sanitize(ue.Message)
		if message == "" {
			message = networkErrorMessage
		}
	}

	if session != nil {
		if pushErr := h.flashes.Push(r.Context(), session.ID, flash.LevelError, message); pushErr != nil {
			h.logger.Error("フラッシュメッセージの追加に失敗しました",
				slog.String("error", pushErr.Error()),
			)
		}
	}

	http.Redirect(w, r, fallback, http.StatusSeeOther)
}
