package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/maki/equiport/internal/authz"
	"github.com/maki/equiport/internal/flash"
	"github.com/maki/equiport/internal/gateway"
	"github.com/maki/equiport/internal/listing"
	"github.com/maki/equiport/internal/middleware"
	"github.com/maki/equiport/internal/model"
)

// CatalogGateway は備品カタログ画面が必要とする上流API操作のインターフェース。
type CatalogGateway interface {
	ListEquipment(ctx context.Context, token string) ([]model.Equipment, error)
	CreateBorrowRequest(ctx context.Context, token string, userID, equipmentID int64) (*model.BorrowRequest, error)
}

// IdentityRefresher はアクセス時にロール変更を反映するためのインターフェース。
type IdentityRefresher interface {
	RefreshIdentity(ctx context.Context, session *model.Session) (*model.Identity, error)
}

// DashboardHandler は備品カタログ画面のHTTPハンドラー。
type DashboardHandler struct {
	gw        CatalogGateway
	refresher IdentityRefresher
	views     *viewContext
	upstream  *upstreamErrorHandler
	renderer  *Renderer
	logger    *slog.Logger
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(gw CatalogGateway, refresher IdentityRefresher, views *viewContext, upstream *upstreamErrorHandler, renderer *Renderer, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		gw:        gw,
		refresher: refresher,
		views:     views,
		upstream:  upstream,
		renderer:  renderer,
		logger:    logger,
	}
}

// dashboardView はカタログ画面のテンプレートデータ。
type dashboardView struct {
	Page         equipmentPage
	Query        string
	Category     string
	Availability string
	Categories   []string
	CanBorrow    bool
}

// Dashboard は備品カタログを表示する。
// GET /dashboard
// クエリパラメータ: q（名前検索）、category、availability、page
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	// ロール変更を次のアクセスで反映する。失効時はログイン画面へ戻す
	if identity, err := h.refresher.RefreshIdentity(r.Context(), session); err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			h.upstream.handle(w, r, err, "/")
			return
		}
		h.logger.Warn("ユーザー情報の再取得に失敗しました。キャッシュ済みの情報で続行します",
			slog.String("error", err.Error()),
		)
	} else {
		session.Identity = *identity
	}

	items, err := h.gw.ListEquipment(r.Context(), session.Token)
	if err != nil {
		h.upstream.handle(w, r, err, "/dashboard")
		return
	}

	query := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")
	availability := listing.ParseAvailability(r.URL.Query().Get("availability"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	filtered := listing.FilterEquipment(items, listing.EquipmentFilter{
		Query:        query,
		Category:     category,
		Availability: availability,
	})

	view := dashboardView{
		Page:         listing.Paginate(filtered, page, listing.PerPage),
		Query:        query,
		Category:     category,
		Availability: string(availability),
		Categories:   listing.Categories(items),
		CanBorrow:    !authz.IsAdmin(&session.Identity),
	}

	h.renderer.Render(w, http.StatusOK, "dashboard.html", h.views.pageData(r, "備品カタログ", view))
}

// Borrow は貸出リクエストの作成を処理する。
// POST /equipment/{id}/borrow
func (h *DashboardHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	equipmentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if authz.IsAdmin(&session.Identity) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	created, err := h.gw.CreateBorrowRequest(r.Context(), session.Token, session.Identity.ID, equipmentID)
	if err != nil {
		h.upstream.handle(w, r, err, "/dashboard")
		return
	}

	if err := h.views.flashes.Push(r.Context(), session.ID, flash.LevelSuccess,
		created.Equipment.Name+" の貸出リクエストを送信しました"); err != nil {
		h.logger.Error("フラッシュメッセージの追加に失敗しました", slog.String("error", err.Error()))
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
