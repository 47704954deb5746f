package handler

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/maki/equiport/internal/metrics"
	"github.com/maki/equiport/internal/middleware"
	"github.com/maki/equiport/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder middleware.SessionFinder
	RateLimiter   *middleware.RateLimiter
	CSRFConfig    middleware.CSRFConfig

	// 画面
	Renderer  *Renderer
	Flashes   FlashServiceInterface
	Prefs     PreferenceStore
	Sessions  SessionDeleter
	Sanitizer Sanitizer

	// サービス
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig
	Refresher   IdentityRefresher

	// 上流APIクライアント（画面別インターフェースをまとめて満たす）
	Catalog   CatalogGateway
	Requests  RequestGateway
	Inventory InventoryGateway

	// 運用
	DB       *sql.DB
	Gatherer prometheus.Gatherer
	Metrics  metrics.MetricsCollector

	Logger *slog.Logger
}

// NewRouter は全画面のルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Session → Logging → CSRF → RateLimit(General)
//
// ログインフォームのPOSTにはログイン専用レート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, logger))
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig, logger))
	r.Use(deps.RateLimiter.GeneralMiddleware())

	views := &viewContext{
		flashes: deps.Flashes,
		prefs:   deps.Prefs,
		logger:  logger,
	}
	upstream := &upstreamErrorHandler{
		flashes:   deps.Flashes,
		sessions:  deps.Sessions,
		sanitizer: deps.Sanitizer,
		logger:    logger,
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Renderer, deps.Sanitizer, deps.AuthConfig, logger)
	dashboardHandler := NewDashboardHandler(deps.Catalog, deps.Refresher, views, upstream, deps.Renderer, logger)
	requestsHandler := NewRequestsHandler(deps.Requests, views, upstream, deps.Renderer, logger)
	adminHandler := NewAdminHandler(deps.Inventory, views, upstream, deps.Renderer, logger)
	themeHandler := NewThemeHandler(deps.Prefs, logger)

	// --- 公開ルート ---

	r.Get("/", authHandler.LoginPage)
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
	r.Get("/register", authHandler.RegisterPage)
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/register", authHandler.Register)

	r.Get("/health", newHealthHandler(deps.DB))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	// --- ログインが必要なルート ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRequireIdentity(logger))

		r.Post("/logout", authHandler.Logout)
		r.Post("/theme", themeHandler.Toggle)

		r.Get("/dashboard", dashboardHandler.Dashboard)
		r.Post("/equipment/{id}/borrow", dashboardHandler.Borrow)

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", requestsHandler.Requests)
			r.Post("/{id}/approve", requestsHandler.Approve)
			r.Post("/{id}/reject", requestsHandler.Reject)
			r.Post("/{id}/return", requestsHandler.Return)
		})

		// --- 管理者のみのルート ---

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.NewRequireRole(model.RoleAdmin, logger))

			r.Get("/", adminHandler.Admin)
			r.Post("/equipment", adminHandler.Add)
			r.Get("/equipment/{id}/edit", adminHandler.EditPage)
			r.Post("/equipment/{id}", adminHandler.Update)
			r.Get("/equipment/{id}/delete", adminHandler.DeleteConfirmPage)
			r.Post("/equipment/{id}/delete", adminHandler.Delete)
		})
	})

	return r
}

// newHealthHandler はヘルスチェックエンドポイントのハンドラーを返す。
// GET /health
// DBへの疎通が取れない場合は503を返す。
func newHealthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK

		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				status = "db unreachable"
				code = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
