package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/maki/equiport/internal/authz"
	"github.com/maki/equiport/internal/flash"
	"github.com/maki/equiport/internal/listing"
	"github.com/maki/equiport/internal/middleware"
	"github.com/maki/equiport/internal/model"
)

// 承認・却下時に上流へ送る固定の備考。
const (
	approveRemarks = "Approved by admin"
	rejectRemarks  = "Rejected by admin"
)

// RequestGateway は貸出リクエスト画面が必要とする上流API操作のインターフェース。
type RequestGateway interface {
	ListRequests(ctx context.Context, token string) ([]model.BorrowRequest, error)
	ListUserRequests(ctx context.Context, token string, userID int64) ([]model.BorrowRequest, error)
	ApproveRequest(ctx context.Context, token string, id int64, remarks string) (*model.BorrowRequest, error)
	RejectRequest(ctx context.Context, token string, id int64, remarks string) (*model.BorrowRequest, error)
	MarkReturned(ctx context.Context, token string, id int64) (*model.BorrowRequest, error)
}

// RequestsHandler は貸出リクエスト画面のHTTPハンドラー。
type RequestsHandler struct {
	gw       RequestGateway
	views    *viewContext
	upstream *upstreamErrorHandler
	renderer *Renderer
	logger   *slog.Logger
}

// NewRequestsHandler はRequestsHandlerを生成する。
func NewRequestsHandler(gw RequestGateway, views *viewContext, upstream *upstreamErrorHandler, renderer *Renderer, logger *slog.Logger) *RequestsHandler {
	return &RequestsHandler{
		gw:       gw,
		views:    views,
		upstream: upstream,
		renderer: renderer,
		logger:   logger,
	}
}

// requestsView は貸出リクエスト画面のテンプレートデータ。
type requestsView struct {
	Page     requestPage
	Query    string
	Status   string
	Statuses []model.RequestStatus
	SeesAll  bool
}

// Requests は貸出リクエスト一覧を表示する。
// GET /requests
// 管理者・職員は全件、学生は自分の分のみを取得する。
// クエリパラメータ: q（申請者名・備品名検索）、status、page
func (h *RequestsHandler) Requests(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	identity := &session.Identity

	var (
		items []model.BorrowRequest
		err   error
	)
	if authz.SeesAllRequests(identity) {
		items, err = h.gw.ListRequests(r.Context(), session.Token)
	} else {
		items, err = h.gw.ListUserRequests(r.Context(), session.Token, identity.ID)
	}
	if err != nil {
		h.upstream.handle(w, r, err, "/dashboard")
		return
	}

	query := r.URL.Query().Get("q")
	status := r.URL.Query().Get("status")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	filtered := listing.FilterRequests(items, listing.RequestFilter{
		Query:  query,
		Status: status,
	})

	rows := make([]requestRow, 0, len(filtered))
	for _, req := range filtered {
		rows = append(rows, requestRow{
			Request:       req,
			CanReview:     authz.CanReview(identity, req.Status),
			CanMarkReturn: authz.CanMarkReturned(identity, req.User.ID, req.Status),
		})
	}

	view := requestsView{
		Page:     listing.Paginate(rows, page, listing.PerPage),
		Query:    query,
		Status:   status,
		Statuses: model.KnownStatuses,
		SeesAll:  authz.SeesAllRequests(identity),
	}

	h.renderer.Render(w, http.StatusOK, "requests.html", h.views.pageData(r, "貸出リクエスト", view))
}

// Approve はリクエストの承認を処理する。
// POST /requests/{id}/approve
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "承認しました", func(ctx context.Context, token string, id int64) (*model.BorrowRequest, error) {
		return h.gw.ApproveRequest(ctx, token, id, approveRemarks)
	})
}

// Reject はリクエストの却下を処理する。
// POST /requests/{id}/reject
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "却下しました", func(ctx context.Context, token string, id int64) (*model.BorrowRequest, error) {
		return h.gw.RejectRequest(ctx, token, id, rejectRemarks)
	})
}

// review は承認・却下の共通処理。審査権限の無いユーザーは一覧へ送り返す。
// 対象の現在ステータスの検証は上流が行い、エラーはフラッシュで表示する。
func (h *RequestsHandler) review(w http.ResponseWriter, r *http.Request, done string, op func(ctx context.Context, token string, id int64) (*model.BorrowRequest, error)) {
	session := middleware.SessionFromContext(r.Context())

	if !authz.SeesAllRequests(&session.Identity) {
		http.Redirect(w, r, "/requests", http.StatusSeeOther)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	updated, err := op(r.Context(), session.Token, id)
	if err != nil {
		h.upstream.handle(w, r, err, "/requests")
		return
	}

	if err := h.views.flashes.Push(r.Context(), session.ID, flash.LevelSuccess,
		updated.Equipment.Name+" のリクエストを"+done); err != nil {
		h.logger.Error("フラッシュメッセージの追加に失敗しました", slog.String("error", err.Error()))
	}

	http.Redirect(w, r, "/requests", http.StatusSeeOther)
}

// Return は備品の返却を処理する。
// POST /requests/{id}/return
// 返却は申請者本人が、承認済みのリクエストに対してのみ実行できる。
// 一覧に出す判定（authz.CanMarkReturned）と同じ関数で受付側も検証し、
// 他人のリクエストや未承認のリクエストへのPOSTは上流に転送しない。
func (h *RequestsHandler) Return(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	identity := &session.Identity

	if authz.IsAdmin(identity) {
		http.Redirect(w, r, "/requests", http.StatusSeeOther)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	items, err := h.gw.ListUserRequests(r.Context(), session.Token, identity.ID)
	if err != nil {
		h.upstream.handle(w, r, err, "/requests")
		return
	}

	var target *model.BorrowRequest
	for i := range items {
		if items[i].ID == id {
			target = &items[i]
			break
		}
	}
	if target == nil || !authz.CanMarkReturned(identity, target.User.ID, target.Status) {
		http.Redirect(w, r, "/requests", http.StatusSeeOther)
		return
	}

	updated, err := h.gw.MarkReturned(r.Context(), session.Token, id)
	if err != nil {
		h.upstream.handle(w, r, err, "/requests")
		return
	}

	if err := h.views.flashes.Push(r.Context(), session.ID, flash.LevelSuccess,
		updated.Equipment.Name+" を返却しました"); err != nil {
		h.logger.Error("フラッシュメッセージの追加に失敗しました", slog.String("error", err.Error()))
	}

	http.Redirect(w, r, "/requests", http.StatusSeeOther)
}
