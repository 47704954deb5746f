package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/maki/equiport/internal/flash"
	"github.com/maki/equiport/internal/inventory"
	"github.com/maki/equiport/internal/listing"
	"github.com/maki/equiport/internal/middleware"
	"github.com/maki/equiport/internal/model"
)

// InventoryGateway は管理画面が必要とする上流API操作のインターフェース。
type InventoryGateway interface {
	ListEquipment(ctx context.Context, token string) ([]model.Equipment, error)
	AddEquipment(ctx context.Context, token string, eq model.Equipment) (*model.Equipment, error)
	UpdateEquipment(ctx context.Context, token string, id int64, eq model.Equipment) (*model.Equipment, error)
	DeleteEquipment(ctx context.Context, token string, id int64) error
}

// AdminHandler は備品管理画面のHTTPハンドラー。
// ルーティング側でRequireRole(ADMIN)を通した後に到達する。
type AdminHandler struct {
	gw       InventoryGateway
	views    *viewContext
	upstream *upstreamErrorHandler
	renderer *Renderer
	logger   *slog.Logger
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(gw InventoryGateway, views *viewContext, upstream *upstreamErrorHandler, renderer *Renderer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		gw:       gw,
		views:    views,
		upstream: upstream,
		renderer: renderer,
		logger:   logger,
	}
}

// adminView は管理画面のテンプレートデータ。
type adminView struct {
	Page       equipmentPage
	Summary    inventory.Summary
	Query      string
	Form       inventory.Form
	FieldErrs  model.FieldErrors
	Conditions []string
}

// conditions は備品フォームの状態セレクトの選択肢。
var conditions = []string{model.ConditionGood, model.ConditionDamaged, model.ConditionNeedsRepair}

// Admin は備品管理画面を表示する。
// GET /admin
// クエリパラメータ: q（名前検索）、page
func (h *AdminHandler) Admin(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	items, err := h.gw.ListEquipment(r.Context(), session.Token)
	if err != nil {
		h.upstream.handle(w, r, err, "/dashboard")
		return
	}

	query := r.URL.Query().Get("q")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	filtered := listing.FilterInventory(items, query)

	view := adminView{
		Page:       listing.Paginate(filtered, page, listing.PerPage),
		Summary:    inventory.Summarize(items),
		Query:      query,
		Conditions: conditions,
	}

	h.renderer.Render(w, http.StatusOK, "admin.html", h.views.pageData(r, "備品管理", view))
}

// Add は備品の新規登録を処理する。
// POST /admin/equipment
// 検証に失敗した場合は入力値とエラーを保持したまま管理画面を再表示する。
func (h *AdminHandler) Add(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	form := equipmentFormFromRequest(r)
	eq, fieldErrs := form.Validate()
	if fieldErrs.Has() {
		items, err := h.gw.ListEquipment(r.Context(), session.Token)
		if err != nil {
			h.upstream.handle(w, r, err, "/dashboard")
			return
		}
		view := adminView{
			Page:       listing.Paginate(items, 1, listing.PerPage),
			Summary:    inventory.Summarize(items),
			Form:       form,
			FieldErrs:  fieldErrs,
			Conditions: conditions,
		}
		h.renderer.Render(w, http.StatusUnprocessableEntity, "admin.html", h.views.pageData(r, "備品管理", view))
		return
	}

	created, err := h.gw.AddEquipment(r.Context(), session.Token, *eq)
	if err != nil {
		h.upstream.handle(w, r, err, "/admin")
		return
	}

	if err := h.views.flashes.Push(r.Context(), session.ID, flash.LevelSuccess,
		created.Name+" を登録しました"); err != nil {
		h.logger.Error("フラッシュメッセージの追加に失敗しました", slog.String("error", err.Error()))
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// editView は備品編集画面のテンプレートデータ。
type editView struct {
	ID         int64
	Form       inventory.Form
	FieldErrs  model.FieldErrors
	Conditions []string
}

// EditPage は備品編集画面を表示する。
// GET /admin/equipment/{id}/edit
func (h *AdminHandler) EditPage(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	eq, ok := h.findEquipment(w, r, session)
	if !ok {
		return
	}

	view := editView{
		ID: eq.ID,
		Form: inventory.Form{
			Name:              eq.Name,
			Category:          eq.Category,
			Quantity:          strconv.Itoa(eq.Quantity),
			AvailableQuantity: strconv.Itoa(eq.AvailableQuantity),
			ConditionStatus:   eq.ConditionStatus,
		},
		Conditions: conditions,
	}

	h.renderer.Render(w, http.StatusOK, "equipment_edit.html", h.views.pageData(r, "備品の編集", view))
}

// Update は備品の更新を処理する。
// POST /admin/equipment/{id}
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	form := equipmentFormFromRequest(r)
	eq, fieldErrs := form.Validate()
	if fieldErrs.Has() {
		view := editView{ID: id, Form: form, FieldErrs: fieldErrs, Conditions: conditions}
		h.renderer.Render(w, http.StatusUnprocessableEntity, "equipment_edit.html", h.views.pageData(r, "備品の編集", view))
		return
	}

	updated, err := h.gw.UpdateEquipment(r.Context(), session.Token, id, *eq)
	if err != nil {
		h.upstream.handle(w, r, err, "/admin")
		return
	}

	if err := h.views.flashes.Push(r.Context(), session.ID, flash.LevelSuccess,
		updated.Name+" を更新しました"); err != nil {
		h.logger.Error("フラッシュメッセージの追加に失敗しました", slog.String("error", err.Error()))
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// deleteView は削除確認画面のテンプレートデータ。
type deleteView struct {
	Equipment model.Equipment
}

// DeleteConfirmPage は備品の削除確認画面を表示する。
// GET /admin/equipment/{id}/delete
func (h *AdminHandler) DeleteConfirmPage(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	eq, ok := h.findEquipment(w, r, session)
	if !ok {
		return
	}

	h.renderer.Render(w, http.StatusOK, "equipment_delete.html",
		h.views.pageData(r, "備品の削除", deleteView{Equipment: *eq}))
}

// Delete は備品の削除を処理する。
// POST /admin/equipment/{id}/delete
// 貸出履歴のある備品は上流が拒否し、その文言をフラッシュで表示する。
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if err := h.gw.DeleteEquipment(r.Context(), session.Token, id); err != nil {
		h.upstream.handle(w, r, err, "/admin")
		return
	}

	if err := h.views.flashes.Push(r.Context(), session.ID, flash.LevelSuccess,
		"備品を削除しました"); err != nil {
		h.logger.Error("フラッシュメッセージの追加に失敗しました", slog.String("error", err.Error()))
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// findEquipment はパスの{id}に対応する備品を一覧から探す。
// 上流に単品取得が無いため一覧から引き当てる。見つからない場合は404を書き込みfalseを返す。
func (h *AdminHandler) findEquipment(w http.ResponseWriter, r *http.Request, session *model.Session) (*model.Equipment, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return nil, false
	}

	items, err := h.gw.ListEquipment(r.Context(), session.Token)
	if err != nil {
		h.upstream.handle(w, r, err, "/admin")
		return nil, false
	}

	for i := range items {
		if items[i].ID == id {
			return &items[i], true
		}
	}

	http.Error(w, "not found", http.StatusNotFound)
	return nil, false
}

// equipmentFormFromRequest はPOSTボディから備品フォームを組み立てる。
func equipmentFormFromRequest(r *http.Request) inventory.Form {
	return inventory.Form{
		Name:              r.PostFormValue("name"),
		Category:          r.PostFormValue("category"),
		Quantity:          r.PostFormValue("quantity"),
		AvailableQuantity: r.PostFormValue("availableQuantity"),
		ConditionStatus:   r.PostFormValue("conditionStatus"),
	}
}
