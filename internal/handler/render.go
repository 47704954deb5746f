package handler

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/maki/equiport/internal/listing"
	"github.com/maki/equiport/internal/model"
)

//go:embed templates
var templatesFS embed.FS

// pageNames はレイアウトと組み合わせて描画するページテンプレートの一覧。
var pageNames = []string{
	"login.html",
	"register.html",
	"dashboard.html",
	"requests.html",
	"admin.html",
	"equipment_edit.html",
	"equipment_delete.html",
}

// PageData は全ページ共通のテンプレートデータ。
// 各ページ固有のデータはDataに載せる。
type PageData struct {
	Title     string
	Identity  *model.Identity
	Theme     string
	Flashes   []model.FlashMessage
	CSRFToken string
	Data      any
}

// Renderer はレイアウト付きHTMLテンプレートを描画する。
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewRenderer は埋め込みテンプレートをパースしてRendererを生成する。
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"statusLabel": statusLabel,
		"pageRange":   pageRange,
	}

	templates := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(
			templatesFS,
			"templates/layout.html",
			"templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		logger:    logger,
	}, nil
}

// Render はページを描画する。テンプレート実行に失敗した場合は500を返す。
func (re *Renderer) Render(w http.ResponseWriter, status int, name string, data PageData) {
	t, ok := re.templates[name]
	if !ok {
		re.logger.Error("未知のテンプレートが指定されました", slog.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout.html", data); err != nil {
		re.logger.Error("テンプレートの描画に失敗しました",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
	}
}

// statusLabel は貸出リクエストのステータスを表示用ラベルに変換する。
// 返却済みは完了として表示する。
func statusLabel(status model.RequestStatus) string {
	switch status {
	case model.StatusPending:
		return "Pending"
	case model.StatusApproved:
		return "Approved"
	case model.StatusRejected:
		return "Rejected"
	case model.StatusReturned:
		return "Completed"
	default:
		return string(status)
	}
}

// pageRange はページネーションリンク用に1からTotalPagesまでの番号を返す。
func pageRange(totalPages int) []int {
	pages := make([]int, 0, totalPages)
	for i := 1; i <= totalPages; i++ {
		pages = append(pages, i)
	}
	return pages
}

// equipmentPage と requestPage はテンプレートから型引数を隠すための別名。
type equipmentPage = listing.Page[model.Equipment]
type requestPage = listing.Page[requestRow]

// requestRow は貸出リクエスト一覧の1行分の表示データ。
// 操作ボタンの表示可否を事前に計算して持つ。
type requestRow struct {
	Request       model.BorrowRequest
	CanReview     bool
	CanMarkReturn bool
}
