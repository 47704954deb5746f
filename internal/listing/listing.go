// Package listing は一覧画面の絞り込みとページ分割を行う純粋関数を提供する。
// データはすべて上流APIから取得済みのスライスで、絞り込みはメモリ上で行う。
package listing

import (
	"strings"

	"github.com/maki/equiport/internal/model"
)

// PerPage は一覧画面の1ページあたりの表示件数。
const PerPage = 6

// AvailabilityFilter は在庫の絞り込み条件。
type AvailabilityFilter string

const (
	AvailabilityAll        AvailabilityFilter = "ALL"
	AvailabilityInStock    AvailabilityFilter = "IN_STOCK"
	AvailabilityOutOfStock AvailabilityFilter = "OUT_OF_STOCK"
)

// ParseAvailability は文字列をAvailabilityFilterに変換する。
// 未知の値はALLとして扱う。
func ParseAvailability(s string) AvailabilityFilter {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(AvailabilityInStock):
		return AvailabilityInStock
	case string(AvailabilityOutOfStock):
		return AvailabilityOutOfStock
	default:
		return AvailabilityAll
	}
}

// EquipmentFilter は備品一覧の絞り込み条件。すべての条件をAND適用する。
type EquipmentFilter struct {
	Query        string
	Category     string
	Availability AvailabilityFilter
}

// FilterEquipment は備品一覧を条件で絞り込む。
// Queryは名前に対する部分一致（大文字小文字を区別しない）。
// Categoryは完全一致で、空文字列は全カテゴリを意味する。
func FilterEquipment(items []model.Equipment, f EquipmentFilter) []model.Equipment {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	var result []model.Equipment
	for _, eq := range items {
		if query != "" && !strings.Contains(strings.ToLower(eq.Name), query) {
			continue
		}
		if f.Category != "" && eq.Category != f.Category {
			continue
		}
		switch f.Availability {
		case AvailabilityInStock:
			if eq.AvailableQuantity <= 0 {
				continue
			}
		case AvailabilityOutOfStock:
			if eq.AvailableQuantity > 0 {
				continue
			}
		}
		result = append(result, eq)
	}
	return result
}

// FilterInventory は管理画面の検索用に備品一覧を絞り込む。
// Queryは名前とカテゴリの両方に対する部分一致（大文字小文字を区別しない）で、
// どちらかに一致すれば残す。
func FilterInventory(items []model.Equipment, query string) []model.Equipment {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}

	var result []model.Equipment
	for _, eq := range items {
		name := strings.ToLower(eq.Name)
		category := strings.ToLower(eq.Category)
		if !strings.Contains(name, query) && !strings.Contains(category, query) {
			continue
		}
		result = append(result, eq)
	}
	return result
}

// Categories は備品一覧から重複を除いたカテゴリ名を出現順で返す。
func Categories(items []model.Equipment) []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, eq := range items {
		if eq.Category == "" {
			continue
		}
		if _, ok := seen[eq.Category]; ok {
			continue
		}
		seen[eq.Category] = struct{}{}
		categories = append(categories, eq.Category)
	}
	return categories
}

// RequestFilter は貸出リクエスト一覧の絞り込み条件。
type RequestFilter struct {
	Query  string
	Status string
}

// FilterRequests は貸出リクエスト一覧を条件で絞り込む。
// Queryは申請者名と備品名の両方に対する部分一致で、どちらかに一致すれば残す。
// Statusは完全一致で、空文字列と"ALL"は全ステータスを意味する。
func FilterRequests(items []model.BorrowRequest, f RequestFilter) []model.BorrowRequest {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	status := strings.ToUpper(strings.TrimSpace(f.Status))

	var result []model.BorrowRequest
	for _, req := range items {
		if query != "" {
			userName := strings.ToLower(req.User.Name)
			equipmentName := strings.ToLower(req.Equipment.Name)
			if !strings.Contains(userName, query) && !strings.Contains(equipmentName, query) {
				continue
			}
		}
		if status != "" && status != "ALL" && string(req.Status) != status {
			continue
		}
		result = append(result, req)
	}
	return result
}

// Page は1ページ分の切り出し結果。
type Page[T any] struct {
	Items      []T
	Number     int // 1始まり
	TotalPages int
	TotalItems int
}

// HasPrev は前のページが存在するかを返す。
func (p Page[T]) HasPrev() bool { return p.Number > 1 }

// HasNext は次のページが存在するかを返す。
func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }

// Prev は前のページ番号を返す。
func (p Page[T]) Prev() int { return p.Number - 1 }

// Next は次のページ番号を返す。
func (p Page[T]) Next() int { return p.Number + 1 }

// Paginate は一覧から指定ページを切り出す。
// ページ番号は1始まりで、範囲外の指定は有効範囲にクランプする。
// 空の一覧は1ページ目（0件）として返す。
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage < 1 {
		perPage = PerPage
	}

	total := len(items)
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page[T]{
		Items:      items[start:end],
		Number:     page,
		TotalPages: totalPages,
		TotalItems: total,
	}
}
