// Package inventory は管理画面の備品フォーム検証と在庫サマリーを提供する。
// 備品データ自体の永続化は上流APIの責務で、ここでは送信前の入力検証のみを行う。
package inventory

import (
	"strconv"
	"strings"

	"github.com/maki/equiport/internal/model"
)

// Form は備品フォームの生の入力値。
type Form struct {
	Name              string
	Category          string
	Quantity          string
	AvailableQuantity string
	ConditionStatus   string
}

// Validate はフォームを検証し、問題なければEquipmentを組み立てる。
// 検証に失敗した場合はフィールド名をキーとするエラーマップを返す。
func (f Form) Validate() (*model.Equipment, model.FieldErrors) {
	errs := model.FieldErrors{}

	name := strings.TrimSpace(f.Name)
	if name == "" {
		errs["name"] = "備品名を入力してください"
	}

	category := strings.TrimSpace(f.Category)
	if category == "" {
		errs["category"] = "カテゴリを入力してください"
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(f.Quantity))
	if err != nil {
		errs["quantity"] = "総数は整数で入力してください"
	} else if quantity < 1 {
		errs["quantity"] = "総数は1以上で入力してください"
	}

	available, err := strconv.Atoi(strings.TrimSpace(f.AvailableQuantity))
	if err != nil {
		errs["availableQuantity"] = "貸出可能数は整数で入力してください"
	} else if available < 0 {
		errs["availableQuantity"] = "貸出可能数は0以上で入力してください"
	} else if _, qErr := strconv.Atoi(strings.TrimSpace(f.Quantity)); qErr == nil && available > quantity {
		errs["availableQuantity"] = "貸出可能数は総数を超えられません"
	}

	condition := strings.TrimSpace(f.ConditionStatus)
	switch condition {
	case model.ConditionGood, model.ConditionDamaged, model.ConditionNeedsRepair:
	case "":
		condition = model.ConditionGood
	default:
		errs["conditionStatus"] = "状態の値が不正です"
	}

	if errs.Has() {
		return nil, errs
	}

	return &model.Equipment{
		Name:              name,
		Category:          category,
		Quantity:          quantity,
		AvailableQuantity: available,
		ConditionStatus:   condition,
	}, nil
}

// Summary は管理画面に表示する在庫の集計値。
type Summary struct {
	TotalItems     int // 備品の種類数
	TotalAvailable int // 貸出可能数の合計
	LowStockCount  int // 貸出可能数が2未満の種類数
}

// Summarize は備品一覧から在庫サマリーを計算する。
func Summarize(items []model.Equipment) Summary {
	s := Summary{TotalItems: len(items)}
	for _, eq := range items {
		s.TotalAvailable += eq.AvailableQuantity
		if eq.AvailableQuantity < 2 {
			s.LowStockCount++
		}
	}
	return s
}
