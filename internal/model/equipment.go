package model

// 備品の状態区分。バックエンドのconditionStatusが取る値。
const (
	ConditionGood        = "Good"
	ConditionDamaged     = "Damaged"
	ConditionNeedsRepair = "Needs Repair"
)

// Equipment は貸出対象の備品を表す。
// JSONタグはバックエンドAPIのフィールド名（camelCase）に合わせている。
// ライフサイクルは完全にバックエンドが所有し、ポータルは最新スナップショットを
// ミラーするだけで在庫の導出計算（借用時の減算等）は一切行わない。
type Equipment struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	Quantity          int    `json:"quantity"`
	AvailableQuantity int    `json:"availableQuantity"`
	ConditionStatus   string `json:"conditionStatus"`
}

// IsAvailable は貸出可能な在庫が残っているかを返す。
func (e Equipment) IsAvailable() bool {
	return e.AvailableQuantity > 0
}
