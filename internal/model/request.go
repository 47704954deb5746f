package model

import "time"

// RequestStatus は貸出リクエストのライフサイクルタグ。
// 遷移（PENDING→APPROVED→RETURNED、PENDING→REJECTED）はバックエンドが正本を持ち、
// ポータルはローカルで状態遷移させず、対応するアクションAPIを呼んで再取得するのみ。
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusApproved RequestStatus = "APPROVED"
	StatusRejected RequestStatus = "REJECTED"
	StatusReturned RequestStatus = "RETURNED"
)

// KnownStatuses はフィルタUIに列挙する既知のステータス一覧。
var KnownStatuses = []RequestStatus{StatusPending, StatusApproved, StatusRejected, StatusReturned}

// UserRef は貸出リクエスト内で参照される申請者の最小表現。
type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EquipmentRef は貸出リクエスト内で参照される備品の最小表現。
type EquipmentRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BorrowRequest は備品の貸出リクエストを表す。
// RequestDateはバックエンド（LocalDateTime）がタイムゾーンなしの文字列を返すため
// 文字列のまま保持し、表示時にFormatRequestDateで整形する。
type BorrowRequest struct {
	ID           int64         `json:"id"`
	User         UserRef       `json:"user"`
	Equipment    EquipmentRef  `json:"equipment"`
	Status       RequestStatus `json:"status"`
	RequestDate  string        `json:"requestDate"`
	AdminRemarks string        `json:"adminRemarks,omitempty"`
}

// requestDateLayouts はバックエンドが返しうる日時フォーマット。
var requestDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339,
}

// FormatRequestDate はRequestDateを表示用（"2006-01-02 15:04"）に整形する。
// 解析できない場合は受け取った文字列をそのまま返す。
func (r BorrowRequest) FormatRequestDate() string {
	for _, layout := range requestDateLayouts {
		if t, err := time.Parse(layout, r.RequestDate); err == nil {
			return t.Format("2006-01-02 15:04")
		}
	}
	return r.RequestDate
}
