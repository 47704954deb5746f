// Package authz は画面表示と操作受付の両方で共有する認可ルールを定義する。
// ルート保護のミドルウェアと各行のアクションボタン表示が
// 同じ関数を参照することで、表示と受付の判定ずれを防ぐ。
package authz

import "github.com/maki/equiport/internal/model"

// IsAdmin は管理者ロールかどうかを判定する。
func IsAdmin(identity *model.Identity) bool {
	return identity.HasRole(model.RoleAdmin)
}

// CanManageInventory は備品の登録・更新・削除を行えるかを判定する。
// 在庫管理は管理者のみ。
func CanManageInventory(identity *model.Identity) bool {
	return identity.HasRole(model.RoleAdmin)
}

// SeesAllRequests は全ユーザーの貸出リクエストを閲覧できるかを判定する。
// 管理者と職員は全件、学生は自分の分のみ。
func SeesAllRequests(identity *model.Identity) bool {
	return identity.HasRole(model.RoleAdmin) || identity.HasRole(model.RoleStaff)
}

// CanReview は承認・却下の操作を行えるかを判定する。
// 管理者または職員が、審査待ちのリクエストに対してのみ実行できる。
func CanReview(identity *model.Identity, status model.RequestStatus) bool {
	if !identity.HasRole(model.RoleAdmin) && !identity.HasRole(model.RoleStaff) {
		return false
	}
	return status == model.StatusPending
}

// CanMarkReturned は返却済みへの変更を行えるかを判定する。
// 申請者本人（管理者ロールを除く）が、承認済みのリクエストに対してのみ実行できる。
func CanMarkReturned(identity *model.Identity, requesterID int64, status model.RequestStatus) bool {
	if identity == nil {
		return false
	}
	if identity.HasRole(model.RoleAdmin) {
		return false
	}
	if identity.ID != requesterID {
		return false
	}
	return status == model.StatusApproved
}
