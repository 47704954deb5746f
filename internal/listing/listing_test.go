package listing

import (
	"testing"

	"github.com/maki/equiport/internal/model"
)

func sampleEquipment() []model.Equipment {
	return []model.Equipment{
		{ID: 1, Name: "Projector", Category: "Electronics", Quantity: 5, AvailableQuantity: 3},
		{ID: 2, Name: "Basketball", Category: "Sports", Quantity: 10, AvailableQuantity: 0},
		{ID: 3, Name: "HDMI Projector Cable", Category: "Electronics", Quantity: 8, AvailableQuantity: 8},
		{ID: 4, Name: "Microscope", Category: "Lab", Quantity: 2, AvailableQuantity: 1},
	}
}

func TestFilterEquipment_ByQuery(t *testing.T) {
	// 名前の部分一致は大文字小文字を区別しない
	got := FilterEquipment(sampleEquipment(), EquipmentFilter{Query: "projector"})
	if len(got) != 2 {
		t.Fatalf("件数 = %d, want 2", len(got))
	}
	if got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("ID = %d, %d, want 1, 3", got[0].ID, got[1].ID)
	}
}

func TestFilterEquipment_ByCategory(t *testing.T) {
	got := FilterEquipment(sampleEquipment(), EquipmentFilter{Category: "Sports"})
	if len(got) != 1 {
		t.Fatalf("件数 = %d, want 1", len(got))
	}
	if got[0].Name != "Basketball" {
		t.Errorf("Name = %q, want %q", got[0].Name, "Basketball")
	}
}

func TestFilterEquipment_ByAvailability(t *testing.T) {
	inStock := FilterEquipment(sampleEquipment(), EquipmentFilter{Availability: AvailabilityInStock})
	if len(inStock) != 3 {
		t.Errorf("在庫あり件数 = %d, want 3", len(inStock))
	}

	outOfStock := FilterEquipment(sampleEquipment(), EquipmentFilter{Availability: AvailabilityOutOfStock})
	if len(outOfStock) != 1 {
		t.Fatalf("在庫なし件数 = %d, want 1", len(outOfStock))
	}
	if outOfStock[0].Name != "Basketball" {
		t.Errorf("Name = %q, want %q", outOfStock[0].Name, "Basketball")
	}
}

func TestFilterEquipment_CombinedConditions(t *testing.T) {
	// 全条件のAND適用
	got := FilterEquipment(sampleEquipment(), EquipmentFilter{
		Query:        "projector",
		Category:     "Electronics",
		Availability: AvailabilityInStock,
	})
	if len(got) != 2 {
		t.Errorf("件数 = %d, want 2", len(got))
	}
}

func TestFilterEquipment_NoMatch(t *testing.T) {
	got := FilterEquipment(sampleEquipment(), EquipmentFilter{Query: "telescope"})
	if len(got) != 0 {
		t.Errorf("件数 = %d, want 0", len(got))
	}
}

func TestFilterInventory_MatchesNameOrCategory(t *testing.T) {
	// 名前での一致
	byName := FilterInventory(sampleEquipment(), "basket")
	if len(byName) != 1 || byName[0].Name != "Basketball" {
		t.Errorf("名前一致の結果 = %v", byName)
	}

	// カテゴリでの一致
	byCategory := FilterInventory(sampleEquipment(), "electronics")
	if len(byCategory) != 2 {
		t.Errorf("カテゴリ一致の件数 = %d, want 2", len(byCategory))
	}

	// 空クエリは全件
	if got := FilterInventory(sampleEquipment(), "  "); len(got) != 4 {
		t.Errorf("空クエリの件数 = %d, want 4", len(got))
	}
}

func TestParseAvailability(t *testing.T) {
	tests := []struct {
		in   string
		want AvailabilityFilter
	}{
		{"IN_STOCK", AvailabilityInStock},
		{"in_stock", AvailabilityInStock},
		{"OUT_OF_STOCK", AvailabilityOutOfStock},
		{"ALL", AvailabilityAll},
		{"", AvailabilityAll},
		{"garbage", AvailabilityAll},
	}
	for _, tt := range tests {
		if got := ParseAvailability(tt.in); got != tt.want {
			t.Errorf("ParseAvailability(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCategories_DeduplicatesInOrder(t *testing.T) {
	got := Categories(sampleEquipment())
	want := []string{"Electronics", "Sports", "Lab"}
	if len(got) != len(want) {
		t.Fatalf("カテゴリ数 = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("categories[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func sampleRequests() []model.BorrowRequest {
	return []model.BorrowRequest{
		{ID: 1, User: model.UserRef{ID: 7, Name: "Taro Yamada"}, Equipment: model.EquipmentRef{ID: 1, Name: "Projector"}, Status: model.StatusPending},
		{ID: 2, User: model.UserRef{ID: 8, Name: "Hanako Sato"}, Equipment: model.EquipmentRef{ID: 2, Name: "Basketball"}, Status: model.StatusApproved},
		{ID: 3, User: model.UserRef{ID: 7, Name: "Taro Yamada"}, Equipment: model.EquipmentRef{ID: 4, Name: "Microscope"}, Status: model.StatusReturned},
	}
}

func TestFilterRequests_QueryMatchesUserOrEquipment(t *testing.T) {
	// 申請者名での一致
	byUser := FilterRequests(sampleRequests(), RequestFilter{Query: "taro"})
	if len(byUser) != 2 {
		t.Errorf("申請者名一致の件数 = %d, want 2", len(byUser))
	}

	// 備品名での一致
	byEquipment := FilterRequests(sampleRequests(), RequestFilter{Query: "basket"})
	if len(byEquipment) != 1 {
		t.Errorf("備品名一致の件数 = %d, want 1", len(byEquipment))
	}
}

func TestFilterRequests_ByStatus(t *testing.T) {
	got := FilterRequests(sampleRequests(), RequestFilter{Status: "APPROVED"})
	if len(got) != 1 {
		t.Fatalf("件数 = %d, want 1", len(got))
	}
	if got[0].ID != 2 {
		t.Errorf("ID = %d, want 2", got[0].ID)
	}
}

func TestFilterRequests_StatusAllKeepsEverything(t *testing.T) {
	if got := FilterRequests(sampleRequests(), RequestFilter{Status: "ALL"}); len(got) != 3 {
		t.Errorf("件数 = %d, want 3", len(got))
	}
	if got := FilterRequests(sampleRequests(), RequestFilter{}); len(got) != 3 {
		t.Errorf("空条件の件数 = %d, want 3", len(got))
	}
}

func TestPaginate_SplitsByPerPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}

	page1 := Paginate(items, 1, 6)
	if len(page1.Items) != 6 {
		t.Errorf("1ページ目の件数 = %d, want 6", len(page1.Items))
	}
	if page1.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", page1.TotalPages)
	}
	if page1.HasPrev() {
		t.Error("1ページ目にHasPrevがtrueになった")
	}
	if !page1.HasNext() {
		t.Error("1ページ目にHasNextがfalseになった")
	}

	page2 := Paginate(items, 2, 6)
	if len(page2.Items) != 2 {
		t.Errorf("2ページ目の件数 = %d, want 2", len(page2.Items))
	}
	if page2.Items[0] != 7 {
		t.Errorf("2ページ目の先頭 = %d, want 7", page2.Items[0])
	}
	if page2.HasNext() {
		t.Error("最終ページにHasNextがtrueになった")
	}
}

func TestPaginate_ClampsOutOfRangePage(t *testing.T) {
	items := []int{1, 2, 3}

	// 範囲を超えるページ番号は最終ページにクランプ
	over := Paginate(items, 99, 6)
	if over.Number != 1 {
		t.Errorf("Number = %d, want 1", over.Number)
	}
	if len(over.Items) != 3 {
		t.Errorf("件数 = %d, want 3", len(over.Items))
	}

	// 0以下は1ページ目にクランプ
	under := Paginate(items, 0, 6)
	if under.Number != 1 {
		t.Errorf("Number = %d, want 1", under.Number)
	}
}

func TestPaginate_EmptyList(t *testing.T) {
	page := Paginate([]int{}, 1, 6)
	if page.Number != 1 {
		t.Errorf("Number = %d, want 1", page.Number)
	}
	if page.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1", page.TotalPages)
	}
	if len(page.Items) != 0 {
		t.Errorf("件数 = %d, want 0", len(page.Items))
	}
}
