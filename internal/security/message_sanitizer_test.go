package security

import (
	"testing"
)

// TestMessageSanitize_RemovesAllTags はタグが一切通過しないことを検証する。
func TestMessageSanitize_RemovesAllTags(t *testing.T) {
	sanitizer := NewMessageSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "プレーンテキストはそのまま通過する",
			input: "Equipment not available",
			want:  "Equipment not available",
		},
		{
			name:  "scriptタグが除去される",
			input: `<script>alert("xss")</script>Equipment not found`,
			want:  "Equipment not found",
		},
		{
			name:  "imgタグのonerrorが除去される",
			input: `<img src=x onerror=alert(1)>Invalid request`,
			want:  "Invalid request",
		},
		{
			name:  "許可リストの広いタグも除去される",
			input: "<p><strong>Cannot delete</strong> equipment</p>",
			want:  "Cannot delete equipment",
		},
		{
			name:  "前後の空白が取り除かれる",
			input: "  Request already processed  ",
			want:  "Request already processed",
		},
		{
			name:  "空文字列は空文字列のまま",
			input: "",
			want:  "",
		},
		{
			name:  "日本語メッセージはそのまま通過する",
			input: "備品が見つかりません",
			want:  "備品が見つかりません",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestMessageSanitize_Idempotent は同一入力に対する出力が安定していることを検証する。
func TestMessageSanitize_Idempotent(t *testing.T) {
	sanitizer := NewMessageSanitizer()

	input := `<b>Insufficient</b> stock`
	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(first)
	if first != second {
		t.Errorf("冪等性が崩れている: 1回目 = %q, 2回目 = %q", first, second)
	}
}
