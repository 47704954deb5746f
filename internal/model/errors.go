package model

// FieldErrors はフォームのフィールド単位のバリデーションエラー。
// キーはフィールド名、値はユーザーに表示するメッセージ。
type FieldErrors map[string]string

// Has は1件以上のエラーが存在するかを返す。
func (f FieldErrors) Has() bool { return len(f) > 0 }

// Get は指定フィールドのエラーメッセージを返す。存在しない場合は空文字列。
func (f FieldErrors) Get(field string) string { return f[field] }
