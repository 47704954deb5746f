package gateway

import (
	"errors"
	"fmt"
)

// ErrUnauthorized は上流が401を返したことを示すセンチネルエラー。
// ハンドラ層はこのエラーを検知したらセッションを破棄してログイン画面へ誘導する。
var ErrUnauthorized = errors.New("upstream returned 401 unauthorized")

// UpstreamError は上流が2xx以外（401を除く）を返した場合のエラー。
// Messageには上流のレスポンスボディ（{"error":...} または {"message":...}）の
// 文言をそのまま保持する。表示側がバナーにverbatimで流す。
type UpstreamError struct {
	StatusCode int
	Message    string
}

// Error はerrorインターフェースを実装する。
func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
}

// AsUpstreamError はエラーチェーンからUpstreamErrorを取り出す。
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
