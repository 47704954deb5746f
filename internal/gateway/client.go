// Package gateway は貸出バックエンドREST APIの型付きクライアントを提供する。
// すべてのサーバー通信はこのクライアントを経由する。
// リクエストにはセッションごとのベアラートークンをAuthorizationヘッダーに
// そのまま付与する（バックエンドは生のトークン文字列を読む）。
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/maki/equiport/internal/model"
)

// Recorder は上流API呼び出しのメトリクス記録インターフェース。
type Recorder interface {
	RecordUpstreamRequest(operation string, statusCode int, duration time.Duration)
}

// Client は貸出バックエンドAPIのクライアント。
// ベースURLは固定で、1プロセスに1インスタンスを全セッションで共有する。
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	recorder   Recorder // nil可
}

// NewClient はClientの新しいインスタンスを生成する。
// recorderがnilの場合はメトリクスを記録しない。
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger, recorder Recorder) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
		recorder:   recorder,
	}
}

// LoginResult はログインAPIのレスポンス。
type LoginResult struct {
	User  model.Identity `json:"user"`
	Token string         `json:"token"`
}

// RegisterInput はユーザー登録APIのリクエストボディ。
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// --- ユーザー ---

// Register はユーザーを登録する。
// POST /users/register
func (c *Client) Register(ctx context.Context, input RegisterInput) (*model.Identity, error) {
	var user model.Identity
	if err := c.do(ctx, "register", http.MethodPost, "/users/register", "", input, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login は資格情報を検証しユーザーとトークンを取得する。
// POST /users/login
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var result LoginResult
	if err := c.do(ctx, "login", http.MethodPost, "/users/login", "", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetUserByID はユーザーレコードを取得する。ロールの再確認に使う。
// GET /users/{id}
func (c *Client) GetUserByID(ctx context.Context, token string, id int64) (*model.Identity, error) {
	var user model.Identity
	if err := c.do(ctx, "get_user", http.MethodGet, fmt.Sprintf("/users/%d", id), token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout は上流のトークンを無効化する。
// POST /users/logout
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, "logout", http.MethodPost, "/users/logout", token, map[string]string{}, nil)
}

// --- 備品 ---

// ListEquipment は全備品の一覧を取得する。
// GET /equipment
func (c *Client) ListEquipment(ctx context.Context, token string) ([]model.Equipment, error) {
	var list []model.Equipment
	if err := c.do(ctx, "list_equipment", http.MethodGet, "/equipment", token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListAvailableEquipment は貸出可能な備品の一覧を取得する。
// GET /equipment/available
func (c *Client) ListAvailableEquipment(ctx context.Context, token string) ([]model.Equipment, error) {
	var list []model.Equipment
	if err := c.do(ctx, "list_available_equipment", http.MethodGet, "/equipment/available", token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// AddEquipment は備品を新規登録する。
// POST /equipment
func (c *Client) AddEquipment(ctx context.Context, token string, eq model.Equipment) (*model.Equipment, error) {
	var created model.Equipment
	if err := c.do(ctx, "add_equipment", http.MethodPost, "/equipment", token, eq, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateEquipment は備品を更新する。
// PUT /equipment/{id}
func (c *Client) UpdateEquipment(ctx context.Context, token string, id int64, eq model.Equipment) (*model.Equipment, error) {
	var updated model.Equipment
	if err := c.do(ctx, "update_equipment", http.MethodPut, fmt.Sprintf("/equipment/%d", id), token, eq, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteEquipment は備品を削除する。
// 既存の貸出リクエストを持つ備品の削除はバックエンドが拒否する。
// DELETE /equipment/{id}
func (c *Client) DeleteEquipment(ctx context.Context, token string, id int64) error {
	return c.do(ctx, "delete_equipment", http.MethodDelete, fmt.Sprintf("/equipment/%d", id), token, nil, nil)
}

// --- 貸出リクエスト ---

// CreateBorrowRequest は貸出リクエストを作成する。
// 在庫の減算はバックエンドの責務で、ポータルは再取得で間接的に観測する。
// POST /requests
func (c *Client) CreateBorrowRequest(ctx context.Context, token string, userID, equipmentID int64) (*model.BorrowRequest, error) {
	body := map[string]map[string]int64{
		"user":      {"id": userID},
		"equipment": {"id": equipmentID},
	}
	var created model.BorrowRequest
	if err := c.do(ctx, "create_request", http.MethodPost, "/requests", token, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListRequests は全ユーザーの貸出リクエスト一覧を取得する（管理者・職員向け）。
// GET /requests
func (c *Client) ListRequests(ctx context.Context, token string) ([]model.BorrowRequest, error) {
	var list []model.BorrowRequest
	if err := c.do(ctx, "list_requests", http.MethodGet, "/requests", token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListUserRequests は指定ユーザー自身の貸出リクエスト一覧を取得する。
// GET /requests/user/{id}
func (c *Client) ListUserRequests(ctx context.Context, token string, userID int64) ([]model.BorrowRequest, error) {
	var list []model.BorrowRequest
	if err := c.do(ctx, "list_user_requests", http.MethodGet, fmt.Sprintf("/requests/user/%d", userID), token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ApproveRequest はリクエストを承認する。
// PUT /requests/{id}/approve
func (c *Client) ApproveRequest(ctx context.Context, token string, id int64, remarks string) (*model.BorrowRequest, error) {
	var updated model.BorrowRequest
	body := map[string]string{"remarks": remarks}
	if err := c.do(ctx, "approve_request", http.MethodPut, fmt.Sprintf("/requests/%d/approve", id), token, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// RejectRequest はリクエストを却下する。
// PUT /requests/{id}/reject
func (c *Client) RejectRequest(ctx context.Context, token string, id int64, remarks string) (*model.BorrowRequest, error) {
	var updated model.BorrowRequest
	body := map[string]string{"remarks": remarks}
	if err := c.do(ctx, "reject_request", http.MethodPut, fmt.Sprintf("/requests/%d/reject", id), token, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// MarkReturned はリクエストを返却済みにする。
// PUT /requests/{id}/return
func (c *Client) MarkReturned(ctx context.Context, token string, id int64) (*model.BorrowRequest, error) {
	var updated model.BorrowRequest
	if err := c.do(ctx, "mark_returned", http.MethodPut, fmt.Sprintf("/requests/%d/return", id), token, nil, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// upstreamErrorBody は上流のエラーレスポンスボディ。
// エンドポイントにより "error" と "message" のどちらかのキーで返る。
type upstreamErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do は1回のHTTPリクエストを実行し、2xxならoutへJSONデコードする。
// tokenが空でない場合はAuthorizationヘッダーに付与する。
// 401はErrUnauthorizedに、その他の非2xxはUpstreamErrorにマップする。
// タイムアウトは設定しない（http.Client側のTimeoutに従う）。
func (c *Client) do(ctx context.Context, operation, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if c.recorder != nil {
			c.recorder.RecordUpstreamRequest(operation, 0, duration)
		}
		c.logger.Error("貸出APIの呼び出しに失敗しました",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to call lending api: %w", err)
	}
	defer resp.Body.Close()

	if c.recorder != nil {
		c.recorder.RecordUpstreamRequest(operation, resp.StatusCode, duration)
	}

	// 401はセッション破棄のシグナルとして呼び出し元で特別扱いされる
	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("貸出APIが401を返しました", slog.String("operation", operation))
		return fmt.Errorf("%s: %w", operation, ErrUnauthorized)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(operation, resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("貸出APIレスポンスのパースに失敗しました",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// decodeError は非2xxレスポンスからUpstreamErrorを組み立てる。
// ボディの "error" キーを優先し、無ければ "message" キーを使う。
func (c *Client) decodeError(operation string, resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		raw = nil
	}

	var body upstreamErrorBody
	message := ""
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err == nil {
			message = body.Error
			if message == "" {
				message = body.Message
			}
		}
	}

	c.logger.Warn("貸出APIがエラーステータスを返しました",
		slog.String("operation", operation),
		slog.Int("http_status", resp.StatusCode),
		slog.String("message", message),
	)

	return &UpstreamError{StatusCode: resp.StatusCode, Message: message}
}
