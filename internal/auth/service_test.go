package auth

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/maki/equiport/internal/gateway"
	"github.com/maki/equiport/internal/model"
	"github.com/maki/equiport/internal/repository"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// --- モック定義 ---

type mockGateway struct {
	loginFn       func(ctx context.Context, email, password string) (*gateway.LoginResult, error)
	registerFn    func(ctx context.Context, input gateway.RegisterInput) (*model.Identity, error)
	logoutFn      func(ctx context.Context, token string) error
	getUserByIDFn func(ctx context.Context, token string, id int64) (*model.Identity, error)
}

func (m *mockGateway) Login(ctx context.Context, email, password string) (*gateway.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil
}

func (m *mockGateway) Register(ctx context.Context, input gateway.RegisterInput) (*model.Identity, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, input)
	}
	return nil, nil
}

func (m *mockGateway) Logout(ctx context.Context, token string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return nil
}

func (m *mockGateway) GetUserByID(ctx context.Context, token string, id int64) (*model.Identity, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(ctx, token, id)
	}
	return nil, nil
}

type mockSessionRepo struct {
	createFn         func(ctx context.Context, session *model.Session) error
	findByIDFn       func(ctx context.Context, id string) (*model.Session, error)
	updateIdentityFn func(ctx context.Context, sessionID string, identity model.Identity) error
	deleteByIDFn     func(ctx context.Context, id string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) UpdateIdentity(ctx context.Context, sessionID string, identity model.Identity) error {
	if m.updateIdentityFn != nil {
		return m.updateIdentityFn(ctx, sessionID, identity)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

// --- compile-time interface checks ---
var _ Gateway = (*mockGateway)(nil)
var _ repository.SessionRepository = (*mockSessionRepo)(nil)

// --- テスト ---

func TestLogin_CreatesSessionWithToken(t *testing.T) {
	gw := &mockGateway{
		loginFn: func(ctx context.Context, email, password string) (*gateway.LoginResult, error) {
			if email != "taro@example.com" {
				t.Errorf("email = %q, want 正規化済みアドレス", email)
			}
			return &gateway.LoginResult{
				User:  model.Identity{ID: 7, Name: "Taro", Email: email, Role: "STUDENT"},
				Token: "tok-xyz",
			}, nil
		},
	}

	var created *model.Session
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			created = session
			return nil
		},
	}

	var buf bytes.Buffer
	svc := NewService(gw, sessionRepo, ServiceConfig{SessionMaxAge: 86400}, newTestLogger(&buf))

	// メールの前後空白と大文字は正規化される
	session, err := svc.Login(context.Background(), "  Taro@Example.COM ", "secret")
	if err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}

	if created == nil {
		t.Fatal("セッションが作成されなかった")
	}
	if session.ID == "" {
		t.Error("セッションIDが空のまま")
	}
	if len(session.ID) != 64 {
		t.Errorf("セッションIDの長さ = %d, want 64", len(session.ID))
	}
	if session.Token != "tok-xyz" {
		t.Errorf("Token = %q, want %q", session.Token, "tok-xyz")
	}
	if session.Identity.ID != 7 {
		t.Errorf("Identity.ID = %d, want 7", session.Identity.ID)
	}

	// 有効期限はMaxAge秒後
	wantExpiry := time.Now().Add(86400 * time.Second)
	if session.ExpiresAt.Before(wantExpiry.Add(-5*time.Second)) || session.ExpiresAt.After(wantExpiry.Add(5*time.Second)) {
		t.Errorf("ExpiresAt = %v, want %v 前後", session.ExpiresAt, wantExpiry)
	}
}

func TestLogin_PropagatesUpstreamError(t *testing.T) {
	upstreamErr := &gateway.UpstreamError{StatusCode: 400, Message: "Invalid email or password"}
	gw := &mockGateway{
		loginFn: func(ctx context.Context, email, password string) (*gateway.LoginResult, error) {
			return nil, upstreamErr
		},
	}

	var buf bytes.Buffer
	svc := NewService(gw, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 86400}, newTestLogger(&buf))

	_, err := svc.Login(context.Background(), "taro@example.com", "wrong")
	if err == nil {
		t.Fatal("上流の認証失敗が伝播しなかった")
	}

	ue, ok := gateway.AsUpstreamError(err)
	if !ok {
		t.Fatalf("UpstreamError ではないエラーが返った: %v", err)
	}
	if ue.Message != "Invalid email or password" {
		t.Errorf("Message = %q", ue.Message)
	}
}

func TestLogin_SessionIDsAreUnique(t *testing.T) {
	gw := &mockGateway{
		loginFn: func(ctx context.Context, email, password string) (*gateway.LoginResult, error) {
			return &gateway.LoginResult{
				User:  model.Identity{ID: 1, Role: "STUDENT"},
				Token: "tok",
			}, nil
		},
	}

	var buf bytes.Buffer
	svc := NewService(gw, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 60}, newTestLogger(&buf))

	seen := make(map[string]struct{})
	for i := 0; i < 10; i++ {
		session, err := svc.Login(context.Background(), "a@example.com", "p")
		if err != nil {
			t.Fatalf("Login がエラーを返した: %v", err)
		}
		if _, dup := seen[session.ID]; dup {
			t.Fatalf("セッションIDが重複した: %q", session.ID)
		}
		seen[session.ID] = struct{}{}
	}
}

func TestRegister_NormalizesInput(t *testing.T) {
	var gotInput gateway.RegisterInput
	gw := &mockGateway{
		registerFn: func(ctx context.Context, input gateway.RegisterInput) (*model.Identity, error) {
			gotInput = input
			return &model.Identity{ID: 9, Name: input.Name, Email: input.Email, Role: input.Role}, nil
		},
	}

	var buf bytes.Buffer
	svc := NewService(gw, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 86400}, newTestLogger(&buf))

	user, err := svc.Register(context.Background(), " Hanako ", " Hanako@Example.com ", "secret", "staff")
	if err != nil {
		t.Fatalf("Register がエラーを返した: %v", err)
	}

	if gotInput.Name != "Hanako" {
		t.Errorf("Name = %q, want %q", gotInput.Name, "Hanako")
	}
	if gotInput.Email != "hanako@example.com" {
		t.Errorf("Email = %q, want %q", gotInput.Email, "hanako@example.com")
	}
	if gotInput.Role != "STAFF" {
		t.Errorf("Role = %q, want %q", gotInput.Role, "STAFF")
	}
	if user.ID != 9 {
		t.Errorf("user.ID = %d, want 9", user.ID)
	}
}

func TestLogout_DeletesSessionEvenIfUpstreamFails(t *testing.T) {
	gw := &mockGateway{
		logoutFn: func(ctx context.Context, token string) error {
			return errors.New("upstream down")
		},
	}

	deleted := false
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			if id != "sess-1" {
				t.Errorf("削除対象ID = %q, want %q", id, "sess-1")
			}
			deleted = true
			return nil
		},
	}

	var buf bytes.Buffer
	svc := NewService(gw, sessionRepo, ServiceConfig{SessionMaxAge: 86400}, newTestLogger(&buf))

	session := &model.Session{ID: "sess-1", Token: "tok", Identity: model.Identity{ID: 7}}
	if err := svc.Logout(context.Background(), session); err != nil {
		t.Fatalf("Logout がエラーを返した: %v", err)
	}
	if !deleted {
		t.Error("セッションが削除されなかった")
	}
}

func TestRefreshIdentity_UpdatesCachedRole(t *testing.T) {
	gw := &mockGateway{
		getUserByIDFn: func(ctx context.Context, token string, id int64) (*model.Identity, error) {
			if token != "tok" {
				t.Errorf("token = %q, want %q", token, "tok")
			}
			if id != 7 {
				t.Errorf("id = %d, want 7", id)
			}
			return &model.Identity{ID: 7, Name: "Taro", Email: "taro@example.com", Role: "STAFF"}, nil
		},
	}

	var updatedIdentity *model.Identity
	sessionRepo := &mockSessionRepo{
		updateIdentityFn: func(ctx context.Context, sessionID string, identity model.Identity) error {
			if sessionID != "sess-1" {
				t.Errorf("sessionID = %q, want %q", sessionID, "sess-1")
			}
			updatedIdentity = &identity
			return nil
		},
	}

	var buf bytes.Buffer
	svc := NewService(gw, sessionRepo, ServiceConfig{SessionMaxAge: 86400}, newTestLogger(&buf))

	session := &model.Session{
		ID:       "sess-1",
		Token:    "tok",
		Identity: model.Identity{ID: 7, Role: "STUDENT"},
	}

	user, err := svc.RefreshIdentity(context.Background(), session)
	if err != nil {
		t.Fatalf("RefreshIdentity がエラーを返した: %v", err)
	}
	if user.Role != "STAFF" {
		t.Errorf("Role = %q, want %q", user.Role, "STAFF")
	}
	if updatedIdentity == nil || updatedIdentity.Role != "STAFF" {
		t.Error("セッションのIdentityが更新されなかった")
	}
}
