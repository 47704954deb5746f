package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maki/equiport/internal/model"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// --- モック ---

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func validSession() *model.Session {
	return &model.Session{
		ID:        "sess-1",
		Identity:  model.Identity{ID: 7, Name: "Taro", Role: "STUDENT"},
		Token:     "tok",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
}

func TestSessionMiddleware_InjectsSession(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			if id != "sess-1" {
				t.Errorf("id = %q, want %q", id, "sess-1")
			}
			return validSession(), nil
		},
	}

	var buf bytes.Buffer
	mw := NewSessionMiddleware(finder, newTestLogger(&buf))

	var gotSession *model.Session
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotSession == nil {
		t.Fatal("セッションがコンテキストに注入されなかった")
	}
	if gotSession.Identity.ID != 7 {
		t.Errorf("Identity.ID = %d, want 7", gotSession.Identity.ID)
	}
}

func TestSessionMiddleware_NoCookie_ContinuesWithoutSession(t *testing.T) {
	var buf bytes.Buffer
	mw := NewSessionMiddleware(&mockSessionFinder{}, newTestLogger(&buf))

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if SessionFromContext(r.Context()) != nil {
			t.Error("セッションが無いのにコンテキストに存在する")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("次のハンドラーが呼ばれなかった")
	}
}

func TestSessionMiddleware_ExpiredSession_ClearsCookie(t *testing.T) {
	// 期限切れセッションはリポジトリがnilを返す
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, nil
		},
	}

	var buf bytes.Buffer
	mw := NewSessionMiddleware(finder, newTestLogger(&buf))
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == SessionCookieName && c.MaxAge < 0 {
			found = true
		}
	}
	if !found {
		t.Error("失効済みCookieの破棄が設定されなかった")
	}
}

func TestSessionMiddleware_RepoError_ContinuesWithoutSession(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, errors.New("db down")
		},
	}

	var buf bytes.Buffer
	mw := NewSessionMiddleware(finder, newTestLogger(&buf))

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("DB障害時も次のハンドラーに進むべき")
	}
}
