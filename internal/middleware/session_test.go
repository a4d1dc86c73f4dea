package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/checkmate/internal/model"
)

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return m.findByIDFn(ctx, id)
}

// TestSessionMiddleware_ValidSession は有効なセッションでユーザーIDが
// コンテキストに注入されることを検証する。
func TestSessionMiddleware_ValidSession(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}

	var gotUserID, gotSessionID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
		gotSessionID, _ = SessionIDFromContext(r.Context())
	})

	mw := NewSessionMiddleware(finder)
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	w := httptest.NewRecorder()

	mw(next).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotUserID != "u1" {
		t.Errorf("user ID = %q, want u1", gotUserID)
	}
	if gotSessionID != "sess-1" {
		t.Errorf("session ID = %q, want sess-1", gotSessionID)
	}
}

// TestSessionMiddleware_MissingCookie はCookie無しのリクエストが
// 401で拒否されることを検証する。
func TestSessionMiddleware_MissingCookie(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			t.Error("finder should not be called without a cookie")
			return nil, nil
		},
	}

	mw := NewSessionMiddleware(finder)
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	w := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run")
	})).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestSessionMiddleware_ExpiredSession は期限切れセッションが
// 401で拒否されることを検証する。
func TestSessionMiddleware_ExpiredSession(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, nil // 期限切れはnil
		},
	}

	mw := NewSessionMiddleware(finder)
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "expired"})
	w := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run")
	})).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestSessionMiddleware_FinderError はセッション検索エラーが
// 401で拒否されることを検証する。
func TestSessionMiddleware_FinderError(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, errors.New("db down")
		},
	}

	mw := NewSessionMiddleware(finder)
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	w := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestUserIDFromContext_Missing はコンテキストにユーザーIDが無い場合を検証する。
func TestUserIDFromContext_Missing(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for missing user ID")
	}
}

// TestContextWithUserID は注入と取得の往復を検証する。
func TestContextWithUserID(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "u1")
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("UserIDFromContext returned error: %v", err)
	}
	if userID != "u1" {
		t.Errorf("user ID = %q, want u1", userID)
	}
}
