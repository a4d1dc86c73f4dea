package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/checkmate/internal/model"
)

type mockAuthService struct {
	registerFn       func(ctx context.Context, email, password string) (*model.Session, *model.User, error)
	loginFn          func(ctx context.Context, email, password string) (*model.Session, *model.User, error)
	logoutFn         func(ctx context.Context, sessionID string) error
	getCurrentUserFn func(ctx context.Context, sessionID string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
	return m.registerFn(ctx, email, password)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
	return m.loginFn(ctx, email, password)
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	return m.logoutFn(ctx, sessionID)
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	return m.getCurrentUserFn(ctx, sessionID)
}

type mockLoginMetrics struct {
	successes int
	failures  []string
}

func (m *mockLoginMetrics) RecordLoginSuccess() { m.successes++ }

func (m *mockLoginMetrics) RecordLoginFailure(reason string) {
	m.failures = append(m.failures, reason)
}

func sessionCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	return nil
}

// TestAuthHandler_Register_Success は登録成功時に201と
// セッションCookieが返ることを検証する。
func TestAuthHandler_Register_Success(t *testing.T) {
	service := &mockAuthService{
		registerFn: func(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
			return &model.Session{ID: "sess-1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)},
				&model.User{ID: "u1", Email: email}, nil
		},
	}
	h := NewAuthHandler(service, nil, AuthHandlerConfig{SessionMaxAge: 86400})

	body, _ := json.Marshal(credentialsRequest{Email: "taro@example.com", Password: "secret"})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	cookie := sessionCookieFrom(t, w)
	if cookie == nil {
		t.Fatal("session cookie should be set")
	}
	if cookie.Value != "sess-1" {
		t.Errorf("cookie value = %q, want sess-1", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}

	var resp userResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "u1" || resp.Email != "taro@example.com" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

// TestAuthHandler_Register_EmailTaken は登録済みメールアドレスで
// 409が返ることを検証する。
func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	service := &mockAuthService{
		registerFn: func(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
			return nil, nil, model.NewEmailTakenError()
		},
	}
	h := NewAuthHandler(service, nil, AuthHandlerConfig{})

	body, _ := json.Marshal(credentialsRequest{Email: "taro@example.com", Password: "secret"})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}

	var resp apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != model.ErrCodeEmailTaken {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeEmailTaken)
	}
}

// TestAuthHandler_Login_Success はログイン成功時のCookie設定と
// 成功メトリクスを検証する。
func TestAuthHandler_Login_Success(t *testing.T) {
	service := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
			return &model.Session{ID: "sess-2", UserID: "u1"}, &model.User{ID: "u1", Email: email}, nil
		},
	}
	metrics := &mockLoginMetrics{}
	h := NewAuthHandler(service, metrics, AuthHandlerConfig{SessionMaxAge: 86400})

	body, _ := json.Marshal(credentialsRequest{Email: "taro@example.com", Password: "secret"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if cookie := sessionCookieFrom(t, w); cookie == nil || cookie.Value != "sess-2" {
		t.Error("session cookie should be set to sess-2")
	}
	if metrics.successes != 1 {
		t.Errorf("login success recorded %d times, want 1", metrics.successes)
	}
}

// TestAuthHandler_Login_Failure はログイン失敗時のステータスと
// 失敗メトリクスの理由ラベルを検証する。
func TestAuthHandler_Login_Failure(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{"not registered", model.NewNotRegisteredError(), http.StatusUnauthorized, "not_registered"},
		{"wrong password", model.NewWrongPasswordError(), http.StatusUnauthorized, "wrong_password"},
		{"empty credentials", model.NewEmptyCredentialsError(), http.StatusBadRequest, "empty_credentials"},
		{"infra error", errors.New("db down"), http.StatusInternalServerError, "other"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &mockAuthService{
				loginFn: func(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
					return nil, nil, tc.err
				},
			}
			metrics := &mockLoginMetrics{}
			h := NewAuthHandler(service, metrics, AuthHandlerConfig{})

			body, _ := json.Marshal(credentialsRequest{Email: "taro@example.com", Password: "x"})
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
			w := httptest.NewRecorder()

			h.Login(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if len(metrics.failures) != 1 || metrics.failures[0] != tc.wantReason {
				t.Errorf("failure reasons = %v, want [%s]", metrics.failures, tc.wantReason)
			}
			if cookie := sessionCookieFrom(t, w); cookie != nil {
				t.Error("session cookie should not be set on failure")
			}
		})
	}
}

// TestAuthHandler_Logout はログアウトでセッションが破棄され、
// Cookieがクリアされることを検証する。
func TestAuthHandler_Logout(t *testing.T) {
	var deletedID string
	service := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			deletedID = sessionID
			return nil
		},
	}
	h := NewAuthHandler(service, nil, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deletedID != "sess-1" {
		t.Errorf("deleted session = %q, want sess-1", deletedID)
	}

	cookie := sessionCookieFrom(t, w)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Error("session cookie should be cleared")
	}
}

// TestAuthHandler_Logout_ServiceFailureStillClearsCookie はセッション破棄に
// 失敗してもCookieがクリアされることを検証する。
func TestAuthHandler_Logout_ServiceFailureStillClearsCookie(t *testing.T) {
	service := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			return errors.New("db down")
		},
	}
	h := NewAuthHandler(service, nil, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if cookie := sessionCookieFrom(t, w); cookie == nil || cookie.MaxAge != -1 {
		t.Error("session cookie should be cleared even when logout fails")
	}
}

// TestAuthHandler_Me はセッションCookieから現在のユーザーを返すことを検証する。
func TestAuthHandler_Me(t *testing.T) {
	service := &mockAuthService{
		getCurrentUserFn: func(ctx context.Context, sessionID string) (*model.User, error) {
			if sessionID != "sess-1" {
				t.Errorf("session ID = %q, want sess-1", sessionID)
			}
			return &model.User{ID: "u1", Email: "taro@example.com"}, nil
		},
	}
	h := NewAuthHandler(service, nil, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp userResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "u1" {
		t.Errorf("id = %q, want u1", resp.ID)
	}
}

// TestAuthHandler_Me_NoCookie はCookie無しで401が返ることを検証する。
func TestAuthHandler_Me_NoCookie(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil, AuthHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
