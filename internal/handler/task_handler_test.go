package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/checkmate/internal/middleware"
	"github.com/hitoshi/checkmate/internal/model"
)

type mockTaskService struct {
	loadTasksFn           func(ctx context.Context, identityID string) ([]*model.Task, error)
	addTaskFn             func(ctx context.Context, identityID, text string, date time.Time) (*model.Task, error)
	toggleTaskFn          func(ctx context.Context, identityID, taskID string) (*model.Task, error)
	deleteTaskFn          func(ctx context.Context, identityID, taskID string) error
	deleteCompletedFn     func(ctx context.Context, identityID string) ([]*model.Task, error)
	toggleAllCompletionFn func(identityID string) ([]*model.Task, error)
}

func (m *mockTaskService) LoadTasks(ctx context.Context, identityID string) ([]*model.Task, error) {
	return m.loadTasksFn(ctx, identityID)
}

func (m *mockTaskService) AddTask(ctx context.Context, identityID, text string, date time.Time) (*model.Task, error) {
	return m.addTaskFn(ctx, identityID, text, date)
}

func (m *mockTaskService) ToggleTask(ctx context.Context, identityID, taskID string) (*model.Task, error) {
	return m.toggleTaskFn(ctx, identityID, taskID)
}

func (m *mockTaskService) DeleteTask(ctx context.Context, identityID, taskID string) error {
	return m.deleteTaskFn(ctx, identityID, taskID)
}

func (m *mockTaskService) DeleteCompleted(ctx context.Context, identityID string) ([]*model.Task, error) {
	return m.deleteCompletedFn(ctx, identityID)
}

func (m *mockTaskService) ToggleAllCompletion(identityID string) ([]*model.Task, error) {
	return m.toggleAllCompletionFn(identityID)
}

// taskTestRouter はタスクハンドラーのルートだけを持つテスト用ルーターを返す。
// chiのURLパラメータ解決を通すためルーター経由でリクエストする。
func taskTestRouter(service TaskServiceInterface) http.Handler {
	h := NewTaskHandler(service)
	r := chi.NewRouter()
	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", h.ListTasks)
		r.Post("/", h.AddTask)
		r.Delete("/completed", h.DeleteCompleted)
		r.Post("/toggle-all", h.ToggleAll)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/toggle", h.ToggleTask)
			r.Delete("/", h.DeleteTask)
		})
	})
	return r
}

func authedRequest(method, path string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	return req.WithContext(middleware.ContextWithUserID(req.Context(), "u1"))
}

// TestTaskHandler_ListTasks は一覧取得のレスポンス形式を検証する。
func TestTaskHandler_ListTasks(t *testing.T) {
	service := &mockTaskService{
		loadTasksFn: func(ctx context.Context, identityID string) ([]*model.Task, error) {
			if identityID != "u1" {
				t.Errorf("identity ID = %q, want u1", identityID)
			}
			return []*model.Task{
				{ID: "t1", Text: "牛乳を買う", OwnerID: "u1"},
				{ID: "t2", Text: "家賃を払う", OwnerID: "u1", Completed: true},
			}, nil
		},
	}

	w := httptest.NewRecorder()
	taskTestRouter(service).ServeHTTP(w, authedRequest(http.MethodGet, "/api/tasks/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp taskListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 2 || len(resp.Tasks) != 2 {
		t.Errorf("count = %d, tasks = %d, want 2", resp.Count, len(resp.Tasks))
	}
	if resp.Tasks[0].Text != "牛乳を買う" {
		t.Errorf("first task text = %q", resp.Tasks[0].Text)
	}
}

// TestTaskHandler_ListTasks_Unauthenticated はユーザーID無しで
// 401が返ることを検証する。
func TestTaskHandler_ListTasks_Unauthenticated(t *testing.T) {
	service := &mockTaskService{
		loadTasksFn: func(ctx context.Context, identityID string) ([]*model.Task, error) {
			t.Error("service should not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/", nil)
	w := httptest.NewRecorder()
	taskTestRouter(service).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestTaskHandler_AddTask は作成リクエストが201でタスクを返すことを検証する。
func TestTaskHandler_AddTask(t *testing.T) {
	service := &mockTaskService{
		addTaskFn: func(ctx context.Context, identityID, text string, date time.Time) (*model.Task, error) {
			if text != "牛乳を買う" {
				t.Errorf("text = %q", text)
			}
			if !date.IsZero() {
				t.Errorf("date should be zero when omitted, got %v", date)
			}
			return &model.Task{ID: "t1", Text: text, OwnerID: identityID}, nil
		},
	}

	body, _ := json.Marshal(addTaskRequest{Text: "牛乳を買う"})
	w := httptest.NewRecorder()
	taskTestRouter(service).ServeHTTP(w, authedRequest(http.MethodPost, "/api/tasks/", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp taskResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "t1" {
		t.Errorf("id = %q, want t1", resp.ID)
	}
}

// TestTaskHandler_AddTask_InvalidBody は不正なボディで400が返ることを検証する。
func TestTaskHandler_AddTask_InvalidBody(t *testing.T) {
	service := &mockTaskService{
		addTaskFn: func(ctx context.Context, identityID, text string, date time.Time) (*model.Task, error) {
			t.Error("service should not be called")
			return nil, nil
		},
	}

	w := httptest.NewRecorder()
	taskTestRouter(service).ServeHTTP(w, authedRequest(http.MethodPost, "/api/tasks/", []byte("{invalid")))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// TestTaskHandler_ToggleTask はURLパラメータのタスクIDが
// サービスに渡ることを検証する。
func TestTaskHandler_ToggleTask(t *testing.T) {
	service := &mockTaskService{
		toggleTaskFn: func(ctx context.Context, identityID, taskID string) (*model.Task, error) {
			if taskID != "t1" {
				t.Errorf("task ID = %q, want t1", taskID)
			}
			return &model.Task{ID: taskID, Text: "牛乳を買う", Completed: true, OwnerID: identityID}, nil
		},
	}

	w := httptest.NewRecorder()
	taskTestRouter(service).ServeHTTP(w, authedRequest(http.MethodPost, "/api/tasks/t1/toggle", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp taskResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Completed {
		t.Error("completed = false, want true")
	}
}

// TestTaskHandler_ServiceErrorMapping はサービスエラーと
// HTTPステータスの対応を検証する。
func TestTaskHandler_ServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", model.NewTaskNotFoundError("t9"), http.StatusNotFound},
		{"unauthorized", model.NewTaskUnauthorizedError("t1"), http.StatusForbidden},
		{"repository down", model.NewRepositoryUnavailableError(), http.StatusServiceUnavailable},
		{"not authenticated", model.NewNotAuthenticatedError(), http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &mockTaskService{
				toggleTaskFn: func(ctx context.Context, identityID, taskID string) (*model.Task, error) {
					return nil, tc.err
				},
			}

			w := httptest.NewRecorder()
			taskTestRouter(service).ServeHTTP(w, authedRequest(http.MethodPost, "/api/tasks/t1/toggle", nil))

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}

// TestTaskHandler_DeleteTask は削除成功で204が返ることを検証する。
func TestTaskHandler_DeleteTask(t *testing.T) {
	var deletedID string
	service := &mockTaskService{
		deleteTaskFn: func(ctx context.Context, identityID, taskID string) error {
			deletedID = taskID
			return nil
		},
	}

	w := httptest.NewRecorder()
	taskTestRouter(service).ServeHTTP(w, authedRequest(http.MethodDelete, "/api/tasks/t1", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deletedID != "t1" {
		t.Errorf("deleted task = %q, want t1", deletedID)
	}
}

// TestTaskHandler_DeleteCompleted は固定パスが{id}ルートに
// 吸われず一括削除に到達することを検証する。
func TestTaskHandler_DeleteCompleted(t *testing.T) {
	called := false
	service := &mockTaskService{
		deleteCompletedFn: func(ctx context.Context, identityID string) ([]*model.Task, error) {
			called = true
			return []*model.Task{{ID: "t2", Text: "家賃を払う", OwnerID: identityID}}, nil
		},
		deleteTaskFn: func(ctx context.Context, identityID, taskID string) error {
			t.Errorf("DeleteTask called with id %q, DeleteCompleted expected", taskID)
			return nil
		},
	}

	w := httptest.NewRecorder()
	taskTestRouter(service).ServeHTTP(w, authedRequest(http.MethodDelete, "/api/tasks/completed", nil))

	if !called {
		t.Fatal("DeleteCompleted should be called")
	}
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp taskListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
}

// TestTaskHandler_ToggleAll は全タスクの一括トグルを検証する。
// ビュー未読み込みの場合は空の一覧が返る。
func TestTaskHandler_ToggleAll(t *testing.T) {
	service := &mockTaskService{
		toggleAllCompletionFn: func(identityID string) ([]*model.Task, error) {
			return nil, nil
		},
	}

	w := httptest.NewRecorder()
	taskTestRouter(service).ServeHTTP(w, authedRequest(http.MethodPost, "/api/tasks/toggle-all", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp taskListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 0 || len(resp.Tasks) != 0 {
		t.Errorf("expected empty list, got count = %d", resp.Count)
	}
}
