package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/checkmate/internal/middleware"
	"github.com/hitoshi/checkmate/internal/model"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	// LoadTasks はユーザーの全タスクを取得する。
	LoadTasks(ctx context.Context, identityID string) ([]*model.Task, error)
	// AddTask はタスクを作成する。日付がゼロ値の場合は現在時刻が使われる。
	AddTask(ctx context.Context, identityID, text string, date time.Time) (*model.Task, error)
	// ToggleTask はタスクの完了フラグを反転する。
	ToggleTask(ctx context.Context, identityID, taskID string) (*model.Task, error)
	// DeleteTask はタスクを削除する。
	DeleteTask(ctx context.Context, identityID, taskID string) error
	// DeleteCompleted は完了済みタスクを一括削除し、残りを返す。
	DeleteCompleted(ctx context.Context, identityID string) ([]*model.Task, error)
	// ToggleAllCompletion は読み込み済みビューの全完了フラグをローカルで揃える。
	ToggleAllCompletion(identityID string) ([]*model.Task, error)
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// taskResponse はタスクのレスポンス。
type taskResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// taskListResponse はタスク一覧のレスポンス。
type taskListResponse struct {
	Tasks []taskResponse `json:"tasks"`
	Count int            `json:"count"`
}

// addTaskRequest はタスク作成リクエストのボディ。
// dateを省略するとサーバー側の現在時刻が使われる。
type addTaskRequest struct {
	Text string     `json:"text"`
	Date *time.Time `json:"date,omitempty"`
}

// ListTasks はユーザーの全タスクを取得する。
// GET /api/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}

	tasks, err := h.service.LoadTasks(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeTaskList(w, tasks)
}

// AddTask はタスクを作成する。
// POST /api/tasks
func (h *TaskHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}

	var req addTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディが不正です。",
			Category: "validation",
			Action:   "入力内容を確認してください。",
		})
		return
	}

	var date time.Time
	if req.Date != nil {
		date = *req.Date
	}

	task, err := h.service.AddTask(r.Context(), userID, req.Text, date)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toTaskResponse(task))
}

// ToggleTask はタスクの完了フラグを反転する。
// POST /api/tasks/{id}/toggle
func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}

	taskID := chi.URLParam(r, "id")

	task, err := h.service.ToggleTask(r.Context(), userID, taskID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTaskResponse(task))
}

// DeleteTask はタスクを削除する。
// DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}

	taskID := chi.URLParam(r, "id")

	if err := h.service.DeleteTask(r.Context(), userID, taskID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCompleted は完了済みタスクを一括削除する。
// DELETE /api/tasks/completed
func (h *TaskHandler) DeleteCompleted(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}

	remaining, err := h.service.DeleteCompleted(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeTaskList(w, remaining)
}

// ToggleAll は読み込み済みビューの全タスクの完了フラグをローカルで揃える。
// POST /api/tasks/toggle-all
func (h *TaskHandler) ToggleAll(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}

	tasks, err := h.service.ToggleAllCompletion(userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeTaskList(w, tasks)
}

// toTaskResponse はドメインモデルをレスポンス型に変換する。
func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		Date:      t.Date,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// writeTaskList はタスク一覧レスポンスを書き込む。
func writeTaskList(w http.ResponseWriter, tasks []*model.Task) {
	resp := taskListResponse{
		Tasks: make([]taskResponse, len(tasks)),
		Count: len(tasks),
	}
	for i, t := range tasks {
		resp.Tasks[i] = toTaskResponse(t)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// apiErrorResponse はAPIエラーレスポンスの統一フォーマット。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeNotAuthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeTaskUnauthorized:
		return http.StatusForbidden
	case model.ErrCodeTaskNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeNotRegistered, model.ErrCodeWrongPassword:
		return http.StatusUnauthorized
	case model.ErrCodeEmptyCredentials, model.ErrCodeInvalidPhoto:
		return http.StatusBadRequest
	case model.ErrCodeEmailTaken:
		return http.StatusConflict
	case model.ErrCodeRepositoryUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
