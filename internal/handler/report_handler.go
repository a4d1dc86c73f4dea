package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/checkmate/internal/middleware"
	"github.com/hitoshi/checkmate/internal/model"
	"github.com/hitoshi/checkmate/internal/report"
)

// ReportServiceInterface はレポートハンドラーが必要とするサービスインターフェース。
type ReportServiceInterface interface {
	// Weekly は直近1週間の完了タスクを集計する。
	Weekly(ctx context.Context, userID string) (*report.WeeklyReport, error)
	// SaveNote は振り返りメモを保存する。
	SaveNote(ctx context.Context, userID, body string) (*model.ReportNote, error)
}

// ReportHandler は週次レポートのHTTPハンドラー。
type ReportHandler struct {
	service ReportServiceInterface
}

// NewReportHandler はReportHandlerを生成する。
func NewReportHandler(service ReportServiceInterface) *ReportHandler {
	return &ReportHandler{service: service}
}

// weeklyReportResponse は週次レポートのレスポンス。
type weeklyReportResponse struct {
	From           time.Time      `json:"from"`
	To             time.Time      `json:"to"`
	CompletedTasks []taskResponse `json:"completed_tasks"`
	CompletedCount int            `json:"completed_count"`
	Note           string         `json:"note"`
}

// saveNoteRequest はメモ保存リクエストのボディ。
type saveNoteRequest struct {
	Body string `json:"body"`
}

// noteResponse はメモのレスポンス。
type noteResponse struct {
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Weekly は週次レポートを取得する。
// GET /api/reports/weekly
func (h *ReportHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}

	rep, err := h.service.Weekly(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := weeklyReportResponse{
		From:           rep.From,
		To:             rep.To,
		CompletedTasks: make([]taskResponse, len(rep.CompletedTasks)),
		CompletedCount: rep.CompletedCount,
		Note:           rep.Note,
	}
	for i, t := range rep.CompletedTasks {
		resp.CompletedTasks[i] = toTaskResponse(t)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// SaveNote は振り返りメモを保存する。同じ内容での再送は冪等。
// PUT /api/reports/weekly/note
func (h *ReportHandler) SaveNote(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}

	var req saveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディが不正です。",
			Category: "validation",
			Action:   "入力内容を確認してください。",
		})
		return
	}

	note, err := h.service.SaveNote(r.Context(), userID, req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(noteResponse{
		Body:      note.Body,
		UpdatedAt: note.UpdatedAt,
	})
}
