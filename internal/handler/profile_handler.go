package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/checkmate/internal/middleware"
	"github.com/hitoshi/checkmate/internal/model"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	// Get はプロフィールを取得する。未作成の場合は空のプロフィールを返す。
	Get(ctx context.Context, userID string) (*model.Profile, error)
	// Update はプロフィールを部分マージで更新する。
	Update(ctx context.Context, userID string, fields model.ProfileFields) (*model.Profile, error)
}

// ProfileHandler はプロフィール管理のHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// profileResponse はプロフィールのレスポンス。
// 写真のバイナリは含めず、有無のみ返す。本体は/api/profile/photoで配信する。
type profileResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	HasPhoto    bool   `json:"has_photo"`
	PhotoMime   string `json:"photo_mime,omitempty"`
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
// 省略されたフィールドは既存の値を維持する（部分マージ）。
// photoはbase64エンコードされた画像データ。
type updateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Photo       *string `json:"photo,omitempty"`
	PhotoMime   *string `json:"photo_mime,omitempty"`
}

// GetProfile はプロフィールを取得する。
// GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}

	p, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProfileResponse(p))
}

// UpdateProfile はプロフィールを部分マージで更新する。
// 省略されたフィールド（写真など）は既存の値が維持される。
// PATCH /api/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディが不正です。",
			Category: "validation",
			Action:   "入力内容を確認してください。",
		})
		return
	}

	fields := model.ProfileFields{
		DisplayName: req.DisplayName,
		PhotoMime:   req.PhotoMime,
	}

	if req.Photo != nil {
		data, err := base64.StdEncoding.DecodeString(*req.Photo)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidPhotoError("base64デコードに失敗しました"))
			return
		}
		fields.Photo = data
	}

	merged, err := h.service.Update(r.Context(), userID, fields)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toProfileResponse(merged))
}

// GetPhoto はプロフィール写真のバイナリを配信する。
// GET /api/profile/photo
func (h *ProfileHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}

	p, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if len(p.Photo) == 0 {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", p.PhotoMime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(p.Photo)
}

// toProfileResponse はドメインモデルをレスポンス型に変換する。
func toProfileResponse(p *model.Profile) profileResponse {
	return profileResponse{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		HasPhoto:    len(p.Photo) > 0,
		PhotoMime:   p.PhotoMime,
	}
}
