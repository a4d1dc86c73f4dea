package security

import (
	"fmt"

	"github.com/hitoshi/checkmate/internal/model"
)

// allowedPhotoMimes はプロフィール写真として許可するMIMEタイプ。
var allowedPhotoMimes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// PhotoValidator はプロフィール写真の保存前検証を行う。
// MIMEタイプの許可リストとサイズ上限を適用する。
type PhotoValidator struct {
	maxSize int64
}

// NewPhotoValidator はPhotoValidatorを生成する。
// maxSizeが0以下の場合はデフォルト値2MiBを使用する。
func NewPhotoValidator(maxSize int64) *PhotoValidator {
	if maxSize <= 0 {
		maxSize = 2 * 1024 * 1024
	}
	return &PhotoValidator{maxSize: maxSize}
}

// Validate は写真データとMIMEタイプを検証する。
// 許可外のMIMEタイプ、空データ、サイズ超過はAPIErrorを返す。
func (v *PhotoValidator) Validate(data []byte, mime string) error {
	if len(data) == 0 {
		return model.NewInvalidPhotoError("画像データが空です")
	}
	if !allowedPhotoMimes[mime] {
		return model.NewInvalidPhotoError(fmt.Sprintf("未対応の形式です: %s", mime))
	}
	if int64(len(data)) > v.maxSize {
		return model.NewInvalidPhotoError(fmt.Sprintf("サイズが上限を超えています: %dバイト", len(data)))
	}
	return nil
}
