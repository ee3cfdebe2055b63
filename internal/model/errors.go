// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, post, platform, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNotAuthenticated   = "NOT_AUTHENTICATED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAccountExists      = "ACCOUNT_EXISTS"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodePostNotFound       = "POST_NOT_FOUND"
	ErrCodeInvalidSlug        = "INVALID_SLUG"
	ErrCodeDuplicateSlug      = "DUPLICATE_SLUG"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeUploadFailed       = "UPLOAD_FAILED"
	ErrCodePlatformError      = "PLATFORM_ERROR"
)

// NewNotAuthenticatedError は未認証エラーを生成する。
func NewNotAuthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthenticated,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewAccountExistsError はアカウント重複エラーを生成する。
func NewAccountExistsError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeAccountExists,
		Message:  fmt.Sprintf("このメールアドレスは既に登録されています: %s", email),
		Category: "auth",
		Action:   "ログインするか、別のメールアドレスで登録してください。",
	}
}

// NewValidationError は入力バリデーションエラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力内容が正しくありません: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewPostNotFoundError は記事未検出エラーを生成する。
func NewPostNotFoundError(slug string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", slug),
		Category: "post",
		Action:   "記事の一覧を再読み込みして確認してください。",
	}
}

// NewInvalidSlugError は無効なスラッグエラーを生成する。
func NewInvalidSlugError(slug string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSlug,
		Message:  fmt.Sprintf("無効なスラッグです: %s", slug),
		Category: "validation",
		Action:   "スラッグには英数字とハイフンのみを使用してください。",
	}
}

// NewDuplicateSlugError はスラッグ重複エラーを生成する。
// リモートドキュメントストアが同一IDのドキュメント作成を拒否した場合に返す。
func NewDuplicateSlugError(slug string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateSlug,
		Message:  fmt.Sprintf("このスラッグは既に使用されています: %s", slug),
		Category: "post",
		Action:   "別のスラッグを指定してください。",
	}
}

// NewInvalidStatusError は無効な公開状態エラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効な公開状態です: %s", status),
		Category: "validation",
		Action:   "公開状態には active または inactive を指定してください。",
	}
}

// NewUploadFailedError はファイルアップロード失敗エラーを生成する。
func NewUploadFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUploadFailed,
		Message:  fmt.Sprintf("画像のアップロードに失敗しました: %s", reason),
		Category: "post",
		Action:   "画像ファイルを確認し、再度お試しください。",
	}
}

// NewPlatformError はリモートプラットフォーム呼び出し失敗エラーを生成する。
func NewPlatformError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodePlatformError,
		Message:  fmt.Sprintf("リモートサービスの呼び出しに失敗しました: %s", reason),
		Category: "platform",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
