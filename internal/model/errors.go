// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, task, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation               = "VALIDATION_ERROR"
	ErrCodeInvalidRequest           = "INVALID_REQUEST"
	ErrCodeEmailAlreadyRegistered   = "EMAIL_ALREADY_REGISTERED"
	ErrCodeInvalidCredentials       = "INVALID_CREDENTIALS"
	ErrCodeTokenMissing             = "TOKEN_MISSING"
	ErrCodeTokenMalformed           = "TOKEN_MALFORMED"
	ErrCodeTokenExpired             = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid             = "TOKEN_INVALID"
	ErrCodeOAuthTokenInvalid        = "OAUTH_TOKEN_INVALID"
	ErrCodeOAuthProviderUnavailable = "OAUTH_PROVIDER_UNAVAILABLE"
	ErrCodeTaskNotFound             = "TASK_NOT_FOUND"
	ErrCodeMailDeliveryFailed       = "MAIL_DELIVERY_FAILED"
	ErrCodeInternal                 = "INTERNAL_ERROR"
)

// NewValidationError は必須項目の欠落などの入力エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidRequestError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewEmailAlreadyRegisteredError はメールアドレス重複エラーを生成する。
func NewEmailAlreadyRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailAlreadyRegistered,
		Message:  "Email already registered",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidCredentialsError はメールアドレスまたはパスワードの不一致エラーを生成する。
// どちらが誤っているかは区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials",
		Category: "auth",
		Action:   "メールアドレスとパスワードを確認してください。",
	}
}

// NewTokenMissingError はAuthorizationヘッダーが無い場合のエラーを生成する。
func NewTokenMissingError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenMissing,
		Message:  "Token is missing!",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewTokenMalformedError はAuthorizationヘッダーの形式が不正な場合のエラーを生成する。
func NewTokenMalformedError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenMalformed,
		Message:  "Token format is invalid",
		Category: "auth",
		Action:   "Authorization: Bearer <token> 形式で送信してください。",
	}
}

// NewTokenExpiredError はトークン期限切れエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "Token expired!",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewTokenInvalidError は署名不正やユーザー不在などで検証に失敗した場合のエラーを生成する。
func NewTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenInvalid,
		Message:  "Token is invalid!",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewOAuthTokenInvalidError はIdPのIDトークン検証失敗エラーを生成する。
func NewOAuthTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeOAuthTokenInvalid,
		Message:  "Invalid token",
		Category: "auth",
		Action:   "Googleアカウントで再度ログインしてください。",
	}
}

// NewOAuthProviderUnavailableError はIdPとの通信に失敗した場合のエラーを生成する。
func NewOAuthProviderUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeOAuthProviderUnavailable,
		Message:  "Internal server error",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
// 存在しない場合と他ユーザーのタスクの場合を区別しない。
func NewTaskNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  "Task not found or not authorized",
		Category: "task",
		Action:   "タスク一覧を再読み込みしてください。",
	}
}

// NewMailDeliveryFailedError はメール送信失敗エラーを生成する。
func NewMailDeliveryFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeMailDeliveryFailed,
		Message:  "Failed to send email",
		Category: "system",
		Action:   "宛先を確認し、しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
