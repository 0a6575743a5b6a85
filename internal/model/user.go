// Package model はドメインモデルを定義する。
package model

import "time"

// ログインプロバイダー
const (
	LoginProviderPassword = "password"
	LoginProviderGoogle   = "google"
)

// User はサービス利用ユーザーを表す。
// Googleログインで作成されたアカウントはPasswordHashを持たない。
type User struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  *string
	LoginProvider string
	Picture       string
	CreatedAt     time.Time
}

// HasPassword はパスワードログインが可能なアカウントかどうかを返す。
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
