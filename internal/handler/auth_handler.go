package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/taskman/internal/auth"
	"github.com/hitoshi/taskman/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register はユーザーを登録し、ユーザーIDを返す。
	Register(ctx context.Context, in auth.RegisterInput) (string, error)
	// Login はメールアドレスとパスワードでログインする。
	Login(ctx context.Context, in auth.LoginInput) (*auth.LoginResult, error)
	// OAuthLogin はGoogleのIDトークンでログインする。
	OAuthLogin(ctx context.Context, rawToken string) (*auth.OAuthLoginResult, error)
	// Profile はユーザーの公開プロフィールを返す。
	Profile(user *model.User) auth.ProfileView
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// registerResponse はユーザー登録のレスポンス。
type registerResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// loginUser はログインレスポンスに含めるユーザー情報。
type loginUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// loginResponse はパスワードログインのレスポンス。
type loginResponse struct {
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    loginUser `json:"user"`
}

// googleLoginRequest はGoogleログインのリクエストボディ。
type googleLoginRequest struct {
	AccessToken string `json:"access_token"`
}

// googleLoginResponse はGoogleログインのレスポンス。
// email、name、pictureはIDトークンから取り出した値。
type googleLoginResponse struct {
	Message string    `json:"message"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	Picture string    `json:"picture"`
	Token   string    `json:"token"`
	User    loginUser `json:"user"`
}

// Register はユーザー登録を処理する。
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	userID, err := h.service.Register(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{
		Message: "Registration successful",
		UserID:  userID,
	})
}

// Login はパスワードログインを処理する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginInput
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   result.Token,
		User:    loginUser{ID: result.User.ID, Username: result.User.Username},
	})
}

// GoogleLogin はGoogleのIDトークンによるログインを処理する。
// POST /google-login
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.OAuthLogin(r.Context(), req.AccessToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, googleLoginResponse{
		Message: "Google login successful",
		Email:   result.Identity.Email,
		Name:    result.Identity.Name,
		Picture: result.Identity.Picture,
		Token:   result.Token,
		User:    loginUser{ID: result.User.ID, Username: result.User.Username},
	})
}

// Profile は認証済みユーザーのプロフィールを返す。
// GET /profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	writeJSON(w, http.StatusOK, h.service.Profile(user))
}
