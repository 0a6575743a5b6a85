// Package auth はパスワード認証、GoogleのIDトークンによるログイン、
// セッショントークンの発行と検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskman/internal/metrics"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
	"github.com/hitoshi/taskman/internal/security"
	"github.com/hitoshi/taskman/internal/validation"
)

// maxUsernameLength はusers.usernameの列長。
const maxUsernameLength = 255

// RegisterInput はユーザー登録の入力。maxはusersテーブルの列長に合わせている。
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

// LoginInput はパスワードログインの入力。
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// OAuthLoginResult はGoogleログイン成功時の結果。
// IdentityはIDトークンから取り出した値、Userは保存済みのユーザー。
type OAuthLoginResult struct {
	LoginResult
	Identity *GoogleIdentity
	Created  bool
}

// ProfileView はプロフィールとして公開するフィールド。
type ProfileView struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users    repository.UserRepository
	hasher   PasswordHasher
	tokens   *TokenIssuer
	verifier IDTokenVerifier
	metrics  metrics.MetricsCollector
	now      func() time.Time
}

// NewService はServiceを生成する。mcがnilの場合はメトリクスを記録しない。
func NewService(
	users repository.UserRepository,
	hasher PasswordHasher,
	tokens *TokenIssuer,
	verifier IDTokenVerifier,
	mc metrics.MetricsCollector,
) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		verifier: verifier,
		metrics:  mc,
		now:      time.Now,
	}
}

// Register はパスワード認証のユーザーを作成し、新しいユーザーIDを返す。
// いずれかの項目が空の場合はValidationError、メールアドレスが登録済みの場合は
// EmailAlreadyRegisteredErrorを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	if err := validation.Struct(&in, "All fields are required"); err != nil {
		s.metrics.RecordAuthEvent(metrics.AuthEventRegister, metrics.OutcomeFailure)
		return "", err
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		s.metrics.RecordAuthEvent(metrics.AuthEventRegister, metrics.OutcomeFailure)
		return "", model.NewEmailAlreadyRegisteredError()
	}

	hash, err := s.hasher.Hash(in.Password)
	if errors.Is(err, ErrPasswordTooLong) {
		s.metrics.RecordAuthEvent(metrics.AuthEventRegister, metrics.OutcomeFailure)
		return "", model.NewValidationError("Password must be at most 72 bytes")
	}
	if err != nil {
		return "", err
	}

	user := &model.User{
		ID:            uuid.NewString(),
		Username:      in.Username,
		Email:         in.Email,
		PasswordHash:  &hash,
		LoginProvider: model.LoginProviderPassword,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.metrics.RecordAuthEvent(metrics.AuthEventRegister, metrics.OutcomeFailure)
			return "", model.NewEmailAlreadyRegisteredError()
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.RecordAuthEvent(metrics.AuthEventRegister, metrics.OutcomeSuccess)
	slog.Info("user registered", slog.String("user_id", user.ID))
	return user.ID, nil
}

// Login はメールアドレスとパスワードを照合し、セッショントークンを発行する。
// 未登録・パスワード未設定（Googleログインのみのユーザー）・不一致は
// いずれも同じInvalidCredentialsErrorになる。
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validation.Struct(&in, "Email and password are required"); err != nil {
		s.metrics.RecordAuthEvent(metrics.AuthEventLogin, metrics.OutcomeFailure)
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !user.HasPassword() || !s.hasher.Compare(*user.PasswordHash, in.Password) {
		s.metrics.RecordAuthEvent(metrics.AuthEventLogin, metrics.OutcomeFailure)
		return nil, model.NewInvalidCredentialsError()
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAuthEvent(metrics.AuthEventLogin, metrics.OutcomeSuccess)
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return result, nil
}

// OAuthLogin はGoogleのIDトークンを検証し、セッショントークンを発行する。
// 同じメールアドレスのユーザーがいなければパスワードなしのユーザーを作成する。
// 既存ユーザーのプロフィールは更新しない。
func (s *Service) OAuthLogin(ctx context.Context, rawToken string) (*OAuthLoginResult, error) {
	if strings.TrimSpace(rawToken) == "" {
		s.metrics.RecordAuthEvent(metrics.AuthEventGoogleLogin, metrics.OutcomeFailure)
		return nil, model.NewValidationError("Missing token")
	}

	identity, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		s.metrics.RecordAuthEvent(metrics.AuthEventGoogleLogin, metrics.OutcomeFailure)
		if errors.Is(err, ErrIdentityProviderUnavailable) {
			slog.Error("google id token verification unavailable", slog.String("error", err.Error()))
			return nil, model.NewOAuthProviderUnavailableError()
		}
		slog.Warn("google id token rejected", slog.String("error", err.Error()))
		return nil, model.NewOAuthTokenInvalidError()
	}

	user, created, err := s.findOrCreateGoogleUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAuthEvent(metrics.AuthEventGoogleLogin, metrics.OutcomeSuccess)
	slog.Info("user logged in with google",
		slog.String("user_id", user.ID),
		slog.Bool("created", created),
	)
	return &OAuthLoginResult{LoginResult: *result, Identity: identity, Created: created}, nil
}

// Profile はユーザーの公開プロフィールを返す。
func (s *Service) Profile(user *model.User) ProfileView {
	return ProfileView{Username: user.Username, Email: user.Email}
}

func (s *Service) findOrCreateGoogleUser(ctx context.Context, identity *GoogleIdentity) (*model.User, bool, error) {
	existing, err := s.users.FindByEmail(ctx, identity.Email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find user: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	username := identity.Name
	if username == "" {
		username, _, _ = strings.Cut(identity.Email, "@")
	}
	if r := []rune(username); len(r) > maxUsernameLength {
		username = string(r[:maxUsernameLength])
	}
	picture := identity.Picture
	if err := security.ValidatePublicHTTPSURL(picture); picture != "" && err != nil {
		slog.Warn("discarding unsafe picture URL", slog.String("error", err.Error()))
		picture = ""
	}

	user := &model.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         identity.Email,
		LoginProvider: model.LoginProviderGoogle,
		Picture:       picture,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, false, fmt.Errorf("failed to create user: %w", err)
		}
		// 同時ログインで先に作成された場合はそのユーザーを使う
		existing, err := s.users.FindByEmail(ctx, identity.Email)
		if err != nil {
			return nil, false, fmt.Errorf("failed to find concurrently created user: %w", err)
		}
		if existing == nil {
			return nil, false, fmt.Errorf("user with duplicate email disappeared: %s", identity.Email)
		}
		return existing, false, nil
	}

	return user, true, nil
}

func (s *Service) issue(user *model.User) (*LoginResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
