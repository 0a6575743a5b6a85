package handler

import (
	"context"

	"github.com/hitoshi/taskman/internal/auth"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/task"
)

// --- モック実装 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	registerFn   func(ctx context.Context, in auth.RegisterInput) (string, error)
	loginFn      func(ctx context.Context, in auth.LoginInput) (*auth.LoginResult, error)
	oauthLoginFn func(ctx context.Context, rawToken string) (*auth.OAuthLoginResult, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (string, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return "", nil
}

func (m *mockAuthService) Login(ctx context.Context, in auth.LoginInput) (*auth.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, in)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) OAuthLogin(ctx context.Context, rawToken string) (*auth.OAuthLoginResult, error) {
	if m.oauthLoginFn != nil {
		return m.oauthLoginFn(ctx, rawToken)
	}
	return nil, model.NewOAuthTokenInvalidError()
}

func (m *mockAuthService) Profile(user *model.User) auth.ProfileView {
	return auth.ProfileView{Username: user.Username, Email: user.Email}
}

// mockTaskService はTaskServiceInterfaceのモック実装。
type mockTaskService struct {
	listFn   func(ctx context.Context, ownerID, frequency string) ([]taskResponse, error)
	createFn func(ctx context.Context, ownerID string, in task.Input) (string, error)
	updateFn func(ctx context.Context, ownerID, taskID string, in task.Input) error
	deleteFn func(ctx context.Context, ownerID, taskID string) error
}

func (m *mockTaskService) ListTasks(ctx context.Context, ownerID, frequency string) ([]taskResponse, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID, frequency)
	}
	return nil, nil
}

func (m *mockTaskService) CreateTask(ctx context.Context, ownerID string, in task.Input) (string, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, in)
	}
	return "", nil
}

func (m *mockTaskService) UpdateTask(ctx context.Context, ownerID, taskID string, in task.Input) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, ownerID, taskID, in)
	}
	return nil
}

func (m *mockTaskService) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ownerID, taskID)
	}
	return nil
}

// mockSharer はTaskSharerのモック実装。
type mockSharer struct {
	shareFn func(ctx context.Context, senderEmail, to string, snapshot *model.TaskSnapshot) (bool, error)
}

func (m *mockSharer) ShareTask(ctx context.Context, senderEmail, to string, snapshot *model.TaskSnapshot) (bool, error) {
	if m.shareFn != nil {
		return m.shareFn(ctx, senderEmail, to, snapshot)
	}
	return true, nil
}

// mockAuthenticator はmiddleware.Authenticatorのモック実装。
// "Bearer <userID>" 形式のヘッダーをそのユーザーとして扱う。
type mockAuthenticator struct {
	users map[string]*model.User
}

func (m *mockAuthenticator) Authenticate(_ context.Context, header string) (*model.User, error) {
	if header == "" {
		return nil, model.NewTokenMissingError()
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return nil, model.NewTokenMalformedError()
	}
	user, ok := m.users[header[len(prefix):]]
	if !ok {
		return nil, model.NewTokenInvalidError()
	}
	return user, nil
}

// mockHealthChecker はHealthCheckerのモック実装。
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(context.Context) error {
	return m.err
}
