package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

// Guard はAuthorizationヘッダーのBearerトークンを検証し、ユーザーを解決する。
// リクエストごとにユーザーを1回読み直し、キャッシュはしない。
type Guard struct {
	tokens *TokenIssuer
	users  repository.UserRepository
}

// NewGuard はGuardを生成する。
func NewGuard(tokens *TokenIssuer, users repository.UserRepository) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Authenticate はAuthorizationヘッダーの値からユーザーを解決する。
// 失敗時は*model.APIError（401系）を、ストア障害時はラップしたエラーを返す。
func (g *Guard) Authenticate(ctx context.Context, authorization string) (*model.User, error) {
	if strings.TrimSpace(authorization) == "" {
		return nil, model.NewTokenMissingError()
	}

	parts := strings.Fields(authorization)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, model.NewTokenMalformedError()
	}

	userID, err := g.tokens.Parse(parts[1])
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, model.NewTokenExpiredError()
		}
		slog.Debug("token rejected", slog.String("error", err.Error()))
		return nil, model.NewTokenInvalidError()
	}

	user, err := g.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token user: %w", err)
	}
	if user == nil {
		return nil, model.NewTokenInvalidError()
	}

	return user, nil
}
