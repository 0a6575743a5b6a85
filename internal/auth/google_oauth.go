package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// IDトークン検証の失敗種別。
var (
	// ErrIDTokenInvalid は署名・発行者・audience・有効期限のいずれかの検証に失敗したか、
	// 確認済みのメールアドレスを含まないことを表す。
	ErrIDTokenInvalid = errors.New("id token invalid")
	// ErrIdentityProviderUnavailable はGoogleの公開鍵エンドポイントに到達できないことを表す。
	ErrIdentityProviderUnavailable = errors.New("identity provider unavailable")
)

// GoogleIdentity はGoogleのIDトークンから取り出したユーザー情報。
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IDTokenVerifier はIdPが発行したIDトークンを検証するインターフェース。
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*GoogleIdentity, error)
}

// payloadValidator はidtoken.Validatorの検証部分を抽象化する。
type payloadValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// GoogleIDTokenVerifier はGoogleのIDトークンを検証する。
// 署名はGoogleの公開鍵で、audienceは設定されたクライアントIDで検証する。
type GoogleIDTokenVerifier struct {
	clientID  string
	validator payloadValidator
}

// NewGoogleIDTokenVerifier はGoogleIDTokenVerifierを生成する。
// httpClientは公開鍵の取得に使われる（通常はsecurity.NewOutboundClientの戻り値）。
func NewGoogleIDTokenVerifier(ctx context.Context, clientID string, httpClient *http.Client) (*GoogleIDTokenVerifier, error) {
	v, err := idtoken.NewValidator(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create id token validator: %w", err)
	}
	return &GoogleIDTokenVerifier{clientID: clientID, validator: v}, nil
}

// Verify はIDトークンを検証し、メールアドレス・名前・プロフィール画像を返す。
// メールアドレスを含まないトークンと、email_verifiedがtrueでないトークンは無効として扱う。
func (g *GoogleIDTokenVerifier) Verify(ctx context.Context, rawToken string) (*GoogleIdentity, error) {
	payload, err := g.validator.Validate(ctx, rawToken, g.clientID)
	if err != nil {
		if isTransportError(err) {
			return nil, fmt.Errorf("%w: %v", ErrIdentityProviderUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrIDTokenInvalid, err)
	}

	identity := &GoogleIdentity{
		Subject: payload.Subject,
		Email:   claimString(payload.Claims, "email"),
		Name:    claimString(payload.Claims, "name"),
		Picture: claimString(payload.Claims, "picture"),
	}
	if identity.Email == "" {
		return nil, fmt.Errorf("%w: email claim is missing", ErrIDTokenInvalid)
	}
	if !claimTrue(payload.Claims, "email_verified") {
		return nil, fmt.Errorf("%w: email is not verified", ErrIDTokenInvalid)
	}
	return identity, nil
}

// claimTrue は真偽値のクレームがtrueかどうかを返す。文字列の"true"も受け付ける。
func claimTrue(claims map[string]interface{}, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// isTransportError は公開鍵取得時のネットワークエラーかどうかを判定する。
func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// compile-time interface check
var _ IDTokenVerifier = (*GoogleIDTokenVerifier)(nil)
