package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// トークン検証の失敗種別。
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims はセッショントークンのクレーム。
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenIssuer はHS256署名のセッショントークンを発行・検証する。
// トークンは永続化せず、有効期限はexpクレームのみで管理する。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL はトークンの有効期間を返す。
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue はユーザーIDを含むトークンを発行し、トークン文字列と有効期限を返す。
// expクレームは秒単位のため、有効期限は発行時刻+TTLを秒に切り上げた時刻になる。
func (i *TokenIssuer) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("user ID is required")
	}

	issuedAt := i.now()
	expiresAt := ceilSecond(issuedAt.Add(i.ttl))
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ceilSecond はtを秒単位に切り上げる。
func ceilSecond(t time.Time) time.Time {
	truncated := t.Truncate(time.Second)
	if truncated.Equal(t) {
		return truncated
	}
	return truncated.Add(time.Second)
}

// Parse はトークンを検証し、ユーザーIDを返す。
// 期限切れの場合はErrTokenExpired、署名不正・アルゴリズム不一致・
// クレーム欠落などその他の失敗はErrTokenInvalidを返す。
func (i *TokenIssuer) Parse(tokenString string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("%w: missing user_id claim", ErrTokenInvalid)
	}
	return claims.UserID, nil
}
