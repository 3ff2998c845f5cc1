// Package session 登录会话：token 解码、持久化与生命周期
package session

import (
	"fmt"
	"time"

	"pagebuilder-go-server/domain/entity"
	domainErrors "pagebuilder-go-server/domain/errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 登录 token 中的声明
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// User 把声明转换为用户，name 缺省时使用 email
func (c *Claims) User() entity.User {
	name := c.Name
	if name == "" {
		name = c.Email
	}
	return entity.User{ID: c.Subject, Email: c.Email, Name: name}
}

// Decode 本地解码 token（不校验签名）
// 解码失败、缺少 sub 或已过期都返回 ErrInvalidToken
func Decode(token string, now time.Time) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrInvalidToken, err)
	}
	if err := checkClaims(claims, now); err != nil {
		return nil, err
	}
	return claims, nil
}

// Verify 校验 HMAC 签名并解码（服务端中间件使用）
func Verify(token string, secret []byte, now time.Time) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrInvalidToken, err)
	}
	if err := checkClaims(claims, now); err != nil {
		return nil, err
	}
	return claims, nil
}

// Sign 签发 HMAC token（开发环境和测试使用）
func Sign(user entity.User, secret []byte, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func checkClaims(c *Claims, now time.Time) error {
	if c.Subject == "" {
		return fmt.Errorf("%w: missing subject", domainErrors.ErrInvalidToken)
	}
	if c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time) {
		return fmt.Errorf("%w: %v", domainErrors.ErrInvalidToken, jwt.ErrTokenExpired)
	}
	return nil
}
