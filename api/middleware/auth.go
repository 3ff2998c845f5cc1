package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"pagebuilder-go-server/internal/session"

	clerkjwt "github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/gin-gonic/gin"
)

// Identity 通过验证的调用者
type Identity struct {
	UserID string
	Name   string
	Email  string
}

// TokenVerifier 验证 Bearer Token
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// ClerkVerifier 使用 Clerk SDK 验证（需先调用 clerk.SetKey）
// Clerk SDK 会自动拉取公钥并验证签名、过期时间
type ClerkVerifier struct{}

func (ClerkVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	claims, err := clerkjwt.Verify(ctx, &clerkjwt.VerifyParams{Token: token})
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.Subject, Name: claims.Subject}, nil
}

// HMACVerifier 使用共享密钥验证（未配置 Clerk 时使用）
type HMACVerifier struct {
	Secret []byte
	Now    func() time.Time
}

func (v HMACVerifier) Verify(_ context.Context, token string) (Identity, error) {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	claims, err := session.Verify(token, v.Secret, now())
	if err != nil {
		return Identity{}, err
	}
	user := claims.User()
	return Identity{UserID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// Auth 认证中间件
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 获取 Token (支持 Bearer Token)
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "缺少 Authorization 头"})
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		// 2. 验证 Token
		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token 无效", "details": err.Error()})
			return
		}

		// 3. 将用户信息注入上下文，供后续 Controller 使用
		c.Set(ContextKeyUserID, identity.UserID)
		c.Set(ContextKeyIdentity, identity)

		c.Next()
	}
}
