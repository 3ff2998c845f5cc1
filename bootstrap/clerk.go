package bootstrap

import (
	"github.com/clerk/clerk-sdk-go/v2"
	"go.uber.org/zap"
)

// InitClerk 配置了 CLERK_SECRET_KEY 时启用 Clerk 验证
// 返回是否启用
func InitClerk(secret string, log *zap.Logger) bool {
	if secret == "" {
		log.Warn("⚠️ CLERK_SECRET_KEY not set, falling back to JWT_SECRET verification")
		return false
	}
	clerk.SetKey(secret)
	log.Info("Clerk initialized")
	return true
}
