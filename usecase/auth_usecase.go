package usecase

import (
	"context"
	"fmt"
	"time"

	"pagebuilder-go-server/domain/entity"
	domainErrors "pagebuilder-go-server/domain/errors"
	"pagebuilder-go-server/domain/repository"
	"pagebuilder-go-server/internal/session"

	"go.uber.org/zap"
)

// AuthUseCase 登录代理：凭证交给身份服务，本地解码令牌并同步用户
type AuthUseCase struct {
	auth     session.Authenticator
	userRepo repository.UserRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthUseCase(auth session.Authenticator, userRepo repository.UserRepository, logger *zap.Logger) *AuthUseCase {
	return &AuthUseCase{
		auth:     auth,
		userRepo: userRepo,
		logger:   logger.Named("auth"),
		now:      time.Now,
	}
}

// LoginResult 登录结果
type LoginResult struct {
	Token string      `json:"token"`
	User  entity.User `json:"user"`
}

// Login 登录
// 身份服务拒绝 -> ErrInvalidCredentials；令牌无法解码 -> ErrInvalidToken
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domainErrors.ErrInvalidCredentials)
	}

	token, err := uc.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	claims, err := session.Decode(token, uc.now())
	if err != nil {
		uc.logger.Warn("identity service returned an undecodable token", zap.Error(err))
		return nil, err
	}

	user := claims.User()
	if err := uc.userRepo.Upsert(&user); err != nil {
		// 用户同步失败不影响登录
		uc.logger.Error("sync user failed", zap.String("user", user.ID), zap.Error(err))
	}

	uc.logger.Info("user logged in", zap.String("user", user.ID))
	return &LoginResult{Token: token, User: user}, nil
}
