package session

import (
	"fmt"
	"sync"
	"time"

	"pagebuilder-go-server/domain/entity"
	domainErrors "pagebuilder-go-server/domain/errors"

	"go.uber.org/zap"
)

// Session 当前登录状态
// 生命周期：InitFromStorage -> SetOnLogin / ClearOnLogout
// 会话状态与页面文档无关，认证失败不会影响任何文档
type Session struct {
	store  TokenStore
	logger *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	token string
	user  *entity.User
}

func New(store TokenStore, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{store: store, logger: logger.Named("session"), now: time.Now}
}

// InitFromStorage 从存储恢复会话
// token 无法解码或已过期时从存储中删除，会话保持未登录；不返回错误
func (s *Session) InitFromStorage() {
	token, err := s.store.Load()
	if err != nil {
		s.logger.Warn("load token failed", zap.Error(err))
		return
	}
	if token == "" {
		return
	}

	claims, err := Decode(token, s.now())
	if err != nil {
		s.logger.Info("stored token rejected", zap.Error(err))
		if rmErr := s.store.Remove(); rmErr != nil {
			s.logger.Warn("remove token failed", zap.Error(rmErr))
		}
		s.clear()
		return
	}
	s.set(token, claims)
}

// SetOnLogin 登录成功后保存 token
// token 无法解码时删除已存储的 token 并返回 ErrInvalidToken
func (s *Session) SetOnLogin(token string) error {
	claims, err := Decode(token, s.now())
	if err != nil {
		if rmErr := s.store.Remove(); rmErr != nil {
			s.logger.Warn("remove token failed", zap.Error(rmErr))
		}
		s.clear()
		return err
	}
	if err := s.store.Save(token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	s.set(token, claims)
	return nil
}

// ClearOnLogout 退出登录
func (s *Session) ClearOnLogout() error {
	s.clear()
	if err := s.store.Remove(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// User 当前用户
func (s *Session) User() (entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return entity.User{}, domainErrors.ErrNotAuthenticated
	}
	return *s.user, nil
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Token 当前 token，未登录时为空串
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) set(token string, claims *Claims) {
	user := claims.User()
	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()
}

func (s *Session) clear() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
}
