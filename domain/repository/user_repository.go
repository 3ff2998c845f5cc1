package repository

import "pagebuilder-go-server/domain/entity"

type UserRepository interface {
	// Upsert = Update + Insert（存在则更新，不存在则创建）
	Upsert(user *entity.User) error

	// GetByID 根据 user_id 获取用户，不存在时返回 (nil, nil)
	GetByID(userID string) (*entity.User, error)
}
