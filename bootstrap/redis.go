package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pagebuilder-go-server/internal/upload"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrEmptyRedisAddress 未配置 Redis 地址
var ErrEmptyRedisAddress = errors.New("redis address is required")

const redisPingTimeout = 5 * time.Second

// NewRedisClient 创建 Redis 客户端并验证连接
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, ErrEmptyRedisAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewStatusStore 上传状态存储
// Redis 不可用时退回内存存储（单实例部署足够）
func NewStatusStore(env *Env, log *zap.Logger) upload.StatusStore {
	if env.RedisAddr == "" {
		return upload.NewMemoryStatusStore()
	}

	client, err := NewRedisClient(env.RedisAddr, env.RedisPassword, env.RedisDB)
	if err != nil {
		log.Warn("Redis not available, upload status kept in memory", zap.Error(err))
		return upload.NewMemoryStatusStore()
	}

	log.Info("upload status store initialized", zap.String("redis_address", env.RedisAddr))
	return upload.NewRedisStatusStore(client)
}
