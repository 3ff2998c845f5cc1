package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// State 上传状态
type State string

const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
	StateSuccess   State = "success"
	StateError     State = "error"
)

// Status 某个 logo 组件的上传状态
type Status struct {
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
}

// StatusStore 上传状态存储
// 不存在的记录返回 idle
type StatusStore interface {
	Get(ctx context.Context, pageID, blockID string) (Status, error)
	Set(ctx context.Context, pageID, blockID string, status Status) error
}

func statusKey(pageID, blockID string) string {
	return "upload:" + pageID + ":" + blockID
}

// ========== 内存实现 ==========

type MemoryStatusStore struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{statuses: make(map[string]Status)}
}

func (s *MemoryStatusStore) Get(_ context.Context, pageID, blockID string) (Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.statuses[statusKey(pageID, blockID)]; ok {
		return st, nil
	}
	return Status{State: StateIdle}, nil
}

func (s *MemoryStatusStore) Set(_ context.Context, pageID, blockID string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[statusKey(pageID, blockID)] = status
	return nil
}

// ========== Redis 实现 ==========

// StatusTTL 状态保留时间
const StatusTTL = time.Hour

type RedisStatusStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStatusStore(client redis.UniversalClient) *RedisStatusStore {
	return &RedisStatusStore{client: client, ttl: StatusTTL}
}

func (s *RedisStatusStore) Get(ctx context.Context, pageID, blockID string) (Status, error) {
	data, err := s.client.Get(ctx, statusKey(pageID, blockID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Status{State: StateIdle}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("get upload status: %w", err)
	}

	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return Status{}, fmt.Errorf("decode upload status: %w", err)
	}
	return st, nil
}

func (s *RedisStatusStore) Set(ctx context.Context, pageID, blockID string, status Status) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode upload status: %w", err)
	}
	if err := s.client.Set(ctx, statusKey(pageID, blockID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set upload status: %w", err)
	}
	return nil
}
