package document

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator 组件 ID 生成器，生成的 ID 不会重复使用
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator 使用 UUIDv7（按时间单调递增）
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// 随机源异常时退回 v4，仍然保证唯一
		return uuid.NewString()
	}
	return id.String()
}

// SequenceGenerator 递增序号生成器（种子文档和测试用）
type SequenceGenerator struct {
	prefix string
	next   atomic.Int64
}

func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

func (g *SequenceGenerator) NewID() string {
	return g.prefix + strconv.FormatInt(g.next.Add(1), 10)
}
