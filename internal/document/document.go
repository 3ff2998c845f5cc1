// Package document 页面文档模型：有序组件序列及其变更操作
//
// Document 不是并发安全的：同一时刻只有一个写者（Room 事件循环或单个 HTTP 请求）。
package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"pagebuilder-go-server/domain/entity"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Patch 部分内容更新：只包含要修改的字段（JSON 字段名 -> 新值）
type Patch map[string]any

// Document 有序组件序列，顺序即渲染顺序
type Document struct {
	blocks []entity.Block
}

// New 基于已有组件创建文档（深拷贝，调用方后续修改不影响文档）
func New(blocks []entity.Block) *Document {
	d := &Document{blocks: make([]entity.Block, 0, len(blocks))}
	for _, b := range blocks {
		d.blocks = append(d.blocks, b.Clone())
	}
	return d
}

// Decode 从序列化格式恢复文档
func Decode(data []byte) (*Document, error) {
	blocks, err := entity.DecodeBlocks(data)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &Document{blocks: blocks}, nil
}

// Encode 序列化为 [{id, type, content, styles?}, ...]
func (d *Document) Encode() ([]byte, error) {
	return entity.EncodeBlocks(d.blocks)
}

func (d *Document) MarshalJSON() ([]byte, error) {
	return d.Encode()
}

// Len 组件数量
func (d *Document) Len() int {
	return len(d.blocks)
}

// Blocks 返回快照（深拷贝）
func (d *Document) Blocks() []entity.Block {
	out := make([]entity.Block, len(d.blocks))
	for i, b := range d.blocks {
		out[i] = b.Clone()
	}
	return out
}

// IDs 按顺序返回全部组件 ID
func (d *Document) IDs() []string {
	ids := make([]string, len(d.blocks))
	for i, b := range d.blocks {
		ids[i] = b.ID
	}
	return ids
}

// IndexOf 查找组件位置，不存在返回 -1
func (d *Document) IndexOf(blockID string) int {
	for i, b := range d.blocks {
		if b.ID == blockID {
			return i
		}
	}
	return -1
}

// Block 按 ID 获取组件副本
func (d *Document) Block(blockID string) (entity.Block, bool) {
	i := d.IndexOf(blockID)
	if i < 0 {
		return entity.Block{}, false
	}
	return d.blocks[i].Clone(), true
}

// Append 追加到末尾
// 不检查 ID 唯一性，唯一性由 ID 生成器保证
func (d *Document) Append(block entity.Block) {
	d.blocks = append(d.blocks, block.Clone())
}

// MoveTo 把 from 位置的组件移到 to 位置
// from/to 都是当前序列中的下标，to 按移除后的序列解释
// - from 越界：不做任何事
// - to 被截断到 [0, len]
// - blockID 非空且与 from 位置的组件不一致：视为过期手势，不做任何事
// 返回是否真的发生了移动
func (d *Document) MoveTo(blockID string, from, to int) bool {
	if from < 0 || from >= len(d.blocks) {
		return false
	}
	if blockID != "" && d.blocks[from].ID != blockID {
		return false
	}

	moved := d.blocks[from]
	rest := make([]entity.Block, 0, len(d.blocks))
	rest = append(rest, d.blocks[:from]...)
	rest = append(rest, d.blocks[from+1:]...)

	if to < 0 {
		to = 0
	}
	if to > len(rest) {
		to = len(rest)
	}

	out := make([]entity.Block, 0, len(d.blocks))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	d.blocks = out
	return from != to
}

// UpdateByID 用部分内容浅合并更新组件：新字段覆盖，未提及字段保持原值
// 找不到组件或合并后内容没有变化时返回 (false, nil)
// 合并结果无法解码回该类型时返回错误，文档同样不变
func (d *Document) UpdateByID(blockID string, patch Patch) (bool, error) {
	i := d.IndexOf(blockID)
	if i < 0 {
		return false, nil
	}

	merged, err := MergeContent(d.blocks[i].Type, d.blocks[i].Content, patch)
	if err != nil {
		return false, err
	}
	// 该类型没有的字段会被丢弃，合并后与原内容相同时不算更新
	if sameContent(d.blocks[i].Content, merged) {
		return false, nil
	}
	d.blocks[i].Content = merged
	return true, nil
}

func sameContent(a, b entity.Content) bool {
	if a == nil || b == nil {
		return a == b
	}
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// RemoveByID 删除组件，不存在时不做任何事
func (d *Document) RemoveByID(blockID string) bool {
	i := d.IndexOf(blockID)
	if i < 0 {
		return false
	}
	d.blocks = append(d.blocks[:i:i], d.blocks[i+1:]...)
	return true
}

// MergeContent 以 RFC 7396 merge patch 方式合并内容
// 内容字段都是扁平的（数组整体替换），因此等价于浅合并
// ⚠️ patch 中值为 null 的字段会被清除，回退为零值
func MergeContent(t entity.BlockType, current entity.Content, patch Patch) (entity.Content, error) {
	if current == nil {
		current = entity.NewContent(t)
	}
	if len(patch) == 0 {
		return entity.CloneContent(current), nil
	}

	orig, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("encode %s content: %w", t, err)
	}
	patchBytes, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}

	mergedBytes, err := jsonpatch.MergePatch(orig, patchBytes)
	if err != nil {
		return nil, fmt.Errorf("merge %s content: %w", t, err)
	}

	merged := entity.NewContent(t)
	if err := json.Unmarshal(mergedBytes, merged); err != nil {
		return nil, fmt.Errorf("invalid value for %s content: %w", t, err)
	}
	return merged, nil
}

// Clone 深拷贝整个文档
func (d *Document) Clone() *Document {
	return New(d.blocks)
}

// Replace 整体替换组件序列（显式保存整页时使用）
func (d *Document) Replace(blocks []entity.Block) {
	d.blocks = New(blocks).blocks
}
