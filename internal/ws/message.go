package ws

import (
	"encoding/json"

	"pagebuilder-go-server/domain/entity"
	"pagebuilder-go-server/internal/document"
)

type MessageType string

const (
	// 组件编辑消息（关键消息，携带版本号）
	TypeBlockAdd    MessageType = "block-add"    // 追加组件
	TypeBlockMove   MessageType = "block-move"   // 拖拽排序结果
	TypeBlockUpdate MessageType = "block-update" // 部分内容更新
	TypeBlockEdit   MessageType = "block-edit"   // 属性面板编辑
	TypeBlockRemove MessageType = "block-remove" // 删除组件

	// 选中状态（非关键消息，只做协同提示）
	TypeSelect MessageType = "select"

	// 系统消息
	TypeUserJoin    MessageType = "user-join"    // 用户加入房间
	TypeUserLeave   MessageType = "user-leave"   // 用户离开房间
	TypeSync        MessageType = "sync"         // 全量同步（用于新用户加入）
	TypeAck         MessageType = "ack"          // 确认消息
	TypeError       MessageType = "error"        // 错误消息
	TypePageDeleted MessageType = "page-deleted" // 页面被删除，房间关闭
)

// Critical 是否为关键消息（发送阻塞时踢出客户端）
func (t MessageType) Critical() bool {
	switch t {
	case TypeBlockAdd, TypeBlockMove, TypeBlockUpdate, TypeBlockEdit, TypeBlockRemove:
		return true
	}
	return false
}

// WSMessage 统一的 WebSocket 消息结构
type WSMessage struct {
	Type      MessageType     `json:"type"`     // 消息类型
	SenderID  string          `json:"senderId"` // 发送者id
	Payload   json.RawMessage `json:"payload"`  // 消息内容
	Timestamp int64           `json:"ts"`       // 时间戳
}

// OpPayload 组件编辑消息的 payload
// 不同消息类型使用其中不同的字段
type OpPayload struct {
	Version   int64                 `json:"version"`             // 客户端基于的版本
	BlockID   string                `json:"blockId,omitempty"`   // update / edit / remove
	BlockType entity.BlockType      `json:"blockType,omitempty"` // add
	Drag      *document.DragResult  `json:"drag,omitempty"`      // move
	Content   document.Patch        `json:"content,omitempty"`   // update
	Edit      *document.EditCommand `json:"edit,omitempty"`      // edit
}

// AppliedPayload 已应用的编辑，广播给房间内其他用户
type AppliedPayload struct {
	Version int64         `json:"version"`         // 应用后的版本
	Op      OpPayload     `json:"op"`              // 原始操作
	Block   *entity.Block `json:"block,omitempty"` // block-add 时携带服务端生成的组件
}

// AckPayload 发送者收到的确认
type AckPayload struct {
	Version int64  `json:"version"`
	BlockID string `json:"blockId,omitempty"`
	Changed bool   `json:"changed"`
}

// SelectPayload 选中状态
type SelectPayload struct {
	BlockID string `json:"blockId"`
}

// SyncPayload sync 消息的 payload（新用户加入时发送）
type SyncPayload struct {
	Blocks  json.RawMessage `json:"blocks"`
	Version int64           `json:"version"`
	Users   []UserInfo      `json:"users"`
}

// UserInfo 用户基础信息
type UserInfo struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Color    string `json:"color,omitempty"`
}

// ========== 错误码系统 ==========
// 前端根据 Code 判断错误类型，而不是匹配 Message 字符串

type ErrorCode string

const (
	ErrVersionConflict ErrorCode = "VERSION_CONFLICT" // 版本冲突
	ErrOpInvalid       ErrorCode = "OP_INVALID"       // 消息格式错误
	ErrOpFailed        ErrorCode = "OP_FAILED"        // 编辑应用失败
	ErrRoomNotFound    ErrorCode = "ROOM_NOT_FOUND"   // 房间不存在
	ErrUnauthorized    ErrorCode = "UNAUTHORIZED"     // 未授权
	ErrPageDeleted     ErrorCode = "PAGE_DELETED"     // 页面已删除
	ErrInternalError   ErrorCode = "INTERNAL_ERROR"   // 服务器内部错误
)

// ErrorPayload 错误消息的 payload 结构
type ErrorPayload struct {
	Code    ErrorCode `json:"code"`    // 错误码（前端用于判断逻辑）
	Message string    `json:"message"` // 错误描述（用于调试/日志）
}

// ========== 自定义错误类型 ==========
// 使用类型断言判断错误，而非字符串匹配

// VersionConflictError 版本冲突错误
type VersionConflictError struct {
	CurrentVersion  int64
	ExpectedVersion int64
}

func (e *VersionConflictError) Error() string {
	return "version conflict"
}

// OpError 编辑无法应用到文档（字段不适用、值非法等）
type OpError struct {
	Err error
}

func (e *OpError) Error() string {
	return e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}
