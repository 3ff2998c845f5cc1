package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 心跳配置
const (
	pongWait       = 60 * time.Second    // 等待 Pong 响应的最大时间
	pingPeriod     = (pongWait * 9) / 10 // Ping 发送间隔，必须小于 pongWait
	writeWait      = 10 * time.Second    // 写消息超时时间
	maxMessageSize = 512 * 1024          // 最大消息大小，防止恶意攻击
)

// Client 代表一个 WebSocket 客户端连接
type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	RoomID   string
	UserInfo UserInfo
	Room     *Room       // 所属房间引用
	send     chan []byte // 发送消息缓冲区
	logger   *zap.Logger

	// send 只由房间事件循环关闭；客户端自己发消息前要检查 sendClosed
	sendMu     sync.Mutex
	sendClosed bool
}

// NewClient 创建客户端实例
func NewClient(hub *Hub, conn *websocket.Conn, roomID string, userInfo UserInfo) *Client {
	return &Client{
		Hub:      hub,
		Conn:     conn,
		RoomID:   roomID,
		UserInfo: userInfo,
		send:     make(chan []byte, 256),
		logger:   hub.logger.Named("client").With(zap.String("room", roomID), zap.String("user", userInfo.UserID)),
	}
}

// WritePump 负责写消息和发送心跳 Ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				// send channel 已关闭，发送关闭帧
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			// 定时发送 Ping 保活
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump 负责读消息和处理心跳 Pong
func (c *Client) ReadPump() {
	defer func() {
		if c.Room != nil {
			c.Room.Unregister(c)
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))

	// 收到 Pong 时重置读超时
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("connection closed unexpectedly", zap.Error(err))
			}
			break
		}

		// 收到消息也重置读超时
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handleMessage(message)
	}
}

// handleMessage 按消息类型分发
func (c *Client) handleMessage(message []byte) {
	var msg WSMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.sendError(ErrOpInvalid, "invalid message")
		return
	}

	switch {
	case msg.Type.Critical():
		c.handleOp(msg)
	case msg.Type == TypeSelect:
		c.handleSelect(msg)
	default:
		c.sendError(ErrOpInvalid, fmt.Sprintf("unsupported message type %q", msg.Type))
	}
}

// handleOp 处理组件编辑消息
func (c *Client) handleOp(msg WSMessage) {
	if c.Room == nil {
		c.sendError(ErrRoomNotFound, c.RoomID)
		return
	}

	var op OpPayload
	if err := json.Unmarshal(msg.Payload, &op); err != nil {
		c.sendError(ErrOpInvalid, err.Error())
		return
	}

	// 版本检查在锁保护下进行
	ack, err := c.Room.Apply(c, msg.Type, op)
	if err != nil {
		var versionErr *VersionConflictError
		var opErr *OpError

		switch {
		case errors.As(err, &versionErr):
			c.sendError(ErrVersionConflict, fmt.Sprintf("current: %d, expected: %d",
				versionErr.CurrentVersion, versionErr.ExpectedVersion))
		case errors.As(err, &opErr):
			c.sendError(ErrOpFailed, opErr.Error())
		default:
			c.sendError(ErrInternalError, err.Error())
		}
		c.logger.Info("op rejected", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}

	c.sendMessage(newServerMessage(TypeAck, ack))
}

// handleSelect 处理选中消息
// 选中是非关键消息，阻塞时静默跳过
func (c *Client) handleSelect(msg WSMessage) {
	if c.Room == nil {
		return
	}
	var payload SelectPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.sendError(ErrOpInvalid, err.Error())
		return
	}
	c.Room.Broadcast(encodeMessage(TypeSelect, c.UserInfo.UserID, payload), c, false)
}

// sendError 发送结构化错误消息
func (c *Client) sendError(code ErrorCode, message string) {
	c.sendMessage(newServerMessage(TypeError, ErrorPayload{
		Code:    code,
		Message: message,
	}))
}

// sendMessage 给自己发消息，缓冲区满或已被房间关闭时丢弃
func (c *Client) sendMessage(data []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, dropping message")
	}
}

// closeSend 关闭发送通道，重复调用无副作用
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}
