package ws

import (
	"encoding/json"
	"sync"
	"time"

	domainErrors "pagebuilder-go-server/domain/errors"
	"pagebuilder-go-server/internal/document"

	"go.uber.org/zap"
)

// ========== Actor Model: Room 是完全自治的独立单元 ==========
// clients map 只在 run() 循环内访问，无需锁！

// Room 持有页面文档的权威内存副本
type Room struct {
	ID string

	// 文档与版本，由 stateMu 保护
	doc     *document.Document
	version int64
	stateMu sync.RWMutex

	// 串行化 "修改 + 入队广播"，保证广播顺序与版本号顺序一致
	// ⚠️ 不能用 stateMu：事件循环发送 sync 时要读 stateMu
	applyMu sync.Mutex

	// 私有 clients map - 只在 run() 内访问，无需锁
	clients map[*Client]bool

	// 事件通道：所有操作都变成消息
	broadcast  chan *RoomBroadcast // 广播消息
	register   chan *Client        // 加入请求
	unregister chan *Client        // 退出请求
	stopChan   chan struct{}       // 停止信号
	done       chan struct{}       // 事件循环已退出
	stopOnce   sync.Once

	// 人数与关闭状态，供 Hub 在循环外读取
	countMu     sync.RWMutex
	clientCount int
	stopping    bool
	stopNotice  []byte // 关闭前推送给所有客户端的消息

	// 刷盘相关
	lastPersistedVersion int64
	flushMu              sync.Mutex
	flushTicker          *time.Ticker
	pageService          PageService

	ids    document.IDGenerator
	hub    *Hub
	logger *zap.Logger
}

// RoomBroadcast 广播消息结构
type RoomBroadcast struct {
	Message    []byte
	Sender     *Client
	IsCritical bool
}

// 刷盘配置
const (
	FlushInterval  = 30 * time.Second
	FlushThreshold = 50
)

// AnyVersion 跳过版本检查（HTTP 接口直接操作房间时使用）
const AnyVersion int64 = -1

// NewRoom 创建房间并启动事件循环
func NewRoom(id string, doc *document.Document, version int64, pageService PageService, hub *Hub) *Room {
	r := newRoom(id, doc, version, pageService, hub)
	go r.run()

	r.logger.Info("room started", zap.Int64("version", version))
	return r
}

func newRoom(id string, doc *document.Document, version int64, pageService PageService, hub *Hub) *Room {
	logger := zap.NewNop()
	var ids document.IDGenerator = document.UUIDGenerator{}
	if hub != nil {
		logger = hub.logger
		ids = hub.ids
	}
	return &Room{
		ID:                   id,
		doc:                  doc,
		version:              version,
		clients:              make(map[*Client]bool),
		broadcast:            make(chan *RoomBroadcast, 256),
		register:             make(chan *Client),
		unregister:           make(chan *Client),
		stopChan:             make(chan struct{}),
		done:                 make(chan struct{}),
		lastPersistedVersion: version,
		flushTicker:          time.NewTicker(FlushInterval),
		pageService:          pageService,
		ids:                  ids,
		hub:                  hub,
		logger:               logger.Named("room").With(zap.String("room", id)),
	}
}

// run 是房间的主宰，所有逻辑都在这里串行处理，所以 clients map 不需要锁！
func (r *Room) run() {
	defer func() {
		r.flushTicker.Stop()
		r.flushToDB("销毁前")
		r.closeAllClients()
		close(r.done)
		r.logger.Info("room stopped")
	}()

	for {
		select {
		// 1. 处理客户端注册 (无锁！)
		case client := <-r.register:
			r.clients[client] = true
			r.updateClientCount(len(r.clients))
			r.sendSyncToClient(client)
			r.broadcastSystem(TypeUserJoin, client.UserInfo, client)
			r.logger.Info("user joined",
				zap.String("user", client.UserInfo.UserName), zap.Int("clients", len(r.clients)))

		// 2. 处理客户端注销 (无锁！)
		case client := <-r.unregister:
			if _, ok := r.clients[client]; ok {
				delete(r.clients, client)
				client.closeSend()
				r.updateClientCount(len(r.clients))
				r.broadcastSystem(TypeUserLeave, client.UserInfo, client)
				r.logger.Info("user left",
					zap.String("user", client.UserInfo.UserName), zap.Int("clients", len(r.clients)))

				// 房间空了，交给 Hub 决定是否销毁
				if len(r.clients) == 0 && r.hub != nil {
					r.hub.NotifyIdle(r)
				}
			}

		// 3. 处理广播 (核心热路径 - 无锁！)
		case msg := <-r.broadcast:
			r.deliver(msg)

		// 4. 定时刷盘
		case <-r.flushTicker.C:
			r.flushToDB("定时")

		// 5. 停止信号
		case <-r.stopChan:
			return
		}
	}
}

func (r *Room) deliver(msg *RoomBroadcast) {
	for client := range r.clients {
		if msg.Sender != nil && client == msg.Sender {
			continue
		}

		select {
		case client.send <- msg.Message:
		default:
			// 缓冲区满
			if msg.IsCritical {
				r.logger.Warn("critical message blocked, kicking client",
					zap.String("user", client.UserInfo.UserName))
				delete(r.clients, client)
				client.closeSend()
				r.updateClientCount(len(r.clients))
			}
			// 非关键消息直接丢弃
		}
	}
}

func (r *Room) closeAllClients() {
	r.countMu.RLock()
	notice := r.stopNotice
	r.countMu.RUnlock()

	for client := range r.clients {
		if notice != nil {
			select {
			case client.send <- notice:
			default:
			}
		}
		client.closeSend()
		delete(r.clients, client)
	}
	r.updateClientCount(0)
}

// sendSyncToClient 发送全量同步消息给新用户
func (r *Room) sendSyncToClient(client *Client) {
	blocks, version, err := r.SnapshotJSON()
	if err != nil {
		r.logger.Error("encode snapshot failed", zap.Error(err))
		return
	}

	// 收集房间内其他用户信息
	users := make([]UserInfo, 0, len(r.clients))
	for c := range r.clients {
		if c != client {
			users = append(users, c.UserInfo)
		}
	}

	data := newServerMessage(TypeSync, SyncPayload{
		Blocks:  blocks,
		Version: version,
		Users:   users,
	})
	select {
	case client.send <- data:
	default:
	}
}

// broadcastSystem 在事件循环内直接广播系统消息
func (r *Room) broadcastSystem(t MessageType, user UserInfo, sender *Client) {
	r.deliver(&RoomBroadcast{
		Message: newServerMessage(t, user),
		Sender:  sender,
	})
}

// ========== 对外暴露的接口 ==========

// Register 注册客户端到房间
// ⚠️ 必须在启动 ReadPump 之前调用
func (r *Room) Register(client *Client) error {
	client.Room = r
	select {
	case r.register <- client:
		return nil
	case <-r.done:
		return domainErrors.ErrRoomClosing
	}
}

// Unregister 注销客户端
func (r *Room) Unregister(client *Client) {
	select {
	case r.unregister <- client:
	case <-r.done:
	}
}

// Broadcast 广播消息
func (r *Room) Broadcast(message []byte, sender *Client, isCritical bool) {
	select {
	case r.broadcast <- &RoomBroadcast{Message: message, Sender: sender, IsCritical: isCritical}:
	case <-r.done:
	}
}

// Stop 停止房间并阻塞等待刷盘完成（由 Hub 调用）
func (r *Room) Stop() {
	r.countMu.Lock()
	r.stopping = true
	r.countMu.Unlock()

	r.stopOnce.Do(func() { close(r.stopChan) })
	<-r.done
}

// StopWithReason 关闭前通知所有客户端原因（例如页面被删除）
func (r *Room) StopWithReason(code ErrorCode, message string) {
	r.countMu.Lock()
	r.stopNotice = newServerMessage(TypePageDeleted, ErrorPayload{Code: code, Message: message})
	r.countMu.Unlock()
	r.Stop()
}

// ClientCount 当前人数
func (r *Room) ClientCount() int {
	r.countMu.RLock()
	defer r.countMu.RUnlock()
	return r.clientCount
}

// IsStopping 房间是否正在关闭
func (r *Room) IsStopping() bool {
	r.countMu.RLock()
	defer r.countMu.RUnlock()
	return r.stopping
}

func (r *Room) updateClientCount(n int) {
	r.countMu.Lock()
	r.clientCount = n
	r.countMu.Unlock()
}

// ========== 需要锁保护的状态操作 ==========

// Mutate 在锁保护下修改文档
// expectedVersion 为 AnyVersion 时跳过版本检查
// fn 返回 changed=false 时版本号不变；fn 返回错误时文档保持原样
func (r *Room) Mutate(expectedVersion int64, fn func(doc *document.Document) (bool, error)) (int64, error) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	if expectedVersion != AnyVersion && r.version != expectedVersion {
		return r.version, &VersionConflictError{
			CurrentVersion:  r.version,
			ExpectedVersion: expectedVersion,
		}
	}

	changed, err := fn(r.doc)
	if err != nil {
		return r.version, &OpError{Err: err}
	}
	if !changed {
		return r.version, nil
	}
	r.version++

	// 阈值刷盘
	if r.version-r.lastPersistedVersion >= FlushThreshold {
		go r.flushToDB("阈值触发")
	}

	return r.version, nil
}

// Snapshot 获取当前文档副本
func (r *Room) Snapshot() (*document.Document, int64) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.doc.Clone(), r.version
}

// SnapshotJSON 获取当前文档的序列化快照
func (r *Room) SnapshotJSON() ([]byte, int64, error) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	data, err := r.doc.Encode()
	return data, r.version, err
}

// Flush 立即刷盘（显式保存时调用）
func (r *Room) Flush() error {
	return r.flushToDB("手动")
}

// flushToDB 刷盘
// flushMu 保证同一时刻只有一个刷盘在进行，避免旧快照覆盖新快照
func (r *Room) flushToDB(reason string) error {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	r.stateMu.RLock()
	if r.version == r.lastPersistedVersion {
		r.stateMu.RUnlock()
		return nil
	}
	snapshot, err := r.doc.Encode()
	version := r.version
	oldVersion := r.lastPersistedVersion
	r.stateMu.RUnlock()
	if err != nil {
		r.logger.Error("encode snapshot failed", zap.String("reason", reason), zap.Error(err))
		return err
	}

	if err := r.pageService.SavePageState(r.ID, snapshot, oldVersion, version); err != nil {
		r.logger.Warn("flush failed", zap.String("reason", reason), zap.Error(err))
		return err
	}

	r.stateMu.Lock()
	if version > r.lastPersistedVersion {
		r.lastPersistedVersion = version
	}
	r.stateMu.Unlock()

	r.logger.Info("flushed", zap.String("reason", reason), zap.Int64("version", version))
	return nil
}

func newServerMessage(t MessageType, payload any) []byte {
	return encodeMessage(t, "server", payload)
}

func encodeMessage(t MessageType, sender string, payload any) []byte {
	raw, _ := json.Marshal(payload)
	data, _ := json.Marshal(WSMessage{
		Type:      t,
		SenderID:  sender,
		Payload:   raw,
		Timestamp: time.Now().UnixMilli(),
	})
	return data
}
