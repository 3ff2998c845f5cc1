package ws

import (
	"errors"
	"fmt"
	"sync"

	domainErrors "pagebuilder-go-server/domain/errors"
	"pagebuilder-go-server/internal/document"

	"go.uber.org/zap"
)

// ========== Actor Model: Hub 是生死的唯一仲裁者 ==========
// Hub 不处理任何业务消息，只管理 Room 的生命周期

// Hub 维护房间目录
type Hub struct {
	rooms       map[string]*Room
	mu          sync.RWMutex
	idleRoom    chan *Room // Room 空闲信号（请求销毁）
	pageService PageService
	ids         document.IDGenerator
	logger      *zap.Logger
}

// PageService 接口，用于数据库操作
type PageService interface {
	// GetPageState 返回序列化的组件序列，如果页面不存在返回 (nil, 0, ErrPageNotFound)
	GetPageState(pageID string) ([]byte, int64, error)
	// PageExists 检查页面是否存在
	PageExists(pageID string) (bool, error)
	// SavePageState 保存页面状态（支持版本跳跃）
	// oldVersion: 上次持久化的版本（用于乐观锁检查）
	// newVersion: 当前内存中的版本（要写入 DB）
	SavePageState(pageID string, state []byte, oldVersion, newVersion int64) error
}

// NewHub 创建 Hub 实例
func NewHub(pageService PageService, ids document.IDGenerator, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:       make(map[string]*Room),
		idleRoom:    make(chan *Room, 16),
		pageService: pageService,
		ids:         ids,
		logger:      logger,
	}
}

// Run Hub 事件循环
func (h *Hub) Run() {
	h.logger.Named("hub").Info("hub started")

	for room := range h.idleRoom {
		// handleIdleRoom 会阻塞等待刷盘完成，不能卡住事件循环
		go h.handleIdleRoom(room)
	}
}

// handleIdleRoom 处理空闲房间（双重检查后决定是否销毁）
// ⚠️ 先刷盘，再从 Hub 移除，并检查指针同一性
func (h *Hub) handleIdleRoom(room *Room) {
	// 双重检查：Room 可能在我们处理期间又有人加入了
	if room.ClientCount() > 0 {
		h.logger.Named("hub").Info("room reoccupied, keep alive", zap.String("room", room.ID))
		return
	}

	room.Stop()

	h.mu.Lock()
	defer h.mu.Unlock()

	// ⚠️ 检查 Map 里的房间是不是当初那个房间
	// 防止 GetOrCreateRoom 在刷盘期间创建了新房间，结果被我们删了
	if currentRoom, ok := h.rooms[room.ID]; ok && currentRoom == room {
		delete(h.rooms, room.ID)
		h.logger.Named("hub").Info("room destroyed", zap.String("room", room.ID))
	}
}

// GetRoom 只读获取房间，不创建（供 HTTP 请求使用）
// 只要房间在内存就返回它，内存数据永远比 DB 新
func (h *Hub) GetRoom(roomID string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[roomID]
}

// GetOrCreateRoom 线程安全地获取或创建房间
// ⚠️ 只有在数据库中存在的页面才会创建房间
func (h *Hub) GetOrCreateRoom(roomID string) (*Room, error) {
	// 先尝试读锁快速路径
	h.mu.RLock()
	room, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if exists {
		if room.IsStopping() {
			return nil, domainErrors.ErrRoomClosing
		}
		return room, nil
	}

	// 不存在，加写锁创建
	h.mu.Lock()
	defer h.mu.Unlock()

	// 双重检查
	room, exists = h.rooms[roomID]
	if exists {
		if room.IsStopping() {
			return nil, domainErrors.ErrRoomClosing
		}
		return room, nil
	}

	state, version, err := h.pageService.GetPageState(roomID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrPageNotFound) {
			return nil, domainErrors.ErrPageNotFound
		}
		h.logger.Named("hub").Error("load page failed", zap.String("room", roomID), zap.Error(err))
		return nil, err
	}

	doc, err := document.Decode(state)
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}

	room = NewRoom(roomID, doc, version, h.pageService, h)
	h.rooms[roomID] = room
	return room, nil
}

// NotifyIdle 供 Room 调用，通知 Hub 房间空闲
func (h *Hub) NotifyIdle(room *Room) {
	select {
	case h.idleRoom <- room:
	default:
		go h.handleIdleRoom(room)
	}
}

// CloseRoom 强制关闭房间（供 API 删除页面时调用）
// ⚠️ 先关闭房间并刷盘，后删数据库
func (h *Hub) CloseRoom(roomID string) {
	h.mu.Lock()
	room, exists := h.rooms[roomID]
	if !exists {
		h.mu.Unlock()
		return
	}
	// 先从 map 中移除（防止新用户加入）
	delete(h.rooms, roomID)
	h.mu.Unlock()

	room.StopWithReason(ErrPageDeleted, "page has been deleted")
	h.logger.Named("hub").Info("room closed", zap.String("room", roomID))
}

// Shutdown 关闭所有房间并刷盘（进程退出时调用）
func (h *Hub) Shutdown() {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for id, room := range h.rooms {
		rooms = append(rooms, room)
		delete(h.rooms, id)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, room := range rooms {
		wg.Add(1)
		go func(r *Room) {
			defer wg.Done()
			r.Stop()
		}(room)
	}
	wg.Wait()
}
