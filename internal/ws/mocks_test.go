package ws

import (
	"pagebuilder-go-server/domain/entity"
	"pagebuilder-go-server/internal/document"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// ========== MockPageService ==========
// 实现 PageService 接口，用于 Hub 和 Room 的单元测试

type MockPageService struct {
	mock.Mock
}

func (m *MockPageService) GetPageState(pageID string) ([]byte, int64, error) {
	args := m.Called(pageID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(int64), args.Error(2)
}

func (m *MockPageService) PageExists(pageID string) (bool, error) {
	args := m.Called(pageID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPageService) SavePageState(pageID string, state []byte, oldVersion, newVersion int64) error {
	args := m.Called(pageID, state, oldVersion, newVersion)
	return args.Error(0)
}

// ========== 测试辅助 ==========

const seedState = `[
	{"id":"A","type":"hero","content":{"title":"a","subtitle":"s"}},
	{"id":"B","type":"description","content":{"text":"b"}},
	{"id":"C","type":"paymentOptions","content":{"methods":["credit"]}}
]`

func newTestHub(svc *MockPageService) *Hub {
	return NewHub(svc, document.NewSequenceGenerator("n"), zap.NewNop())
}

// newTestRoom 创建测试用的 Room（不启动事件循环）
func newTestRoom(svc *MockPageService) *Room {
	doc, _ := document.Decode([]byte(seedState))
	r := newRoom("test-room", doc, 1, svc, newTestHub(svc))
	return r
}

// newTestClient 创建不带连接的客户端，直接读 send 通道断言
func newTestClient(room *Room, userID string) *Client {
	return &Client{
		RoomID:   room.ID,
		UserInfo: UserInfo{UserID: userID, UserName: userID},
		Room:     room,
		send:     make(chan []byte, 16),
		logger:   zap.NewNop(),
	}
}

func blockIDs(r *Room) []string {
	doc, _ := r.Snapshot()
	return doc.IDs()
}

func blockContent(r *Room, id string) entity.Content {
	doc, _ := r.Snapshot()
	b, _ := doc.Block(id)
	return b.Content
}
