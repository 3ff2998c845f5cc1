package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== Client 消息分发测试 ==========

func readMessage(t *testing.T, c *Client) (WSMessage, []byte) {
	t.Helper()
	select {
	case data := <-c.send:
		var msg WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg, msg.Payload
	default:
		t.Fatal("expected a message")
		return WSMessage{}, nil
	}
}

func TestClient_HandleMessage(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		wantType MessageType
		wantCode ErrorCode
	}{
		{
			name:     "move is acked",
			raw:      `{"type":"block-move","payload":{"version":1,"drag":{"draggableId":"A","source":{"droppableId":"canvas","index":0},"destination":{"droppableId":"canvas","index":1}}}}`,
			wantType: TypeAck,
		},
		{
			name:     "stale version",
			raw:      `{"type":"block-remove","payload":{"version":9,"blockId":"A"}}`,
			wantType: TypeError,
			wantCode: ErrVersionConflict,
		},
		{
			name:     "edit not applicable",
			raw:      `{"type":"block-edit","payload":{"version":1,"blockId":"A","edit":{"op":"toggleMethod","method":"paypal"}}}`,
			wantType: TypeError,
			wantCode: ErrOpFailed,
		},
		{
			name:     "bad payload",
			raw:      `{"type":"block-update","payload":"nope"}`,
			wantType: TypeError,
			wantCode: ErrOpInvalid,
		},
		{
			name:     "unsupported type",
			raw:      `{"type":"cursor-move","payload":{}}`,
			wantType: TypeError,
			wantCode: ErrOpInvalid,
		},
		{
			name:     "not json",
			raw:      `<<<`,
			wantType: TypeError,
			wantCode: ErrOpInvalid,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			room := newTestRoom(new(MockPageService))
			client := newTestClient(room, "u1")

			client.handleMessage([]byte(tc.raw))

			msg, payload := readMessage(t, client)
			assert.Equal(t, tc.wantType, msg.Type)
			if tc.wantCode != "" {
				var errPayload ErrorPayload
				require.NoError(t, json.Unmarshal(payload, &errPayload))
				assert.Equal(t, tc.wantCode, errPayload.Code)
			}
		})
	}
}

func TestClient_AddAckCarriesBlockID(t *testing.T) {
	room := newTestRoom(new(MockPageService))
	client := newTestClient(room, "u1")

	client.handleMessage([]byte(`{"type":"block-add","payload":{"version":1,"blockType":"logo"}}`))

	msg, payload := readMessage(t, client)
	require.Equal(t, TypeAck, msg.Type)
	var ack AckPayload
	require.NoError(t, json.Unmarshal(payload, &ack))
	assert.Equal(t, AckPayload{Version: 2, BlockID: "n1", Changed: true}, ack)
	assert.Equal(t, []string{"A", "B", "C", "n1"}, blockIDs(room))
}

func TestClient_SelectIsNonCritical(t *testing.T) {
	room := newTestRoom(new(MockPageService))
	client := newTestClient(room, "u1")

	client.handleMessage([]byte(`{"type":"select","payload":{"blockId":"B"}}`))

	b := <-room.broadcast
	assert.False(t, b.IsCritical)
	assert.Same(t, client, b.Sender)
	// 选中不改变文档版本
	_, version := room.Snapshot()
	assert.Equal(t, int64(1), version)
}

func TestClient_NoRoom(t *testing.T) {
	client := &Client{RoomID: "r", send: make(chan []byte, 1), logger: newTestHub(nil).logger}

	client.handleMessage([]byte(`{"type":"block-remove","payload":{"version":1,"blockId":"A"}}`))

	_, payload := readMessage(t, client)
	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(payload, &errPayload))
	assert.Equal(t, ErrRoomNotFound, errPayload.Code)
}

func TestClient_SendAfterRoomClosedIsDropped(t *testing.T) {
	room := newTestRoom(new(MockPageService))
	c := newTestClient(room, "u1")

	c.closeSend()
	c.closeSend()

	assert.NotPanics(t, func() { c.sendError(ErrOpInvalid, "late") })
	_, ok := <-c.send
	assert.False(t, ok)
}

func TestClient_SendRacesWithClose(t *testing.T) {
	room := newTestRoom(new(MockPageService))
	c := newTestClient(room, "u1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			c.sendMessage([]byte("x"))
		}
	}()
	c.closeSend()
	<-done

	// 关闭后通道中只剩关闭前写入的消息
	for range c.send {
	}
	assert.True(t, c.sendClosed)
}
