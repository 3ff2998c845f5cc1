package ws

import (
	"errors"
	"fmt"

	"pagebuilder-go-server/domain/entity"
	"pagebuilder-go-server/internal/document"

	"go.uber.org/zap"
)

// ApplyOp 把一条组件编辑应用到文档
// 房间和无房间时的 HTTP 路径共用这一份逻辑
// 返回是否有变化，以及 block-add 新建的组件
func ApplyOp(doc *document.Document, ids document.IDGenerator, t MessageType, op OpPayload) (bool, *entity.Block, error) {
	switch t {
	case TypeBlockAdd:
		if !op.BlockType.Known() {
			return false, nil, fmt.Errorf("%w: %q", document.ErrUnknownBlockType, op.BlockType)
		}
		block := doc.AddBlock(ids, op.BlockType)
		return true, &block, nil
	case TypeBlockMove:
		if op.Drag == nil {
			return false, nil, errors.New("drag result is required")
		}
		return document.Reorder(doc, *op.Drag), nil, nil
	case TypeBlockUpdate:
		changed, err := doc.UpdateByID(op.BlockID, op.Content)
		return changed, nil, err
	case TypeBlockEdit:
		if op.Edit == nil {
			return false, nil, errors.New("edit command is required")
		}
		edit, err := op.Edit.Edit()
		if err != nil {
			return false, nil, err
		}
		changed, err := document.ApplyEdit(doc, op.BlockID, edit)
		return changed, nil, err
	case TypeBlockRemove:
		return doc.RemoveByID(op.BlockID), nil, nil
	default:
		return false, nil, fmt.Errorf("unsupported message type %q", t)
	}
}

// Apply 把一条组件编辑应用到房间文档，成功且有变化时广播给其他用户
// sender 为 nil 表示来自 HTTP 接口，此时广播给房间内所有人
// 广播按版本号递增入队，客户端按到达顺序应用即可
func (r *Room) Apply(sender *Client, t MessageType, op OpPayload) (AckPayload, error) {
	r.applyMu.Lock()
	defer r.applyMu.Unlock()

	var (
		added   *entity.Block
		changed bool
	)

	version, err := r.Mutate(op.Version, func(doc *document.Document) (bool, error) {
		var err error
		changed, added, err = ApplyOp(doc, r.ids, t, op)
		return changed, err
	})
	if err != nil {
		return AckPayload{Version: version}, err
	}

	ack := AckPayload{Version: version, Changed: changed}
	if added != nil {
		ack.BlockID = added.ID
	}
	if changed {
		r.Broadcast(encodeMessage(t, senderID(sender), AppliedPayload{
			Version: version,
			Op:      op,
			Block:   added,
		}), sender, true)
	}
	return ack, nil
}

// Replace 整体替换文档（显式保存整页），并向所有人推送全量同步
func (r *Room) Replace(expectedVersion int64, blocks []entity.Block) (int64, error) {
	r.applyMu.Lock()
	defer r.applyMu.Unlock()

	version, err := r.Mutate(expectedVersion, func(doc *document.Document) (bool, error) {
		doc.Replace(blocks)
		return true, nil
	})
	if err != nil {
		return version, err
	}

	data, syncVersion, err := r.SnapshotJSON()
	if err != nil {
		r.logger.Error("encode snapshot failed", zap.Error(err))
		return version, nil
	}
	r.Broadcast(newServerMessage(TypeSync, SyncPayload{Blocks: data, Version: syncVersion}), nil, true)
	return version, nil
}

func senderID(c *Client) string {
	if c == nil {
		return "server"
	}
	return c.UserInfo.UserID
}
