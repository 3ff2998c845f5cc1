package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"

	"pagebuilder-go-server/domain/entity"
	"pagebuilder-go-server/internal/document"
	"pagebuilder-go-server/internal/render"
	"pagebuilder-go-server/internal/ws"

	"go.uber.org/zap"
)

// DocumentUseCase 无状态文档编辑
// 客户端提交整份文档和一条操作，返回操作后的文档；不读写数据库，不需要登录
// 只有页面的保存、列表、删除走认证接口
type DocumentUseCase struct {
	ids      document.IDGenerator
	renderer *render.PageRenderer
	logger   *zap.Logger
}

func NewDocumentUseCase(ids document.IDGenerator, renderer *render.PageRenderer, logger *zap.Logger) *DocumentUseCase {
	return &DocumentUseCase{
		ids:      ids,
		renderer: renderer,
		logger:   logger.Named("document"),
	}
}

// DocumentOpInput 一次文档操作
// Type 与房间消息类型相同：block-add / block-move / block-update / block-edit / block-remove
type DocumentOpInput struct {
	Blocks json.RawMessage
	Type   ws.MessageType
	Op     ws.OpPayload
}

// DocumentResult 操作后的完整文档
type DocumentResult struct {
	Blocks  []entity.Block `json:"blocks"`
	Changed bool           `json:"changed"`
	Block   *entity.Block  `json:"block,omitempty"` // block-add 新建的组件
}

// Apply 在提交的文档副本上应用操作
// 操作失败时返回 OpError，文档格式错误返回 ValidationError
func (uc *DocumentUseCase) Apply(in DocumentOpInput) (*DocumentResult, error) {
	doc, err := document.Decode(in.Blocks)
	if err != nil {
		return nil, &ValidationError{Err: err}
	}

	changed, added, err := ws.ApplyOp(doc, uc.ids, in.Type, in.Op)
	if err != nil {
		return nil, &ws.OpError{Err: err}
	}
	uc.logger.Debug("document op applied",
		zap.String("type", string(in.Type)), zap.Bool("changed", changed), zap.Int("blocks", doc.Len()))

	return &DocumentResult{Blocks: doc.Blocks(), Changed: changed, Block: added}, nil
}

// Preview 渲染提交的文档
func (uc *DocumentUseCase) Preview(blocks json.RawMessage, title string, mode document.Mode, selected string) ([]byte, error) {
	doc, err := document.Decode(blocks)
	if err != nil {
		return nil, &ValidationError{Err: err}
	}
	return renderCanvas(uc.renderer, title, doc, mode, selected)
}

// renderCanvas 按模式和选中状态渲染整页
func renderCanvas(renderer *render.PageRenderer, title string, doc *document.Document, mode document.Mode, selected string) ([]byte, error) {
	canvas := document.NewCanvas(doc)
	canvas.SetMode(mode)
	if selected != "" {
		canvas.Select(selected)
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, title, canvas); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}
