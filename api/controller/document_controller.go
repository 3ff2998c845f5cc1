package controller

import (
	"encoding/json"
	"net/http"

	"pagebuilder-go-server/internal/document"
	"pagebuilder-go-server/internal/ws"
	"pagebuilder-go-server/usecase"

	"github.com/gin-gonic/gin"
)

// DocumentController 无状态文档编辑（公开接口）
// 未登录也能编辑和预览，只有保存需要登录
type DocumentController struct {
	documentUseCase *usecase.DocumentUseCase
}

func NewDocumentController(documentUseCase *usecase.DocumentUseCase) *DocumentController {
	return &DocumentController{documentUseCase: documentUseCase}
}

// DocumentOpRequest 文档 + 一条操作
// 例: {"blocks":[...],"type":"block-move","op":{"drag":{...}}}
type DocumentOpRequest struct {
	Blocks json.RawMessage `json:"blocks"`
	Type   ws.MessageType  `json:"type" binding:"required"`
	Op     ws.OpPayload    `json:"op"`
}

// ApplyOp 应用操作并返回新文档
// POST /documents/ops
func (dc *DocumentController) ApplyOp(c *gin.Context) {
	var req DocumentOpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "操作格式无效", err)
		return
	}

	result, err := dc.documentUseCase.Apply(usecase.DocumentOpInput{
		Blocks: req.Blocks,
		Type:   req.Type,
		Op:     req.Op,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DocumentPreviewRequest 预览请求
type DocumentPreviewRequest struct {
	Title    string          `json:"title"`
	Blocks   json.RawMessage `json:"blocks"`
	Mode     string          `json:"mode"`
	Selected string          `json:"selected"`
}

// Preview 渲染提交的文档，mode 缺省为 preview
// POST /documents/preview
func (dc *DocumentController) Preview(c *gin.Context) {
	var req DocumentPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "预览请求格式无效", err)
		return
	}
	if req.Mode == "" {
		req.Mode = string(document.ModePreview)
	}

	html, err := dc.documentUseCase.Preview(req.Blocks, req.Title, document.ParseMode(req.Mode), req.Selected)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}
