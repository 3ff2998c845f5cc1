package controller

import (
	"net/http"

	"pagebuilder-go-server/domain/entity"
	"pagebuilder-go-server/internal/document"
	"pagebuilder-go-server/internal/registry"
	"pagebuilder-go-server/usecase"

	"github.com/gin-gonic/gin"
)

// BlockController 组件操作
// 有协同房间时操作经房间广播给所有在线用户
type BlockController struct {
	pageUseCase *usecase.PageUseCase
	registry    *registry.Registry
}

func NewBlockController(pageUseCase *usecase.PageUseCase, reg *registry.Registry) *BlockController {
	return &BlockController{pageUseCase: pageUseCase, registry: reg}
}

// Library 组件库
// GET /blocks/library
func (bc *BlockController) Library(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"blocks": bc.registry.Library()})
}

// AddBlockRequest 添加组件
type AddBlockRequest struct {
	Type entity.BlockType `json:"type" binding:"required"`
}

// AddBlock 追加组件
// POST /api/pages/:pageId/blocks
func (bc *BlockController) AddBlock(c *gin.Context) {
	var req AddBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "type 不能为空", err)
		return
	}
	bc.respond(c, http.StatusCreated)(bc.pageUseCase.AddBlock(c.Param("pageId"), req.Type))
}

// ReorderBlocks 拖拽排序
// POST /api/pages/:pageId/blocks/reorder
// 请求体即拖拽结果: { "draggableId", "source": {...}, "destination": {...} | null }
func (bc *BlockController) ReorderBlocks(c *gin.Context) {
	var drag document.DragResult
	if err := c.ShouldBindJSON(&drag); err != nil {
		badRequest(c, "拖拽结果格式无效", err)
		return
	}
	bc.respond(c, http.StatusOK)(bc.pageUseCase.ReorderBlocks(c.Param("pageId"), drag))
}

// UpdateBlock 部分更新组件内容
// PATCH /api/pages/:pageId/blocks/:blockId
// 请求体为内容字段的子集，未提及的字段保持不变
func (bc *BlockController) UpdateBlock(c *gin.Context) {
	var patch document.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "内容格式无效", err)
		return
	}
	bc.respond(c, http.StatusOK)(bc.pageUseCase.UpdateBlock(c.Param("pageId"), c.Param("blockId"), patch))
}

// EditBlock 属性面板编辑
// POST /api/pages/:pageId/blocks/:blockId/edits
func (bc *BlockController) EditBlock(c *gin.Context) {
	var cmd document.EditCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, "编辑指令格式无效", err)
		return
	}
	bc.respond(c, http.StatusOK)(bc.pageUseCase.EditBlock(c.Param("pageId"), c.Param("blockId"), cmd))
}

// RemoveBlock 删除组件
// DELETE /api/pages/:pageId/blocks/:blockId
func (bc *BlockController) RemoveBlock(c *gin.Context) {
	bc.respond(c, http.StatusOK)(bc.pageUseCase.RemoveBlock(c.Param("pageId"), c.Param("blockId")))
}

func (bc *BlockController) respond(c *gin.Context, status int) func(*usecase.BlockResult, error) {
	return func(result *usecase.BlockResult, err error) {
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(status, result)
	}
}
