package controller

import (
	"encoding/json"
	"net/http"

	"pagebuilder-go-server/domain/entity"
	"pagebuilder-go-server/internal/document"
	"pagebuilder-go-server/usecase"

	"github.com/gin-gonic/gin"
)

// PageController 页面 HTTP 控制器
type PageController struct {
	pageUseCase *usecase.PageUseCase
}

// NewPageController 创建 PageController 实例
func NewPageController(pageUseCase *usecase.PageUseCase) *PageController {
	return &PageController{pageUseCase: pageUseCase}
}

// ListPages 当前用户的页面
// GET /api/pages
func (pc *PageController) ListPages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	pages, err := pc.pageUseCase.ListPages(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": pages})
}

// GetPage 获取页面
// GET /api/pages/:pageId
// 支持 Hub 内存优先读取，回退到数据库
func (pc *PageController) GetPage(c *gin.Context) {
	page, err := pc.pageUseCase.GetPage(c.Param("pageId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreatePageRequest 创建页面请求结构
type CreatePageRequest struct {
	Title      string          `json:"title"`
	Components json.RawMessage `json:"components"` // 可选，不传则使用模板
}

// CreatePage 创建新页面
// POST /api/pages
// 请求体: { "title": "xxx", "components": [...] }，均可省略
func (pc *PageController) CreatePage(c *gin.Context) {
	var req CreatePageRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "请求体格式无效", err)
			return
		}
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, err := pc.pageUseCase.CreatePage(userID, usecase.CreatePageInput{
		Title:      req.Title,
		Components: req.Components,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, page)
}

// SavePageRequest 显式保存请求结构
type SavePageRequest struct {
	Title      *string            `json:"title"`
	Status     *entity.PageStatus `json:"status"`
	Components json.RawMessage    `json:"components"`
	Version    int64              `json:"version" binding:"required"`
}

// SavePage 显式保存
// PUT /api/pages/:pageId
// version 为客户端基于的版本，不匹配返回 409
func (pc *PageController) SavePage(c *gin.Context) {
	var req SavePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "version 不能为空", err)
		return
	}

	page, err := pc.pageUseCase.SavePage(c.Param("pageId"), usecase.SavePageInput{
		Title:      req.Title,
		Status:     req.Status,
		Components: req.Components,
		Version:    req.Version,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// DeletePage 删除页面
// DELETE /api/pages/:pageId
// 注意：此操作会强制关闭协同编辑房间，踢出所有在线用户
func (pc *PageController) DeletePage(c *gin.Context) {
	pageID := c.Param("pageId")

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := pc.pageUseCase.DeletePage(pageID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{
		Message: "页面已删除",
		PageID:  pageID,
	})
}

// Preview 渲染页面 HTML
// GET /api/pages/:pageId/preview?mode=edit|preview&selected=blockId
func (pc *PageController) Preview(c *gin.Context) {
	mode := document.ParseMode(c.DefaultQuery("mode", string(document.ModePreview)))

	html, err := pc.pageUseCase.Preview(c.Param("pageId"), mode, c.Query("selected"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}
