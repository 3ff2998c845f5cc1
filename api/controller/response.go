package controller

import (
	"errors"
	"net/http"

	"pagebuilder-go-server/api/middleware"
	domainErrors "pagebuilder-go-server/domain/errors"
	"pagebuilder-go-server/internal/document"
	"pagebuilder-go-server/internal/ws"
	"pagebuilder-go-server/usecase"

	"github.com/gin-gonic/gin"
)

// --- 响应结构定义 ---

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MessageResponse 消息响应结构
type MessageResponse struct {
	Message string `json:"message"`
	PageID  string `json:"pageId,omitempty"`
}

// respondError 领域错误 -> HTTP 状态码
// 未识别的错误挂到 gin.Context 上，由请求日志统一记录
func respondError(c *gin.Context, err error) {
	var (
		validationErr *usecase.ValidationError
		opErr         *ws.OpError
	)

	switch {
	case errors.Is(err, domainErrors.ErrPageNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "页面不存在"})
	case errors.Is(err, domainErrors.ErrBlockNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "组件不存在"})
	case errors.Is(err, domainErrors.ErrOptimisticLock):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "版本冲突，请刷新后重试", Details: err.Error()})
	case errors.Is(err, domainErrors.ErrSaveInFlight):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "正在保存中", Details: err.Error()})
	case errors.Is(err, domainErrors.ErrRoomClosing):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "房间正在关闭，请稍后重试"})
	case errors.Is(err, domainErrors.ErrUnauthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "无权限操作此页面"})
	case errors.Is(err, domainErrors.ErrInvalidCredentials), errors.Is(err, domainErrors.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "认证失败", Details: err.Error()})
	case errors.Is(err, domainErrors.ErrEmptyFile),
		errors.Is(err, domainErrors.ErrFileTooLarge),
		errors.Is(err, domainErrors.ErrUnsupportedFileType):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "文件校验失败", Details: err.Error()})
	case errors.Is(err, domainErrors.ErrUploadFailed):
		// ⚠️ 存储后端的具体错误只记日志
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	case errors.As(err, &opErr), errors.Is(err, document.ErrFieldNotApplicable):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "操作无效", Details: err.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "请求内容无效", Details: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "服务器内部错误"})
	}
}

func badRequest(c *gin.Context, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

// currentUserID 由认证中间件注入
func currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.ContextKeyUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "未获取到用户信息"})
		return "", false
	}
	return userID, true
}
