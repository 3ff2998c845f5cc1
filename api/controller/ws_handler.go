package controller

import (
	"errors"
	"net/http"
	"strings"

	"pagebuilder-go-server/api/middleware"
	domainErrors "pagebuilder-go-server/domain/errors"
	"pagebuilder-go-server/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSHandler WebSocket 连接处理器
type WSHandler struct {
	hub      *ws.Hub
	verifier middleware.TokenVerifier
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWSHandler 构造函数
func NewWSHandler(hub *ws.Hub, verifier middleware.TokenVerifier, allowedOrigins []string, logger *zap.Logger) *WSHandler {
	logger = logger.Named("ws")
	return &WSHandler{
		hub:      hub,
		verifier: verifier,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 配置 CORS
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 开发环境允许所有
				if origin == "" || strings.HasPrefix(origin, "http://localhost") {
					return true
				}
				// 生产环境检查白名单
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				logger.Warn("⚠️ 拒绝连接", zap.String("origin", origin))
				return false
			},
		},
	}
}

// HandleWS 处理 WebSocket 升级请求
// GET /ws?pageId=xxx
// ⚠️ 需要在 URL 查询参数或 Sec-WebSocket-Protocol 中携带 Token
func (h *WSHandler) HandleWS(c *gin.Context) {
	pageID := c.Query("pageId")
	if pageID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "pageId 不能为空"})
		return
	}

	// 1. 取 Token（WebSocket 不支持自定义 Header）
	token := c.Query("token")
	if token == "" {
		// 也尝试从 Sec-WebSocket-Protocol 获取（某些客户端实现）
		token = c.GetHeader("Sec-WebSocket-Protocol")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "缺少认证 token"})
		return
	}

	// 2. 验证 Token
	identity, err := h.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		h.logger.Info("token verification failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Token 无效", Details: err.Error()})
		return
	}

	// 3. 获取或创建房间（会验证页面存在性）
	room, err := h.hub.GetOrCreateRoom(pageID)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrPageNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "页面不存在"})
		case errors.Is(err, domainErrors.ErrRoomClosing):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "房间正在关闭，请稍后重试"})
		default:
			h.logger.Error("open room failed", zap.String("page", pageID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "服务器内部错误"})
		}
		return
	}

	// 4. 升级为 WebSocket 连接
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	// 5. 创建客户端并注册到房间
	name := identity.Name
	if name == "" {
		name = identity.UserID
	}
	userInfo := ws.UserInfo{
		UserID:   identity.UserID,
		UserName: name,
		Color:    generateUserColor(identity.UserID),
	}

	client := ws.NewClient(h.hub, conn, pageID, userInfo)

	if err := room.Register(client); err != nil {
		h.logger.Warn("register client failed", zap.String("page", pageID), zap.Error(err))
		conn.Close()
		return
	}

	h.logger.Info("✅ client connected", zap.String("user", userInfo.UserID), zap.String("page", pageID))

	// 6. 启动读写协程
	go client.WritePump()
	go client.ReadPump()
}

// generateUserColor 根据用户 ID 生成协作光标颜色
func generateUserColor(userID string) string {
	// 使用用户 ID 的哈希值生成一致的颜色
	colors := []string{
		"#FF6B6B", // 红色
		"#4ECDC4", // 青色
		"#45B7D1", // 蓝色
		"#96CEB4", // 绿色
		"#FFEAA7", // 黄色
		"#DDA0DD", // 梅红
		"#98D8C8", // 薄荷
		"#F7DC6F", // 金色
	}

	hash := 0
	for _, c := range userID {
		hash = hash*31 + int(c)
	}
	if hash < 0 {
		hash = -hash
	}

	return colors[hash%len(colors)]
}
