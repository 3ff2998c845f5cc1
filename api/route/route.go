package route

import (
	"net/http"

	"pagebuilder-go-server/api/controller"
	"pagebuilder-go-server/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies 路由依赖注入结构
type Dependencies struct {
	PageController     *controller.PageController
	DocumentController *controller.DocumentController
	BlockController    *controller.BlockController
	UploadController   *controller.UploadController
	AuthController     *controller.AuthController
	WSHandler          *controller.WSHandler
	WebhookController  *controller.WebhookController
	Verifier           middleware.TokenVerifier

	// Gatherer 为 nil 时使用默认注册器
	Gatherer prometheus.Gatherer
	// UploadDir 本地存储目录，为空时不挂载 /uploads
	UploadDir string
}

// Setup 配置所有路由
func Setup(router *gin.Engine, deps *Dependencies) {
	// --- 公开路由 ---

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "pagebuilder-go-server",
		})
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	router.POST("/auth/login", deps.AuthController.Login)
	router.GET("/blocks/library", deps.BlockController.Library)

	// 无状态编辑：未登录也可以编辑和预览，保存才需要认证
	router.POST("/documents/ops", deps.DocumentController.ApplyOp)
	router.POST("/documents/preview", deps.DocumentController.Preview)

	// Clerk Webhook（使用签名验证，不使用 JWT）
	router.POST("/webhook/clerk", deps.WebhookController.HandleClerkWebhook)

	if deps.UploadDir != "" {
		router.Static("/uploads", deps.UploadDir)
	}

	// --- WebSocket 路由 ---
	// WebSocket 自行在 Handler 中验证 Token
	router.GET("/ws", deps.WSHandler.HandleWS)

	// --- API 路由（需要认证）---
	api := router.Group("/api")
	api.Use(middleware.Auth(deps.Verifier))
	{
		// 页面
		api.GET("/pages", deps.PageController.ListPages)
		api.POST("/pages", deps.PageController.CreatePage)
		api.GET("/pages/:pageId", deps.PageController.GetPage)
		api.PUT("/pages/:pageId", deps.PageController.SavePage)
		api.DELETE("/pages/:pageId", deps.PageController.DeletePage)
		api.GET("/pages/:pageId/preview", deps.PageController.Preview)

		// 组件
		blocks := api.Group("/pages/:pageId/blocks")
		blocks.POST("", deps.BlockController.AddBlock)
		blocks.POST("/reorder", deps.BlockController.ReorderBlocks)
		blocks.PATCH("/:blockId", deps.BlockController.UpdateBlock)
		blocks.POST("/:blockId/edits", deps.BlockController.EditBlock)
		blocks.DELETE("/:blockId", deps.BlockController.RemoveBlock)

		// logo 上传
		blocks.POST("/:blockId/image", deps.UploadController.UploadLogo)
		blocks.GET("/:blockId/image/status", deps.UploadController.Status)
	}
}
