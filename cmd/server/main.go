package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pagebuilder-go-server/api/controller"
	"pagebuilder-go-server/api/middleware"
	"pagebuilder-go-server/api/route"
	"pagebuilder-go-server/bootstrap"
	"pagebuilder-go-server/internal/document"
	"pagebuilder-go-server/internal/metrics"
	"pagebuilder-go-server/internal/registry"
	"pagebuilder-go-server/internal/render"
	"pagebuilder-go-server/internal/session"
	"pagebuilder-go-server/internal/ws"
	"pagebuilder-go-server/repository"
	"pagebuilder-go-server/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 加载环境变量
	env := bootstrap.LoadEnv()

	logger, err := bootstrap.NewLogger(env.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Page Builder server starting...")

	if env.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	// 认证方式：Clerk 优先，否则 HMAC
	var verifier middleware.TokenVerifier
	if bootstrap.InitClerk(env.ClerkSecretKey, logger) {
		verifier = middleware.ClerkVerifier{}
	} else {
		if env.JWTSecret == "" {
			return errors.New("either CLERK_SECRET_KEY or JWT_SECRET is required")
		}
		verifier = middleware.HMACVerifier{Secret: []byte(env.JWTSecret)}
	}

	// 连接数据库
	db, err := bootstrap.NewDatabase(env.DBDriver, env.DatabaseURL, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	storage, err := bootstrap.NewFileStorage(ctx, env, logger)
	if err != nil {
		return err
	}
	statuses := bootstrap.NewStatusStore(env, logger)

	// 依赖注入 - Repository 层
	pageRepo := repository.NewPageRepository(db)
	userRepo := repository.NewUserRepository(db)

	// WebSocket Hub
	ids := document.UUIDGenerator{}
	hub := ws.NewHub(pageRepo, ids, logger)

	// 依赖注入 - UseCase 层
	reg := registry.New()
	m := metrics.New(nil)
	renderer := render.NewPageRenderer(reg)
	pageUseCase := usecase.NewPageUseCase(pageRepo, hub, ids, renderer, m, logger)
	documentUseCase := usecase.NewDocumentUseCase(ids, renderer, logger)
	uploadUseCase := usecase.NewUploadUseCase(pageUseCase, storage, statuses, "", m, logger)
	authUseCase := usecase.NewAuthUseCase(session.NewHTTPAuthenticator(env.AuthURL, nil), userRepo, logger)

	// 启动 Hub 事件循环
	go hub.Run()

	// 配置 Gin 路由
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger.Named("http")))

	// CORS 配置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     env.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	deps := &route.Dependencies{
		PageController:     controller.NewPageController(pageUseCase),
		DocumentController: controller.NewDocumentController(documentUseCase),
		BlockController:    controller.NewBlockController(pageUseCase, reg),
		UploadController:   controller.NewUploadController(uploadUseCase),
		AuthController:     controller.NewAuthController(authUseCase),
		WSHandler:          controller.NewWSHandler(hub, verifier, env.AllowedOrigins, logger),
		WebhookController:  controller.NewWebhookController(userRepo, env.WebhookSecret, logger),
		Verifier:           verifier,
	}
	if env.S3Bucket == "" {
		deps.UploadDir = env.UploadDir
	}
	route.Setup(router, deps)

	// 启动 HTTP 服务
	srv := &http.Server{
		Addr:              ":" + env.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	logger.Info("shutdown signal received, closing gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// ⚠️ HTTP 停止后再关闭房间，确保所有内存中的编辑刷盘
	hub.Shutdown()

	logger.Info("server stopped")
	return nil
}
