package controller

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"pagebuilder-go-server/domain/entity"
	domainRepo "pagebuilder-go-server/domain/repository"

	"github.com/gin-gonic/gin"
	svix "github.com/svix/svix-webhooks/go"
	"go.uber.org/zap"
)

// WebhookController 处理 Clerk Webhook 回调
type WebhookController struct {
	userRepo      domainRepo.UserRepository
	webhookSecret string
	logger        *zap.Logger
}

// NewWebhookController 构造函数
func NewWebhookController(userRepo domainRepo.UserRepository, webhookSecret string, logger *zap.Logger) *WebhookController {
	return &WebhookController{
		userRepo:      userRepo,
		webhookSecret: webhookSecret,
		logger:        logger.Named("webhook"),
	}
}

// ClerkWebhookPayload Clerk Webhook 事件结构
type ClerkWebhookPayload struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ClerkUserData Clerk 用户数据结构
type ClerkUserData struct {
	ID             string `json:"id"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
}

// User 转换为用户表记录
func (d ClerkUserData) User(now time.Time) *entity.User {
	// 提取邮箱（取第一个）
	email := ""
	if len(d.EmailAddresses) > 0 {
		email = d.EmailAddresses[0].EmailAddress
	}

	// 组合姓名
	name := d.FirstName
	if d.LastName != "" {
		if name != "" {
			name += " "
		}
		name += d.LastName
	}

	return &entity.User{
		ID:        d.ID,
		Email:     email,
		Name:      name,
		AvatarURL: d.ImageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HandleClerkWebhook 处理 Clerk Webhook 回调
// POST /webhook/clerk
// 处理 user.created, user.updated 事件
func (wc *WebhookController) HandleClerkWebhook(c *gin.Context) {
	// 1. 读取请求体
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "无法读取请求体"})
		return
	}

	// 2. 验证 Webhook 签名（使用 Svix SDK）
	if wc.webhookSecret != "" {
		wh, err := svix.NewWebhook(wc.webhookSecret)
		if err != nil {
			wc.logger.Error("init webhook verifier failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Webhook 配置错误"})
			return
		}

		headers := http.Header{}
		headers.Set("svix-id", c.GetHeader("svix-id"))
		headers.Set("svix-timestamp", c.GetHeader("svix-timestamp"))
		headers.Set("svix-signature", c.GetHeader("svix-signature"))

		if err := wh.Verify(body, headers); err != nil {
			wc.logger.Warn("signature verification failed", zap.Error(err))
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "签名验证失败"})
			return
		}
	} else {
		wc.logger.Warn("⚠️ CLERK_WEBHOOK_SECRET not set, skipping signature check")
	}

	// 3. 解析事件
	var payload ClerkWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "无效的 JSON 格式"})
		return
	}

	// 4. 根据事件类型处理
	switch payload.Type {
	case "user.created", "user.updated":
		wc.handleUserUpsert(payload.Data)
	default:
		wc.logger.Debug("ignored event", zap.String("type", payload.Type))
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// handleUserUpsert 处理用户创建/更新事件
func (wc *WebhookController) handleUserUpsert(data json.RawMessage) {
	var userData ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		wc.logger.Warn("decode user data failed", zap.Error(err))
		return
	}

	user := userData.User(time.Now())
	if err := wc.userRepo.Upsert(user); err != nil {
		wc.logger.Error("upsert user failed", zap.String("user", user.ID), zap.Error(err))
		return
	}

	wc.logger.Info("✅ user synced", zap.String("user", user.ID), zap.String("email", user.Email))
}
