package bootstrap

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Env 环境变量配置结构
type Env struct {
	Port     string // 服务端口
	LogLevel string // debug | info | warn | error

	DBDriver    string // postgres | mysql
	DatabaseURL string // 数据库连接字符串

	ClerkSecretKey string // Clerk API 密钥，为空时使用 JWT_SECRET 验证
	WebhookSecret  string // Clerk Webhook 签名密钥
	JWTSecret      string // HMAC token 密钥
	AuthURL        string // 登录代理的身份服务地址

	RedisAddr     string // 为空时上传状态保存在内存
	RedisPassword string
	RedisDB       int

	UploadDir     string // 本地存储目录
	S3Bucket      string // 非空时使用 S3
	S3Region      string
	PublicBaseURL string // 上传文件的公开访问前缀

	AllowedOrigins []string // CORS / WebSocket 白名单
}

// LoadEnv 加载环境变量
// 开发环境从 .env 文件加载，生产环境从系统环境变量读取
func LoadEnv() *Env {
	// 尝试加载 .env 文件（生产环境可能没有），已存在的环境变量优先
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")

	return &Env{
		Port:     v.GetString("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		DBDriver:    strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL: v.GetString("DATABASE_URL"),

		ClerkSecretKey: v.GetString("CLERK_SECRET_KEY"),
		WebhookSecret:  v.GetString("CLERK_WEBHOOK_SECRET"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		AuthURL:        v.GetString("AUTH_URL"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		UploadDir:     v.GetString("UPLOAD_DIR"),
		S3Bucket:      v.GetString("S3_BUCKET"),
		S3Region:      v.GetString("S3_REGION"),
		PublicBaseURL: v.GetString("PUBLIC_BASE_URL"),

		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
