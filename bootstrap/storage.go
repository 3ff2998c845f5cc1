package bootstrap

import (
	"context"
	"fmt"

	"pagebuilder-go-server/domain/repository"
	repo "pagebuilder-go-server/repository"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// NewFileStorage 配置了 S3_BUCKET 时上传到 S3，否则写本地磁盘（由 /uploads 提供访问）
func NewFileStorage(ctx context.Context, env *Env, log *zap.Logger) (repository.FileStorage, error) {
	if env.S3Bucket == "" {
		log.Info("using local file storage", zap.String("dir", env.UploadDir))
		base := env.PublicBaseURL
		if base == "" {
			base = "/uploads"
		}
		return repo.NewLocalStorage(env.UploadDir, base, log), nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(env.S3Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	log.Info("using S3 file storage", zap.String("bucket", env.S3Bucket), zap.String("region", env.S3Region))
	return repo.NewS3Storage(s3.NewFromConfig(cfg), env.S3Bucket, env.S3Region, env.PublicBaseURL, log), nil
}
