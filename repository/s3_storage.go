package repository

import (
	"context"
	"fmt"
	"io"
	"strings"

	domainErrors "pagebuilder-go-server/domain/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3PutObjectAPI s3.Client 中用到的方法，便于测试替换
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Storage 上传到 S3 兼容的对象存储
type S3Storage struct {
	client     S3PutObjectAPI
	bucket     string
	publicBase string // 为空时使用 bucket 的虚拟主机地址
	logger     *zap.Logger
}

func NewS3Storage(client S3PutObjectAPI, bucket, region, publicBase string, logger *zap.Logger) *S3Storage {
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Storage{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		logger:     logger.Named("s3"),
	}
}

// Put 上传文件，失败时只返回通用的 ErrUploadFailed，原始错误写日志
func (s *S3Storage) Put(ctx context.Context, key, contentType string, size int64, body io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		s.logger.Error("put object failed", zap.String("key", key), zap.Error(err))
		return "", domainErrors.ErrUploadFailed
	}
	return s.publicBase + "/" + key, nil
}
