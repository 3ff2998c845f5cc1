package repository

import (
	"context"
	"io"
)

// FileStorage 文件存储（S3 / 本地磁盘）
type FileStorage interface {
	// Put 上传文件并返回可公开访问的 URL
	// 失败时调用方只应向用户暴露通用的上传失败
	Put(ctx context.Context, key, contentType string, size int64, body io.Reader) (string, error)
}
