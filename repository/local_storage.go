package repository

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	domainErrors "pagebuilder-go-server/domain/errors"

	"go.uber.org/zap"
)

// LocalStorage 本地磁盘存储（开发环境），文件由 /uploads 静态路由提供
type LocalStorage struct {
	dir        string
	publicBase string
	logger     *zap.Logger
}

func NewLocalStorage(dir, publicBase string, logger *zap.Logger) *LocalStorage {
	return &LocalStorage{
		dir:        dir,
		publicBase: strings.TrimRight(publicBase, "/"),
		logger:     logger.Named("local-storage"),
	}
}

func (s *LocalStorage) Put(_ context.Context, key, _ string, _ int64, body io.Reader) (string, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := s.write(path, body); err != nil {
		s.logger.Error("write file failed", zap.String("path", path), zap.Error(err))
		os.Remove(path)
		return "", domainErrors.ErrUploadFailed
	}
	return s.publicBase + "/" + key, nil
}

func (s *LocalStorage) write(path string, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
