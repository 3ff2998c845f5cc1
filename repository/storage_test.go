package repository

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	domainErrors "pagebuilder-go-server/domain/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	data, _ := io.ReadAll(params.Body)
	f.body = string(data)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Storage_Put(t *testing.T) {
	client := &fakeS3{}
	storage := NewS3Storage(client, "assets", "us-east-1", "", zap.NewNop())

	url, err := storage.Put(context.Background(), "logos/p1/a.png", "image/png", 3, strings.NewReader("png"))

	require.NoError(t, err)
	assert.Equal(t, "https://assets.s3.us-east-1.amazonaws.com/logos/p1/a.png", url)
	assert.Equal(t, "assets", aws.ToString(client.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(client.input.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(client.input.ContentLength))
	assert.Equal(t, "png", client.body)
}

func TestS3Storage_PublicBase(t *testing.T) {
	storage := NewS3Storage(&fakeS3{}, "assets", "us-east-1", "https://cdn.example.com/", zap.NewNop())

	url, err := storage.Put(context.Background(), "k.png", "image/png", 1, strings.NewReader("x"))

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/k.png", url)
}

func TestS3Storage_ErrorIsGeneric(t *testing.T) {
	storage := NewS3Storage(&fakeS3{err: errors.New("AccessDenied: secret bucket policy")}, "assets", "us-east-1", "", zap.NewNop())

	url, err := storage.Put(context.Background(), "k.png", "image/png", 1, strings.NewReader("x"))

	assert.Empty(t, url)
	assert.Equal(t, domainErrors.ErrUploadFailed, err)
	assert.NotContains(t, err.Error(), "AccessDenied")
}

func TestLocalStorage_Put(t *testing.T) {
	dir := t.TempDir()
	storage := NewLocalStorage(dir, "/uploads", zap.NewNop())

	url, err := storage.Put(context.Background(), "logos/p1/a.png", "image/png", 3, strings.NewReader("png"))

	require.NoError(t, err)
	assert.Equal(t, "/uploads/logos/p1/a.png", url)
	data, err := os.ReadFile(filepath.Join(dir, "logos", "p1", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestLocalStorage_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	// 用文件占住目录位置，MkdirAll 会失败
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logos"), []byte("x"), 0o644))
	storage := NewLocalStorage(dir, "/uploads", zap.NewNop())

	_, err := storage.Put(context.Background(), "logos/a.png", "image/png", 1, strings.NewReader("x"))

	assert.ErrorIs(t, err, domainErrors.ErrUploadFailed)
}
