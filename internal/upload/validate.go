// Package upload logo 图片上传：校验、上传状态、临时文件
package upload

import (
	"fmt"
	"strings"

	domainErrors "pagebuilder-go-server/domain/errors"

	"github.com/gabriel-vasile/mimetype"
)

// MaxFileSize 单个文件大小上限（10 MB）
const MaxFileSize int64 = 10 << 20

// AllowedTypes 允许上传的图片类型
var AllowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/svg+xml",
}

// CheckSize 大小校验，在读取文件内容之前调用
func CheckSize(size int64) error {
	if size <= 0 {
		return domainErrors.ErrEmptyFile
	}
	if size > MaxFileSize {
		return fmt.Errorf("%w: %.1f MB exceeds the 10 MB limit", domainErrors.ErrFileTooLarge, float64(size)/float64(1<<20))
	}
	return nil
}

// CheckType 类型校验：声明的类型和内容嗅探出的类型都必须在允许列表中
// 返回嗅探到的类型，作为存储时的 Content-Type
func CheckType(declared string, head []byte) (string, error) {
	declared = normalize(declared)
	if declared != "" && !allowed(declared) {
		return "", fmt.Errorf("%w: %s", domainErrors.ErrUnsupportedFileType, declared)
	}

	detected := mimetype.Detect(head)
	for m := detected; m != nil; m = m.Parent() {
		if allowed(normalize(m.String())) {
			return normalize(m.String()), nil
		}
	}
	return "", fmt.Errorf("%w: %s", domainErrors.ErrUnsupportedFileType, detected.String())
}

func allowed(t string) bool {
	for _, a := range AllowedTypes {
		if a == t {
			return true
		}
	}
	return false
}

// normalize 去掉参数部分，例如 "image/svg+xml; charset=utf-8"
func normalize(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.ToLower(strings.TrimSpace(t))
}

// Extension 存储对象键使用的扩展名（含 "."）
func Extension(contentType string) string {
	if m := mimetype.Lookup(contentType); m != nil {
		return m.Extension()
	}
	return ""
}
