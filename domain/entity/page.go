package entity

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// PageStatus 页面发布状态
type PageStatus string

const (
	PageStatusDraft     PageStatus = "draft"
	PageStatusPublished PageStatus = "published"
)

// DefaultPageTitle 新页面默认标题
const DefaultPageTitle = "Untitled Campaign Page"

// Page 数据库模型
// Components 为序列化后的组件数组（JSONB / MySQL JSON）
type Page struct {
	ID         uint   `gorm:"primaryKey"`
	PageID     string `gorm:"uniqueIndex;size:64"`
	Title      string `gorm:"size:255"`
	Slug       string `gorm:"size:255;index"`
	Components datatypes.JSON
	Status     PageStatus `gorm:"size:32;default:draft"`
	OwnerID    string     `gorm:"size:64;index"` // 创建者 user_id
	Version    int64      `gorm:"default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slugify 标题转 slug：转小写，连续空白替换为 "-"
func Slugify(title string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(title), "-")
}
