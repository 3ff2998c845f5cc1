package entity

import "time"

// User 用户同步表（Clerk Webhook 或登录时写入）
type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"` // token subject
	Email     string    `gorm:"size:255" json:"email"`
	Name      string    `gorm:"size:100" json:"name"`
	AvatarURL string    `gorm:"size:500" json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
