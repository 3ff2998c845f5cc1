package repository

import "pagebuilder-go-server/domain/entity"

// PageRepository 页面数据仓库接口
type PageRepository interface {
	// GetByPageID 根据业务 ID 获取页面，不存在时返回 (nil, nil)
	GetByPageID(pageID string) (*entity.Page, error)

	// ListByOwner 列出某用户创建的页面，按更新时间倒序
	ListByOwner(ownerID string) ([]entity.Page, error)

	// Create 创建新页面
	// 注意：禁止使用 GORM Save，它会覆盖 components 和 version
	Create(page *entity.Page) error

	// UpdateComponents 只更新组件序列（协同编辑的热路径）
	// oldVersion: 上次持久化的版本号，用于乐观锁检查
	// newVersion: 要写入的新版本号（允许跳跃）
	// 如果版本不匹配，返回 ErrOptimisticLock
	UpdateComponents(pageID string, components []byte, oldVersion, newVersion int64) error

	// UpdatePage 更新标题/slug/状态/组件（显式保存），同样走乐观锁
	UpdatePage(page *entity.Page, oldVersion int64) error

	// UpdateMeta 只更新标题/slug/状态（协同房间存活时组件由房间刷盘）
	UpdateMeta(pageID, title, slug string, status entity.PageStatus) error

	// Delete 删除页面，不存在时返回 ErrPageNotFound
	// 注意：删除前必须先通过 Hub.CloseRoom 关闭内存中的协同房间
	Delete(pageID string) error
}
