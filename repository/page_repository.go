package repository

import (
	"errors"

	"pagebuilder-go-server/domain/entity"
	domainErrors "pagebuilder-go-server/domain/errors"
	domainRepo "pagebuilder-go-server/domain/repository"

	"gorm.io/gorm"
)

// pageRepository GORM 实现 PageRepository 接口
// 同时实现 ws.PageService 接口供 Hub 使用
type pageRepository struct {
	db *gorm.DB
}

// PageStore 页面仓库 + 房间刷盘接口（同一个实现）
type PageStore interface {
	domainRepo.PageRepository
	GetPageState(pageID string) ([]byte, int64, error)
	PageExists(pageID string) (bool, error)
	SavePageState(pageID string, state []byte, oldVersion, newVersion int64) error
}

// NewPageRepository 构造函数
func NewPageRepository(db *gorm.DB) PageStore {
	return &pageRepository{db: db}
}

// ================= domain.PageRepository 接口实现 =================

// GetByPageID 根据业务 ID 查询页面
func (r *pageRepository) GetByPageID(pageID string) (*entity.Page, error) {
	var page entity.Page
	err := r.db.Where("page_id = ?", pageID).First(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // 返回 nil 表示不存在，调用方需处理
	}
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// ListByOwner 列出用户的页面，最近更新的在前
func (r *pageRepository) ListByOwner(ownerID string) ([]entity.Page, error) {
	var pages []entity.Page
	err := r.db.Where("owner_id = ?", ownerID).Order("updated_at DESC").Find(&pages).Error
	return pages, err
}

// Create 创建新页面（仅用于首次创建）
// ⚠️ 禁止使用 GORM Save，它会覆盖 components 和 version
func (r *pageRepository) Create(page *entity.Page) error {
	return r.db.Create(page).Error
}

// UpdateComponents 只更新组件序列（协同编辑热路径）
// ✅ 支持版本跳跃：内存中可能积累了多个版本，一次性刷盘
func (r *pageRepository) UpdateComponents(pageID string, components []byte, oldVersion, newVersion int64) error {
	result := r.db.Model(&entity.Page{}).
		// ⚠️ WHERE 使用 oldVersion（上次持久化的版本）
		Where("page_id = ? AND version = ?", pageID, oldVersion).
		Updates(map[string]interface{}{
			"components": string(components),
			"version":    newVersion,
		})

	if result.Error != nil {
		return result.Error
	}

	// RowsAffected == 0 说明版本冲突或页面不存在
	if result.RowsAffected == 0 {
		return domainErrors.ErrOptimisticLock
	}
	return nil
}

// UpdatePage 显式保存：标题、slug、状态、组件一起写入
// page.Version 是要写入的新版本
func (r *pageRepository) UpdatePage(page *entity.Page, oldVersion int64) error {
	result := r.db.Model(&entity.Page{}).
		Where("page_id = ? AND version = ?", page.PageID, oldVersion).
		Updates(map[string]interface{}{
			"title":      page.Title,
			"slug":       page.Slug,
			"status":     page.Status,
			"components": string(page.Components),
			"version":    page.Version,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrOptimisticLock
	}
	return nil
}

// UpdateMeta 只更新标题、slug、状态（组件由协同房间负责）
func (r *pageRepository) UpdateMeta(pageID, title, slug string, status entity.PageStatus) error {
	result := r.db.Model(&entity.Page{}).
		Where("page_id = ?", pageID).
		Updates(map[string]interface{}{
			"title":  title,
			"slug":   slug,
			"status": status,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrPageNotFound
	}
	return nil
}

// Delete 删除页面
func (r *pageRepository) Delete(pageID string) error {
	result := r.db.Where("page_id = ?", pageID).Delete(&entity.Page{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrPageNotFound
	}
	return nil
}

// ================= ws.PageService 接口实现 =================
// 这些方法供 Hub 直接调用，无需额外适配器

// GetPageState 获取页面组件序列（供 Hub 使用）
// ⚠️ 页面不存在时返回明确错误，阻止幽灵房间的创建
func (r *pageRepository) GetPageState(pageID string) ([]byte, int64, error) {
	page, err := r.GetByPageID(pageID)
	if err != nil {
		return nil, 0, err
	}
	if page == nil {
		return nil, 0, domainErrors.ErrPageNotFound
	}
	return []byte(page.Components), page.Version, nil
}

// PageExists 检查页面是否存在
func (r *pageRepository) PageExists(pageID string) (bool, error) {
	var count int64
	if err := r.db.Model(&entity.Page{}).Where("page_id = ?", pageID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SavePageState 保存页面状态（供 Hub 使用，支持版本跳跃）
func (r *pageRepository) SavePageState(pageID string, state []byte, oldVersion, newVersion int64) error {
	return r.UpdateComponents(pageID, state, oldVersion, newVersion)
}
