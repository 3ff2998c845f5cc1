package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"pagebuilder-go-server/domain/entity"
	domainErrors "pagebuilder-go-server/domain/errors"
	"pagebuilder-go-server/domain/repository"
	"pagebuilder-go-server/internal/document"
	"pagebuilder-go-server/internal/metrics"
	"pagebuilder-go-server/internal/render"
	"pagebuilder-go-server/internal/ws"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// PageUseCase 页面业务逻辑层
// ✅ 注入 Hub，解决"数据双源"问题：
// - 有协同编辑时，内存是 source of truth
// - 无协同编辑时，数据库是 source of truth
type PageUseCase struct {
	repo     repository.PageRepository
	hub      *ws.Hub
	ids      document.IDGenerator
	renderer *render.PageRenderer
	metrics  *metrics.Metrics
	logger   *zap.Logger

	// 每个页面同一时刻只允许一个显式保存
	savingMu sync.Mutex
	saving   map[string]*semaphore.Weighted
}

// NewPageUseCase 构造函数，依赖注入
func NewPageUseCase(repo repository.PageRepository, hub *ws.Hub, ids document.IDGenerator,
	renderer *render.PageRenderer, m *metrics.Metrics, logger *zap.Logger) *PageUseCase {
	return &PageUseCase{
		repo:     repo,
		hub:      hub,
		ids:      ids,
		renderer: renderer,
		metrics:  m,
		logger:   logger.Named("page"),
		saving:   make(map[string]*semaphore.Weighted),
	}
}

// PageDetail 页面详情（组件已解码）
type PageDetail struct {
	PageID    string            `json:"pageId"`
	Title     string            `json:"title"`
	Slug      string            `json:"slug"`
	Status    entity.PageStatus `json:"status"`
	OwnerID   string            `json:"ownerId"`
	Version   int64             `json:"version"`
	Blocks    []entity.Block    `json:"blocks"`
	Live      bool              `json:"live"` // 是否有协同房间
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// PageSummary 页面列表项
type PageSummary struct {
	PageID    string            `json:"pageId"`
	Title     string            `json:"title"`
	Slug      string            `json:"slug"`
	Status    entity.PageStatus `json:"status"`
	Version   int64             `json:"version"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// GetPage 获取页面
// 元数据读数据库，组件和版本优先从 Hub 内存读取（保证读到最新协同状态）
func (uc *PageUseCase) GetPage(pageID string) (*PageDetail, error) {
	page, err := uc.repo.GetByPageID(pageID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, domainErrors.ErrPageNotFound
	}

	doc, version, live, err := uc.loadDocument(page)
	if err != nil {
		return nil, err
	}
	return toDetail(page, doc, version, live), nil
}

// loadDocument 房间存在时取房间快照，否则解码数据库中的组件
func (uc *PageUseCase) loadDocument(page *entity.Page) (*document.Document, int64, bool, error) {
	if room := uc.hub.GetRoom(page.PageID); room != nil {
		doc, version := room.Snapshot()
		return doc, version, true, nil
	}
	doc, err := document.Decode(page.Components)
	if err != nil {
		return nil, 0, false, err
	}
	return doc, page.Version, false, nil
}

// CreatePageInput 创建页面参数
type CreatePageInput struct {
	Title      string
	Components json.RawMessage // 为空时使用模板文档
}

// CreatePage 创建新页面
func (uc *PageUseCase) CreatePage(ownerID string, in CreatePageInput) (*PageDetail, error) {
	title := in.Title
	if title == "" {
		title = entity.DefaultPageTitle
	}

	var doc *document.Document
	if len(bytes.TrimSpace(in.Components)) == 0 {
		doc = document.Seed(uc.ids)
	} else {
		var err error
		if doc, err = document.Decode(in.Components); err != nil {
			return nil, &ValidationError{Err: err}
		}
	}

	components, err := doc.Encode()
	if err != nil {
		return nil, err
	}

	page := &entity.Page{
		PageID:     uuid.NewString(),
		Title:      title,
		Slug:       entity.Slugify(title),
		Components: components,
		Status:     entity.PageStatusDraft,
		OwnerID:    ownerID,
		Version:    1,
	}
	if err := uc.repo.Create(page); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	uc.logger.Info("page created", zap.String("page", page.PageID), zap.String("owner", ownerID))
	return toDetail(page, doc, page.Version, false), nil
}

// SavePageInput 显式保存参数，nil 字段保持不变
type SavePageInput struct {
	Title      *string
	Status     *entity.PageStatus
	Components json.RawMessage
	Version    int64 // 客户端基于的版本
}

// SavePage 显式保存（对应保存按钮）
// - 同一页面已有保存在进行中：ErrSaveInFlight
// - 版本不匹配：ErrOptimisticLock
// - 房间存在时组件交给房间，元数据直接写库
func (uc *PageUseCase) SavePage(pageID string, in SavePageInput) (*PageDetail, error) {
	sem := uc.saveSemaphore(pageID)
	if !sem.TryAcquire(1) {
		uc.metrics.PageSaves.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, domainErrors.ErrSaveInFlight
	}
	defer sem.Release(1)

	detail, err := uc.save(pageID, in)
	switch {
	case err == nil:
		uc.metrics.PageSaves.WithLabelValues(metrics.ResultOK).Inc()
	case errors.Is(err, domainErrors.ErrOptimisticLock):
		uc.metrics.PageSaves.WithLabelValues(metrics.ResultConflict).Inc()
	default:
		uc.metrics.PageSaves.WithLabelValues(metrics.ResultError).Inc()
	}
	return detail, err
}

func (uc *PageUseCase) save(pageID string, in SavePageInput) (*PageDetail, error) {
	page, err := uc.repo.GetByPageID(pageID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, domainErrors.ErrPageNotFound
	}

	var blocks []entity.Block
	if len(bytes.TrimSpace(in.Components)) > 0 {
		if blocks, err = entity.DecodeBlocks(in.Components); err != nil {
			return nil, &ValidationError{Err: err}
		}
	}

	if in.Title != nil {
		page.Title = *in.Title
		if page.Title == "" {
			page.Title = entity.DefaultPageTitle
		}
		page.Slug = entity.Slugify(page.Title)
	}
	if in.Status != nil {
		if *in.Status != entity.PageStatusDraft && *in.Status != entity.PageStatusPublished {
			return nil, &ValidationError{Err: fmt.Errorf("unknown status %q", *in.Status)}
		}
		page.Status = *in.Status
	}

	if room := uc.hub.GetRoom(pageID); room != nil {
		return uc.saveLive(room, page, blocks, in)
	}

	if in.Version != page.Version {
		return nil, domainErrors.ErrOptimisticLock
	}
	if blocks != nil {
		if page.Components, err = entity.EncodeBlocks(blocks); err != nil {
			return nil, err
		}
	}
	oldVersion := page.Version
	page.Version++
	if err := uc.repo.UpdatePage(page, oldVersion); err != nil {
		return nil, err
	}

	doc, err := document.Decode(page.Components)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("page saved", zap.String("page", pageID), zap.Int64("version", page.Version))
	return toDetail(page, doc, page.Version, false), nil
}

// saveLive 房间存在时的保存：组件经房间替换并立即刷盘
func (uc *PageUseCase) saveLive(room *ws.Room, page *entity.Page, blocks []entity.Block, in SavePageInput) (*PageDetail, error) {
	if blocks != nil {
		if _, err := room.Replace(in.Version, blocks); err != nil {
			var versionErr *ws.VersionConflictError
			if errors.As(err, &versionErr) {
				return nil, domainErrors.ErrOptimisticLock
			}
			return nil, err
		}
	} else if _, current := room.Snapshot(); current != in.Version {
		return nil, domainErrors.ErrOptimisticLock
	}

	if err := room.Flush(); err != nil {
		return nil, fmt.Errorf("flush room: %w", err)
	}
	if err := uc.repo.UpdateMeta(page.PageID, page.Title, page.Slug, page.Status); err != nil {
		return nil, err
	}

	doc, version := room.Snapshot()
	uc.logger.Info("live page saved", zap.String("page", page.PageID), zap.Int64("version", version))
	return toDetail(page, doc, version, true), nil
}

func (uc *PageUseCase) saveSemaphore(pageID string) *semaphore.Weighted {
	uc.savingMu.Lock()
	defer uc.savingMu.Unlock()
	sem, ok := uc.saving[pageID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		uc.saving[pageID] = sem
	}
	return sem
}

// ListPages 列出用户的页面
func (uc *PageUseCase) ListPages(ownerID string) ([]PageSummary, error) {
	pages, err := uc.repo.ListByOwner(ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]PageSummary, 0, len(pages))
	for _, p := range pages {
		version := p.Version
		if room := uc.hub.GetRoom(p.PageID); room != nil {
			_, version = room.Snapshot()
		}
		out = append(out, PageSummary{
			PageID:    p.PageID,
			Title:     p.Title,
			Slug:      p.Slug,
			Status:    p.Status,
			Version:   version,
			UpdatedAt: p.UpdatedAt,
		})
	}
	return out, nil
}

// DeletePage 删除页面（只有创建者可以删除）
// ⚠️ 先关闭协同房间（踢出所有在线用户并刷盘），再删除数据库记录
func (uc *PageUseCase) DeletePage(pageID, userID string) error {
	page, err := uc.repo.GetByPageID(pageID)
	if err != nil {
		return err
	}
	if page == nil {
		return domainErrors.ErrPageNotFound
	}
	if page.OwnerID != userID {
		return domainErrors.ErrUnauthorized
	}

	uc.hub.CloseRoom(pageID)

	if err := uc.repo.Delete(pageID); err != nil {
		return err
	}
	uc.savingMu.Lock()
	delete(uc.saving, pageID)
	uc.savingMu.Unlock()

	uc.logger.Info("page deleted", zap.String("page", pageID), zap.String("user", userID))
	return nil
}

// ========== 组件操作 ==========

// BlockResult 组件操作结果
type BlockResult struct {
	Version int64         `json:"version"`
	Changed bool          `json:"changed"`
	Block   *entity.Block `json:"block,omitempty"`
}

// AddBlock 追加一个默认内容的组件
func (uc *PageUseCase) AddBlock(pageID string, t entity.BlockType) (*BlockResult, error) {
	return uc.applyOp(pageID, ws.TypeBlockAdd, ws.OpPayload{BlockType: t})
}

// ReorderBlocks 应用拖拽结果
func (uc *PageUseCase) ReorderBlocks(pageID string, drag document.DragResult) (*BlockResult, error) {
	return uc.applyOp(pageID, ws.TypeBlockMove, ws.OpPayload{Drag: &drag})
}

// UpdateBlock 部分更新组件内容
func (uc *PageUseCase) UpdateBlock(pageID, blockID string, patch document.Patch) (*BlockResult, error) {
	return uc.applyOp(pageID, ws.TypeBlockUpdate, ws.OpPayload{BlockID: blockID, Content: patch})
}

// EditBlock 属性面板编辑
func (uc *PageUseCase) EditBlock(pageID, blockID string, cmd document.EditCommand) (*BlockResult, error) {
	return uc.applyOp(pageID, ws.TypeBlockEdit, ws.OpPayload{BlockID: blockID, Edit: &cmd})
}

// RemoveBlock 删除组件
func (uc *PageUseCase) RemoveBlock(pageID, blockID string) (*BlockResult, error) {
	return uc.applyOp(pageID, ws.TypeBlockRemove, ws.OpPayload{BlockID: blockID})
}

// Block 读取单个组件
func (uc *PageUseCase) Block(pageID, blockID string) (entity.Block, error) {
	detail, err := uc.GetPage(pageID)
	if err != nil {
		return entity.Block{}, err
	}
	for _, b := range detail.Blocks {
		if b.ID == blockID {
			return b, nil
		}
	}
	return entity.Block{}, domainErrors.ErrBlockNotFound
}

// applyOp 房间存在时交给房间（并广播），否则读库、修改、按乐观锁写回
func (uc *PageUseCase) applyOp(pageID string, t ws.MessageType, op ws.OpPayload) (*BlockResult, error) {
	op.Version = ws.AnyVersion
	result, err := uc.doApplyOp(pageID, t, op)

	label := metrics.ResultOK
	var opErr *ws.OpError
	switch {
	case err == nil:
	case errors.As(err, &opErr):
		label = metrics.ResultRejected
	case errors.Is(err, domainErrors.ErrOptimisticLock):
		label = metrics.ResultConflict
	default:
		label = metrics.ResultError
	}
	uc.metrics.BlockOps.WithLabelValues(string(t), label).Inc()
	return result, err
}

func (uc *PageUseCase) doApplyOp(pageID string, t ws.MessageType, op ws.OpPayload) (*BlockResult, error) {
	if room := uc.hub.GetRoom(pageID); room != nil && !room.IsStopping() {
		ack, err := room.Apply(nil, t, op)
		if err != nil {
			return nil, err
		}
		result := &BlockResult{Version: ack.Version, Changed: ack.Changed}
		if ack.BlockID != "" {
			doc, _ := room.Snapshot()
			if b, ok := doc.Block(ack.BlockID); ok {
				result.Block = &b
			}
		}
		return result, nil
	}

	page, err := uc.repo.GetByPageID(pageID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, domainErrors.ErrPageNotFound
	}
	doc, err := document.Decode(page.Components)
	if err != nil {
		return nil, err
	}

	changed, added, err := ws.ApplyOp(doc, uc.ids, t, op)
	if err != nil {
		return nil, &ws.OpError{Err: err}
	}
	if !changed {
		return &BlockResult{Version: page.Version}, nil
	}

	components, err := doc.Encode()
	if err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateComponents(pageID, components, page.Version, page.Version+1); err != nil {
		return nil, err
	}
	return &BlockResult{Version: page.Version + 1, Changed: true, Block: added}, nil
}

// ========== 预览 ==========

// Preview 渲染页面 HTML
// mode=preview 时不输出任何编辑属性；selected 只在编辑模式下生效
func (uc *PageUseCase) Preview(pageID string, mode document.Mode, selected string) ([]byte, error) {
	detail, err := uc.GetPage(pageID)
	if err != nil {
		return nil, err
	}

	return renderCanvas(uc.renderer, detail.Title, document.New(detail.Blocks), mode, selected)
}

// ValidationError 请求内容无法解析
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func toDetail(page *entity.Page, doc *document.Document, version int64, live bool) *PageDetail {
	return &PageDetail{
		PageID:    page.PageID,
		Title:     page.Title,
		Slug:      page.Slug,
		Status:    page.Status,
		OwnerID:   page.OwnerID,
		Version:   version,
		Blocks:    doc.Blocks(),
		Live:      live,
		CreatedAt: page.CreatedAt,
		UpdatedAt: page.UpdatedAt,
	}
}
