package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"pagebuilder-go-server/domain/entity"
	domainErrors "pagebuilder-go-server/domain/errors"
	"pagebuilder-go-server/domain/repository"
	"pagebuilder-go-server/internal/document"
	"pagebuilder-go-server/internal/metrics"
	"pagebuilder-go-server/internal/upload"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadUseCase logo 图片上传
type UploadUseCase struct {
	pages    *PageUseCase
	storage  repository.FileStorage
	statuses upload.StatusStore
	tmpDir   string // 临时文件目录，空串表示系统默认
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewUploadUseCase(pages *PageUseCase, storage repository.FileStorage, statuses upload.StatusStore,
	tmpDir string, m *metrics.Metrics, logger *zap.Logger) *UploadUseCase {
	return &UploadUseCase{
		pages:    pages,
		storage:  storage,
		statuses: statuses,
		tmpDir:   tmpDir,
		metrics:  m,
		logger:   logger.Named("upload"),
	}
}

// UploadLogoInput 上传参数
type UploadLogoInput struct {
	PageID       string
	BlockID      string
	FileName     string
	DeclaredType string // multipart 中声明的 Content-Type
	Size         int64  // 声明的大小
	Body         io.Reader
}

// UploadLogoResult 上传结果
type UploadLogoResult struct {
	URL     string        `json:"url"`
	Block   *entity.Block `json:"block,omitempty"`
	Version int64         `json:"version"`
}

// UploadLogo 上传 logo 并写回组件
// 1. 校验大小（在任何存储调用之前）
// 2. 组件必须存在且为 logo
// 3. 写入临时文件，嗅探类型
// 4. 上传到存储，成功后通过 SetImage 编辑写回 imageUrl 和 alt
// 任何一步失败，组件内容保持不变，状态置为 error
func (uc *UploadUseCase) UploadLogo(ctx context.Context, in UploadLogoInput) (*UploadLogoResult, error) {
	if err := upload.CheckSize(in.Size); err != nil {
		return nil, uc.fail(ctx, in, err)
	}

	block, err := uc.pages.Block(in.PageID, in.BlockID)
	if err != nil {
		return nil, err
	}
	if block.Type != entity.BlockLogo {
		return nil, fmt.Errorf("%w: image on %s", document.ErrFieldNotApplicable, block.Type)
	}

	uc.setStatus(ctx, in, upload.Status{State: upload.StateUploading})

	spool, err := upload.NewSpool(uc.tmpDir, in.Body)
	if err != nil {
		return nil, uc.fail(ctx, in, err)
	}
	defer spool.Close()

	contentType, err := upload.CheckType(in.DeclaredType, spool.Head())
	if err != nil {
		return nil, uc.fail(ctx, in, err)
	}

	key := fmt.Sprintf("logos/%s/%s%s", in.PageID, uuid.NewString(), upload.Extension(contentType))
	// ⚠️ 客户端断开不取消上传
	url, err := uc.storage.Put(context.WithoutCancel(ctx), key, contentType, spool.Size(), spool)
	if err != nil {
		return nil, uc.fail(ctx, in, err)
	}

	result, err := uc.pages.EditBlock(in.PageID, in.BlockID, document.EditCommand{
		Op:       document.OpSetImage,
		URL:      url,
		FileName: in.FileName,
	})
	if err != nil {
		return nil, uc.fail(ctx, in, err)
	}

	uc.metrics.Uploads.WithLabelValues(metrics.ResultOK).Inc()
	uc.metrics.UploadBytes.Observe(float64(spool.Size()))
	uc.setStatus(ctx, in, upload.Status{State: upload.StateSuccess, URL: url})
	uc.logger.Info("logo uploaded",
		zap.String("page", in.PageID),
		zap.String("block", in.BlockID),
		zap.String("type", contentType),
		zap.Int64("size", spool.Size()),
	)

	out := &UploadLogoResult{URL: url, Version: result.Version}
	if b, err := uc.pages.Block(in.PageID, in.BlockID); err == nil {
		out.Block = &b
	}
	return out, nil
}

// Status 查询上传状态
func (uc *UploadUseCase) Status(ctx context.Context, pageID, blockID string) (upload.Status, error) {
	return uc.statuses.Get(ctx, pageID, blockID)
}

// fail 记录失败状态；存储错误只向用户暴露通用信息
func (uc *UploadUseCase) fail(ctx context.Context, in UploadLogoInput, err error) error {
	label := metrics.ResultRejected
	message := err.Error()
	if errors.Is(err, domainErrors.ErrUploadFailed) {
		label = metrics.ResultError
		message = domainErrors.ErrUploadFailed.Error()
	}
	uc.metrics.Uploads.WithLabelValues(label).Inc()
	uc.setStatus(ctx, in, upload.Status{State: upload.StateError, Message: message})

	uc.logger.Warn("logo upload failed",
		zap.String("page", in.PageID),
		zap.String("block", in.BlockID),
		zap.Error(err),
	)
	return err
}

func (uc *UploadUseCase) setStatus(ctx context.Context, in UploadLogoInput, status upload.Status) {
	if err := uc.statuses.Set(context.WithoutCancel(ctx), in.PageID, in.BlockID, status); err != nil {
		uc.logger.Error("save upload status failed", zap.Error(err))
	}
}
