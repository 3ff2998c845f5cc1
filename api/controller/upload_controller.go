package controller

import (
	"net/http"

	"pagebuilder-go-server/internal/upload"
	"pagebuilder-go-server/usecase"

	"github.com/gin-gonic/gin"
)

// maxRequestBody 请求体硬上限，超过文件上限的部分留给校验给出明确提示
const maxRequestBody = 2*upload.MaxFileSize + 1<<20

// UploadController logo 上传
type UploadController struct {
	uploadUseCase *usecase.UploadUseCase
}

func NewUploadController(uploadUseCase *usecase.UploadUseCase) *UploadController {
	return &UploadController{uploadUseCase: uploadUseCase}
}

// UploadLogo 上传 logo 图片
// POST /api/pages/:pageId/blocks/:blockId/image
// multipart 表单字段: file
func (upc *UploadController) UploadLogo(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBody)

	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "缺少上传文件", err)
		return
	}
	file, err := fh.Open()
	if err != nil {
		badRequest(c, "无法读取上传文件", err)
		return
	}
	defer file.Close()

	result, err := upc.uploadUseCase.UploadLogo(c.Request.Context(), usecase.UploadLogoInput{
		PageID:       c.Param("pageId"),
		BlockID:      c.Param("blockId"),
		FileName:     fh.Filename,
		DeclaredType: fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Body:         file,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Status 上传状态
// GET /api/pages/:pageId/blocks/:blockId/image/status
func (upc *UploadController) Status(c *gin.Context) {
	status, err := upc.uploadUseCase.Status(c.Request.Context(), c.Param("pageId"), c.Param("blockId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
