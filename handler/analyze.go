package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/config"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/model"
	"github.com/vishalseelam/ElectrocardiogramRiskEngine/utils"
	"go.uber.org/zap"
)

// Analyzer 分析流水线
type Analyzer interface {
	Analyze(ctx context.Context, src io.Reader, filename string) (*model.ResponseEnvelope, int, error)
	Status() model.ModelStatus
}

// multipartOverhead 预留给 multipart 边界与头部的字节数
const multipartOverhead = 64 << 10

type AnalyzeHandler struct {
	cfg      *config.Config
	analyzer Analyzer
}

func NewAnalyzeHandler(cfg *config.Config, analyzer Analyzer) *AnalyzeHandler {
	return &AnalyzeHandler{
		cfg:      cfg,
		analyzer: analyzer,
	}
}

// Analyze 处理 ECG 图片上传与分析
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	// 超限请求在读取阶段即中断，不落盘
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Upload.MaxSize+multipartOverhead)

	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.Logger.Warn("upload exceeds size limit", zap.Int64("limit", tooLarge.Limit))
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Detail: h.sizeLimitDetail()})
			return
		}
		utils.Logger.Error("failed to get uploaded file", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Detail: "No image file provided. Use 'image' as the form field name",
		})
		return
	}

	// 验证文件大小
	if file.Size > h.cfg.Upload.MaxSize {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Detail: h.sizeLimitDetail()})
		return
	}

	// 验证文件类型
	contentType := file.Header.Get("Content-Type")
	if !h.isAllowedType(contentType) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Detail: fmt.Sprintf("Unsupported content type %q", contentType),
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		utils.Logger.Error("failed to open uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Detail: "Failed to process the image: " + err.Error(),
		})
		return
	}
	defer src.Close()

	envelope, code, err := h.analyzer.Analyze(c.Request.Context(), src, file.Filename)
	if err != nil {
		utils.Logger.Error("failed to process the image",
			zap.String("filename", file.Filename),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Detail: "Failed to process the image: " + err.Error(),
		})
		return
	}

	c.JSON(code, envelope)
}

// Health 返回模型初始化状态
func (h *AnalyzeHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, model.HealthResponse{
		Status: "healthy",
		Models: h.analyzer.Status(),
	})
}

func (h *AnalyzeHandler) sizeLimitDetail() string {
	return fmt.Sprintf("File exceeds the size limit (%d bytes)", h.cfg.Upload.MaxSize)
}

func (h *AnalyzeHandler) isAllowedType(contentType string) bool {
	if len(h.cfg.Upload.AllowedTypes) == 0 {
		return true
	}
	// 去掉 "; charset=..." 之类的参数
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(contentType)
	for _, allowed := range h.cfg.Upload.AllowedTypes {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}
