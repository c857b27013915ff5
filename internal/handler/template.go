package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slidesmith/backend/internal/service"
	"k8s.io/klog/v2"
)

// TemplateHandler 幻灯片模板 Handler
type TemplateHandler struct {
	templateService service.TemplateService
	exportService   *service.ExportService
}

// NewTemplateHandler 创建 Handler
func NewTemplateHandler(templateService service.TemplateService, exportService *service.ExportService) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
		exportService:   exportService,
	}
}

// List 获取模板列表
func (h *TemplateHandler) List(c *gin.Context) {
	offset, limit := pageParams(c)
	templates, err := h.templateService.List(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": templates})
}

// Get 获取模板详情
func (h *TemplateHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	template, err := h.templateService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": template})
}

// Create 创建模板
func (h *TemplateHandler) Create(c *gin.Context) {
	var req service.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.templateService.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": template})
}

// Update 更新模板
func (h *TemplateHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.templateService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": template})
}

// Delete 删除模板
func (h *TemplateHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.templateService.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// Download 直接渲染模板为 PPTX
func (h *TemplateHandler) Download(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	artifact, err := h.exportService.DownloadTemplate(c.Request.Context(), id, c.DefaultQuery("style", "minimal"))
	if err != nil {
		klog.Errorf("[TemplateHandler] 模板导出失败: id=%d, error=%v", id, err)
		h.writeError(c, err)
		return
	}
	sendArtifact(c, artifact)
}

func (h *TemplateHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
	case errors.Is(err, service.ErrTemplateKeyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "template key already exists"})
	case errors.Is(err, service.ErrInvalidTemplateData):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
