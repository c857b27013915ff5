package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/slidesmith/backend/internal/deck/content"
	"github.com/slidesmith/backend/internal/service"
	"github.com/slidesmith/backend/internal/service/orchestrator"
	"k8s.io/klog/v2"
)

// PresentationHandler 演示文稿 Handler
type PresentationHandler struct {
	presentationService *service.PresentationService
	exportService       *service.ExportService
}

// NewPresentationHandler 创建 Handler
func NewPresentationHandler(presentationService *service.PresentationService, exportService *service.ExportService) *PresentationHandler {
	return &PresentationHandler{
		presentationService: presentationService,
		exportService:       exportService,
	}
}

// Create 起草并创建演示文稿，async=true 时立即返回 202
func (h *PresentationHandler) Create(c *gin.Context) {
	var req service.CreatePresentationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if async, _ := strconv.ParseBool(c.Query("async")); async {
		p, err := h.presentationService.CreateAsync(c.Request.Context(), req)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"data": p})
		return
	}

	p, err := h.presentationService.Create(c.Request.Context(), req)
	if err != nil {
		klog.Errorf("[PresentationHandler] 创建失败: topic=%s, error=%v", req.Topic, err)
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": p})
}

// List 获取演示文稿列表
func (h *PresentationHandler) List(c *gin.Context) {
	offset, limit := pageParams(c)
	list, err := h.presentationService.List(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// Get 获取演示文稿及幻灯片
func (h *PresentationHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, err := h.presentationService.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

// Delete 删除演示文稿
func (h *PresentationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.presentationService.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// Download 导出 PPTX
func (h *PresentationHandler) Download(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	artifact, err := h.exportService.Download(c.Request.Context(), id)
	if err != nil {
		klog.Errorf("[PresentationHandler] 导出失败: id=%d, error=%v", id, err)
		h.writeError(c, err)
		return
	}
	sendArtifact(c, artifact)
}

func (h *PresentationHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPresentationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "presentation not found"})
	case errors.Is(err, service.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
	case errors.Is(err, service.ErrPresentationNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, content.ErrBadInput), errors.Is(err, service.ErrInvalidTemplateData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, orchestrator.ErrQueueFull),
		errors.Is(err, orchestrator.ErrOrchestratorStopped),
		errors.Is(err, service.ErrAsyncUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
