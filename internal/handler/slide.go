package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slidesmith/backend/internal/deck/content"
	"github.com/slidesmith/backend/internal/service"
)

// SlideHandler 幻灯片 Handler
type SlideHandler struct {
	slideService *service.SlideService
}

// NewSlideHandler 创建 Handler
func NewSlideHandler(slideService *service.SlideService) *SlideHandler {
	return &SlideHandler{slideService: slideService}
}

// Update 更新幻灯片
func (h *SlideHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateSlideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slide, err := h.slideService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": slide})
}

// Improve 使用语言模型改写幻灯片内容
func (h *SlideHandler) Improve(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	slide, err := h.slideService.Improve(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": slide})
}

func (h *SlideHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSlideNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "slide not found"})
	case errors.Is(err, service.ErrInvalidLayout):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, content.ErrBadInput):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
