package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/slidesmith/backend/internal/deck/stylesheet"
	"k8s.io/klog/v2"
)

const maxStylesheetSize = 50 << 20

// StylesheetHandler PPTX 样式解析 Handler
type StylesheetHandler struct{}

// NewStylesheetHandler 创建 Handler
func NewStylesheetHandler() *StylesheetHandler {
	return &StylesheetHandler{}
}

// Parse 解析上传的 PPTX，返回尺寸、配色、字体与版式占位符
func (h *StylesheetHandler) Parse(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pptx") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .pptx files are supported"})
		return
	}
	if header.Size > maxStylesheetSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	result, err := stylesheet.ParseReader(file, header.Size)
	if err != nil {
		klog.Warningf("[StylesheetHandler] 解析失败: file=%s, error=%v", header.Filename, err)
		if errors.Is(err, stylesheet.ErrInvalidPackage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
