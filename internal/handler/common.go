package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/slidesmith/backend/internal/service"
	"github.com/slidesmith/backend/internal/utils"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// parseID 解析路径参数中的 ID，失败时写入 400
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// pageParams 读取 offset/limit 查询参数
func pageParams(c *gin.Context) (int, int) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	return offset, limit
}

// sendArtifact 以附件形式返回文档，发送后删除文件
func sendArtifact(c *gin.Context, artifact *service.Artifact) {
	defer artifact.Remove()
	c.Header("Content-Disposition", utils.ContentDisposition(artifact.Filename))
	c.Header("Content-Type", pptxContentType)
	c.File(artifact.Path)
}
