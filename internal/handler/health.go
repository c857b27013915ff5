package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slidesmith/backend/internal/service/orchestrator"
)

// QueueStatusProvider 生成队列状态
type QueueStatusProvider interface {
	Status() *orchestrator.QueueStatus
}

// HealthHandler 健康检查
type HealthHandler struct {
	queue QueueStatusProvider
}

// NewHealthHandler 创建 Handler，queue 可为 nil
func NewHealthHandler(queue QueueStatusProvider) *HealthHandler {
	return &HealthHandler{queue: queue}
}

// Health 返回服务状态与生成队列状态
func (h *HealthHandler) Health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.queue != nil {
		resp["queue"] = h.queue.Status()
	}
	c.JSON(http.StatusOK, resp)
}
