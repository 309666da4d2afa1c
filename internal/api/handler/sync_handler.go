package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/thehallofegress/class-schedules/internal/dto"
	"github.com/thehallofegress/class-schedules/internal/service"
	"github.com/thehallofegress/class-schedules/pkg/response"
)

// SyncHandler 同步模块 HTTP 处理器
type SyncHandler struct {
	syncSvc service.SyncService
}

// NewSyncHandler 创建 SyncHandler
func NewSyncHandler(syncSvc service.SyncService) *SyncHandler {
	return &SyncHandler{syncSvc: syncSvc}
}

// Refresh 手动触发全量拉取
// POST /api/v1/sync/refresh?force=true
//
// 部分数据集失败时仍返回 200，失败详情在各数据集状态里；
// 调用方通过 Status 判断哪些数据集出错。
func (h *SyncHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	_ = h.syncSvc.FetchAll(c.Request.Context(), req.Force)
	response.OK(c, h.syncSvc.Status())
}

// Status 查询各数据集同步状态
// GET /api/v1/sync/status
func (h *SyncHandler) Status(c *gin.Context) {
	response.OK(c, h.syncSvc.Status())
}
