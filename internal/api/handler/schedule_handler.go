package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thehallofegress/class-schedules/internal/dto"
	"github.com/thehallofegress/class-schedules/internal/service"
	"github.com/thehallofegress/class-schedules/pkg/response"
)

// ScheduleHandler 课表展示 HTTP 处理器
type ScheduleHandler struct {
	viewSvc service.ViewService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(viewSvc service.ViewService) *ScheduleHandler {
	return &ScheduleHandler{viewSvc: viewSvc}
}

// GetSchedule 查询课表（支持类别 / 地点筛选）
// GET /api/v1/schedule?class_type=基本功&location=Fremont
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	var req dto.ScheduleViewRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.viewSvc.ScheduleView(&req)
	if err != nil {
		if errors.Is(err, service.ErrSnapshotNotLoaded) {
			response.Error(c, http.StatusServiceUnavailable, 20001, "课表数据尚未就绪")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// GetContact 查询联系方式
// GET /api/v1/contact
func (h *ScheduleHandler) GetContact(c *gin.Context) {
	result, err := h.viewSvc.Contact()
	if err != nil {
		if errors.Is(err, service.ErrSnapshotNotLoaded) {
			response.Error(c, http.StatusServiceUnavailable, 20001, "联系方式数据尚未就绪")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// GetPricing 查询收费信息
// GET /api/v1/pricing
func (h *ScheduleHandler) GetPricing(c *gin.Context) {
	result, err := h.viewSvc.Pricing()
	if err != nil {
		if errors.Is(err, service.ErrSnapshotNotLoaded) {
			response.Error(c, http.StatusServiceUnavailable, 20001, "收费信息数据尚未就绪")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// GetLocations 查询教室地点
// GET /api/v1/locations
func (h *ScheduleHandler) GetLocations(c *gin.Context) {
	result, err := h.viewSvc.Locations()
	if err != nil {
		if errors.Is(err, service.ErrSnapshotNotLoaded) {
			response.Error(c, http.StatusServiceUnavailable, 20001, "地点数据尚未就绪")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}
