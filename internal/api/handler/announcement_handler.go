package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/thehallofegress/class-schedules/internal/dto"
	"github.com/thehallofegress/class-schedules/internal/service"
	"github.com/thehallofegress/class-schedules/pkg/response"
)

// AnnouncementHandler 通知模块 HTTP 处理器
type AnnouncementHandler struct {
	svc service.AnnouncementService
}

// NewAnnouncementHandler 创建 AnnouncementHandler
func NewAnnouncementHandler(svc service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{svc: svc}
}

// List 查询当前有效通知
// GET /api/v1/announcements
func (h *AnnouncementHandler) List(c *gin.Context) {
	result, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Create 发布通知
// POST /api/v1/announcements
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req dto.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.Created(c, result)
}

// Update 修改通知
// PUT /api/v1/announcements/:id
func (h *AnnouncementHandler) Update(c *gin.Context) {
	var req dto.UpdateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, service.ErrAnnouncementNotFound) {
			response.NotFound(c, 22001, "通知不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Delete 下线通知（软删除）
// DELETE /api/v1/announcements/:id
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrAnnouncementNotFound) {
			response.NotFound(c, 22001, "通知不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}
