package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thehallofegress/class-schedules/internal/dto"
	"github.com/thehallofegress/class-schedules/internal/service"
	apperrors "github.com/thehallofegress/class-schedules/pkg/errors"
	"github.com/thehallofegress/class-schedules/pkg/response"
)

// EditHandler 编辑会话 HTTP 处理器
type EditHandler struct {
	editSvc service.EditService
}

// NewEditHandler 创建 EditHandler
func NewEditHandler(editSvc service.EditService) *EditHandler {
	return &EditHandler{editSvc: editSvc}
}

// OpenSession 打开编辑会话
// POST /api/v1/edit-sessions
func (h *EditHandler) OpenSession(c *gin.Context) {
	var req dto.OpenEditSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.editSvc.Open(c.Request.Context(), req.Dataset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, result)
}

// GetSession 查询编辑会话
// GET /api/v1/edit-sessions/:id
func (h *EditHandler) GetSession(c *gin.Context) {
	result, err := h.editSvc.Get(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, result)
}

// DiscardSession 放弃编辑会话
// DELETE /api/v1/edit-sessions/:id
func (h *EditHandler) DiscardSession(c *gin.Context) {
	if err := h.editSvc.Discard(c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, nil)
}

// AddClass 向工作副本添加课程
// POST /api/v1/edit-sessions/:id/classes
func (h *EditHandler) AddClass(c *gin.Context) {
	var req dto.AddClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.editSvc.AddClass(c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, result)
}

// UpdateClass 修改工作副本中的课程
// PUT /api/v1/edit-sessions/:id/classes
func (h *EditHandler) UpdateClass(c *gin.Context) {
	var req dto.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.editSvc.UpdateClass(c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, result)
}

// RemoveClass 从工作副本删除课程
// DELETE /api/v1/edit-sessions/:id/classes?day=Monday&index=0
func (h *EditHandler) RemoveClass(c *gin.Context) {
	var req dto.RemoveClassRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.editSvc.RemoveClass(c.Param("id"), req.Day, req.Index)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, result)
}

// ReplacePayload 整体替换辅助记录工作副本
// PUT /api/v1/edit-sessions/:id/payload
func (h *EditHandler) ReplacePayload(c *gin.Context) {
	var req dto.ReplacePayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.editSvc.ReplacePayload(c.Param("id"), req.Payload)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, result)
}

// AppendLocation 向地点工作副本追加教室
// POST /api/v1/edit-sessions/:id/locations
func (h *EditHandler) AppendLocation(c *gin.Context) {
	var req dto.AppendLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.editSvc.AppendLocation(c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, result)
}

// RemoveLocation 从地点工作副本删除教室
// DELETE /api/v1/edit-sessions/:id/locations/:index
func (h *EditHandler) RemoveLocation(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.BadRequest(c, 10001, "序号必须是整数")
		return
	}

	result, err := h.editSvc.RemoveLocation(c.Param("id"), index)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, result)
}

// CommitSession 提交编辑会话
// POST /api/v1/edit-sessions/:id/commit
func (h *EditHandler) CommitSession(c *gin.Context) {
	result, err := h.editSvc.Commit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, result)
}

// writeError 编辑会话错误到 HTTP 状态码的映射
func (h *EditHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 21001, "编辑会话不存在或已过期")
	case errors.Is(err, service.ErrInvalidDay),
		errors.Is(err, service.ErrIndexOutOfRange),
		errors.Is(err, service.ErrInvalidPayload),
		errors.Is(err, service.ErrDatasetMismatch):
		response.BadRequest(c, 21002, err.Error())
	case errors.Is(err, apperrors.ErrPersistInFlight):
		response.Conflict(c, 21003, "该数据集已有保存操作进行中，请稍后重试")
	case errors.Is(err, service.ErrSnapshotNotLoaded):
		response.Error(c, http.StatusServiceUnavailable, 20001, "数据尚未就绪")
	default:
		response.InternalError(c)
	}
}
