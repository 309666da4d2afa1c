package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/thehallofegress/class-schedules/internal/dto"
	"github.com/thehallofegress/class-schedules/internal/service"
	"github.com/thehallofegress/class-schedules/pkg/response"
)

// AuthHandler 编辑模式认证 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// EnterEditMode 口令换编辑 Token
// POST /api/v1/auth/edit-mode
func (h *AuthHandler) EnterEditMode(c *gin.Context) {
	var req dto.EnterEditModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.EnterEditMode(req.Password)
	if err != nil {
		if errors.Is(err, service.ErrWrongPassword) {
			response.Unauthorized(c, 11001, "编辑口令错误")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// ExitEditMode 退出编辑模式（吊销当前 Token）
// DELETE /api/v1/auth/edit-mode
func (h *AuthHandler) ExitEditMode(c *gin.Context) {
	token := c.GetString("edit_token")
	if err := h.authSvc.ExitEditMode(c.Request.Context(), token); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}
