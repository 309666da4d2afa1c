package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thehallofegress/class-schedules/internal/dto"
	"github.com/thehallofegress/class-schedules/internal/service"
)

// LegacyHandler 旧版静态 JSON 接口
// 响应结构沿用旧接口约定（{success} / {error}），不走统一响应封装，
// 老前端可以不改一行继续调用。
type LegacyHandler struct {
	legacySvc service.LegacyService
}

// NewLegacyHandler 创建 LegacyHandler
func NewLegacyHandler(legacySvc service.LegacyService) *LegacyHandler {
	return &LegacyHandler{legacySvc: legacySvc}
}

// SaveJSON 保存任意负载为公开目录下的静态 JSON 文件
// POST /api/v1/legacy/save-json
func (h *LegacyHandler) SaveJSON(c *gin.Context) {
	var req dto.SaveJSONRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing fileName or data"})
		return
	}
	if req.FileName == "" || len(req.Data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing fileName or data"})
		return
	}

	if err := h.legacySvc.SaveJSON(req.FileName, req.Data); err != nil {
		if errors.Is(err, service.ErrLegacyBadFileName) || errors.Is(err, service.ErrLegacyBadData) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
