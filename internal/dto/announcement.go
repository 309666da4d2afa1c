package dto

// ── 通知模块 DTO ──

// CreateAnnouncementRequest 发布通知请求
type CreateAnnouncementRequest struct {
	Message       string `json:"message"         binding:"required,max=500"`
	Type          string `json:"type"            binding:"omitempty,oneof=info success warning error"`
	ExpiresInDays int    `json:"expires_in_days" binding:"omitempty,min=1,max=365"`
}

// UpdateAnnouncementRequest 修改通知请求
type UpdateAnnouncementRequest struct {
	Message       string `json:"message"         binding:"required,max=500"`
	Type          string `json:"type"            binding:"omitempty,oneof=info success warning error"`
	ExpiresInDays int    `json:"expires_in_days" binding:"omitempty,min=1,max=365"`
}

// AnnouncementResponse 通知响应
type AnnouncementResponse struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	ExpiresAt string `json:"expires_at"`
	CreatedAt string `json:"created_at"`
}
