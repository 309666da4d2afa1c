package dto

// ── 编辑模式认证 DTO ──

// EnterEditModeRequest 进入编辑模式请求（共享口令）
type EnterEditModeRequest struct {
	Password string `json:"password" binding:"required"`
}

// EditTokenResponse 编辑 Token 响应
type EditTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // Token 有效期（秒）
}
