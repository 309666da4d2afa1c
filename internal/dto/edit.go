package dto

// ── 编辑会话 DTO ──

// OpenEditSessionRequest 打开编辑会话请求
type OpenEditSessionRequest struct {
	Dataset string `json:"dataset" binding:"required,oneof=schedule contact pricing locations"`
}

// EditSessionResponse 编辑会话响应
// WorkingCopy 是从权威快照分离出来的工作副本，提交或放弃前与快照互不影响
type EditSessionResponse struct {
	SessionID   string      `json:"session_id"`
	Dataset     string      `json:"dataset"`
	WorkingCopy interface{} `json:"working_copy"`
	ExpiresIn   int         `json:"expires_in"` // 会话闲置过期秒数
}

// AddClassRequest 向某天添加课程
type AddClassRequest struct {
	Day      string `json:"day"      binding:"required"`
	Time     string `json:"time"     binding:"required"`
	Name     string `json:"name"     binding:"required"`
	Location string `json:"location"`
}

// UpdateClassRequest 修改某天指定位置的课程
type UpdateClassRequest struct {
	Day      string `json:"day"   binding:"required"`
	Index    int    `json:"index" binding:"min=0"`
	Time     string `json:"time"  binding:"required"`
	Name     string `json:"name"  binding:"required"`
	Location string `json:"location"`
}

// RemoveClassRequest 删除某天指定位置的课程
type RemoveClassRequest struct {
	Day   string `form:"day"   binding:"required"`
	Index int    `form:"index" binding:"min=0"`
}

// ReplacePayloadRequest 整体替换辅助记录负载（contact / pricing / locations）
// Payload 结构由会话的 dataset 决定，在 Service 层做强类型校验
type ReplacePayloadRequest struct {
	Payload interface{} `json:"payload" binding:"required"`
}

// AppendLocationRequest 向地点列表追加一处教室
type AppendLocationRequest struct {
	City    string `json:"city"    binding:"required"`
	Address string `json:"address" binding:"required"`
	Name    string `json:"name"`
}

// CommitResponse 提交结果
type CommitResponse struct {
	Dataset     string `json:"dataset"`
	LastUpdated string `json:"last_updated"`
}
