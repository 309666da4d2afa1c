package dto

import "encoding/json"

// ── 旧版 JSON 文件持久化 DTO（迁移期兼容）──

// SaveJSONRequest 旧版保存请求：{ fileName, data }
// 字段名沿用旧接口的驼峰形式，保证迁移期前端无需改动
type SaveJSONRequest struct {
	FileName string          `json:"fileName"`
	Data     json.RawMessage `json:"data"`
}
