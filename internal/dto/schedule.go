package dto

import "github.com/thehallofegress/class-schedules/internal/model"

// ── 课表模块 DTO ──

// ScheduleViewRequest 课表查询参数
type ScheduleViewRequest struct {
	ClassType string `form:"class_type"`
	Location  string `form:"location"`
}

// SessionView 单节课展示信息（含派生时长）
type SessionView struct {
	Time     string `json:"time"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Duration string `json:"duration,omitempty"`
}

// ScheduleViewResponse 课表展示响应
// Schedule 已按开始时间排序并应用筛选；ClassTypes/Cities 为派生数据
type ScheduleViewResponse struct {
	ID          int64                    `json:"id"`
	Schedule    map[string][]SessionView `json:"schedule"`
	ClassTypes  []model.ClassType        `json:"class_types"`
	Cities      []string                 `json:"cities"`
	LastUpdated string                   `json:"last_updated,omitempty"`
}
