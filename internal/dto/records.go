package dto

import "github.com/thehallofegress/class-schedules/internal/model"

// ── 辅助记录集 DTO（联系方式 / 收费 / 地点）──

// ContactResponse 联系方式响应
type ContactResponse struct {
	ID          int64             `json:"id"`
	Contact     model.ContactInfo `json:"contact"`
	LastUpdated string            `json:"last_updated,omitempty"`
}

// PricingResponse 收费信息响应
type PricingResponse struct {
	ID          int64             `json:"id"`
	Pricing     model.PricingInfo `json:"pricing"`
	LastUpdated string            `json:"last_updated,omitempty"`
}

// LocationsResponse 地点列表响应
type LocationsResponse struct {
	ID          int64              `json:"id"`
	Locations   model.LocationList `json:"locations"`
	Cities      []string           `json:"cities"`
	LastUpdated string             `json:"last_updated,omitempty"`
}

// ── 同步模块 DTO ──

// RefreshRequest 手动刷新请求
type RefreshRequest struct {
	Force bool `form:"force"`
}

// DatasetStatus 单个数据集的同步状态
type DatasetStatus struct {
	Dataset     string `json:"dataset"`
	State       string `json:"state"`
	LastUpdated string `json:"last_updated,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SyncStatusResponse 全部数据集的同步状态
type SyncStatusResponse struct {
	Datasets []DatasetStatus `json:"datasets"`
}
