package model

import (
	"database/sql/driver"
	"time"
)

// LocationInfo 一处教室信息
type LocationInfo struct {
	City    string `json:"city"`
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// LocationList 地点列表负载
type LocationList []LocationInfo

// Scan 实现 sql.Scanner
func (l *LocationList) Scan(src interface{}) error {
	return jsonbScan(src, l)
}

// Value 实现 driver.Valuer
func (l LocationList) Value() (driver.Value, error) {
	return jsonbValue(l)
}

// Clone 深拷贝地点列表
func (l LocationList) Clone() LocationList {
	if l == nil {
		return nil
	}
	out := make(LocationList, len(l))
	copy(out, l)
	return out
}

// Cities 去重后的城市列表（保留首次出现顺序）
func (l LocationList) Cities() []string {
	seen := make(map[string]bool, len(l))
	cities := make([]string, 0, len(l))
	for _, loc := range l {
		if loc.City == "" || seen[loc.City] {
			continue
		}
		seen[loc.City] = true
		cities = append(cities, loc.City)
	}
	return cities
}

// LocationRecord 地点记录 — 对应 locations 表
type LocationRecord struct {
	ID          int64        `gorm:"primaryKey"                         json:"id"`
	Locations   LocationList `gorm:"type:jsonb;not null;default:'[]'"   json:"locations"`
	LastUpdated time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"lastUpdated"`
}

// TableName 指定表名
func (LocationRecord) TableName() string { return "locations" }
