package model

import (
	"database/sql/driver"
	"time"
)

// ZoomInfo 网课信息
type ZoomInfo struct {
	Title    string `json:"title"`
	ZoomID   string `json:"zoomId"`
	ZoomLink string `json:"zoomLink"`
}

// TeacherInfo 授课老师联系方式
type TeacherInfo struct {
	Title    string `json:"title"`
	Name     string `json:"name"`
	WechatID string `json:"wechatId"`
}

// ContactInfo 联系方式负载
type ContactInfo struct {
	ZoomInfo    ZoomInfo    `json:"zoomInfo"`
	TeacherInfo TeacherInfo `json:"teacherInfo"`
}

// Scan 实现 sql.Scanner
func (c *ContactInfo) Scan(src interface{}) error {
	return jsonbScan(src, c)
}

// Value 实现 driver.Valuer
func (c ContactInfo) Value() (driver.Value, error) {
	return jsonbValue(c)
}

// ContactRecord 联系方式记录 — 对应 contact 表
type ContactRecord struct {
	ID          int64       `gorm:"primaryKey"                         json:"id"`
	Contact     ContactInfo `gorm:"type:jsonb;not null;default:'{}'"   json:"contact"`
	LastUpdated time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"lastUpdated"`
}

// TableName 指定表名
func (ContactRecord) TableName() string { return "contact" }
