package model

import "time"

// 通知类型
const (
	AnnouncementInfo    = "info"
	AnnouncementSuccess = "success"
	AnnouncementWarning = "warning"
	AnnouncementError   = "error"
)

// Announcement 站内通知 — 对应 announcements 表
// 删除为软删除（is_active=false），过期由 expires_at 控制
type Announcement struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Message   string    `gorm:"type:text;not null"                             json:"message"`
	Type      string    `gorm:"type:varchar(16);not null;default:'info'"       json:"type"`
	ExpiresAt time.Time `gorm:"not null"                                       json:"expires_at"`
	IsActive  bool      `gorm:"not null;default:true"                          json:"is_active"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Announcement) TableName() string { return "announcements" }
