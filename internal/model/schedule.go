package model

import (
	"database/sql/driver"
	"time"
)

// Weekdays 固定的一周七天键集合（展示顺序即此顺序）
var Weekdays = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// IsWeekday 判断 day 是否属于固定的七天键集合
func IsWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// Session 一节课：时间段、课程名、上课地点
// Time 的规范形式为 "H:MM AM|PM - H:MM AM|PM"
type Session struct {
	Time     string `json:"time"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// DaySchedule 整周课表 — 星期 → 当天课程列表
// 天内顺序是派生约束（按开始时间升序展示），不依赖存储顺序
type DaySchedule map[string][]Session

// Scan 实现 sql.Scanner
func (d *DaySchedule) Scan(src interface{}) error {
	return jsonbScan(src, d)
}

// Value 实现 driver.Valuer
func (d DaySchedule) Value() (driver.Value, error) {
	return jsonbValue(d)
}

// Clone 深拷贝整周课表
func (d DaySchedule) Clone() DaySchedule {
	if d == nil {
		return nil
	}
	out := make(DaySchedule, len(d))
	for day, sessions := range d {
		copied := make([]Session, len(sessions))
		copy(copied, sessions)
		out[day] = copied
	}
	return out
}

// ScheduleRecord 课表记录 — 对应 schedule 表（单行 Upsert 文档）
// ID 为 Upsert 冲突键；LastUpdated 由写入方设置，是唯一的新旧判定信号
type ScheduleRecord struct {
	ID          int64       `gorm:"primaryKey"                         json:"id"`
	Schedule    DaySchedule `gorm:"type:jsonb;not null;default:'{}'"   json:"schedule"`
	LastUpdated time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"lastUpdated"`
}

// TableName 指定表名
func (ScheduleRecord) TableName() string { return "schedule" }

// Clone 深拷贝课表记录
func (r ScheduleRecord) Clone() ScheduleRecord {
	out := r
	out.Schedule = r.Schedule.Clone()
	return out
}

// ClassType 派生的课程类型（去掉括号限定词后的课程名），不落库
type ClassType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
