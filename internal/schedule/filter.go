package schedule

import (
	"strings"

	"github.com/thehallofegress/class-schedules/internal/model"
)

// AllLocationID 地点筛选的"全部"选项
const AllLocationID = "all"

// MatchesType 判断课程是否命中所选课程类型。
// 类型 ID 由去限定词的课程名派生，因此用子串匹配而非全等，
// 保证选中 "基本功" 时 "基本功 (中高级)" 一样命中。
func MatchesType(s model.Session, typeID string) bool {
	return typeID == AllClassTypeID || strings.Contains(s.Name, typeID)
}

// MatchesLocation 判断课程是否命中所选地点（全等匹配）
func MatchesLocation(s model.Session, location string) bool {
	return location == AllLocationID || s.Location == location
}

// FilterDay 保留同时命中两个筛选条件的课程。
// 只过滤不重排，入参的已排序顺序在结果中原样保留。
func FilterDay(sessions []model.Session, typeID, location string) []model.Session {
	filtered := make([]model.Session, 0, len(sessions))
	for _, s := range sessions {
		if MatchesType(s, typeID) && MatchesLocation(s, location) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// FilterWeek 对整周课表的每一天应用 FilterDay
func FilterWeek(week model.DaySchedule, typeID, location string) model.DaySchedule {
	filtered := make(model.DaySchedule, len(week))
	for day, sessions := range week {
		filtered[day] = FilterDay(sessions, typeID, location)
	}
	return filtered
}
