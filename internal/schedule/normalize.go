package schedule

import (
	"regexp"
	"sort"

	"github.com/thehallofegress/class-schedules/internal/model"
)

// AllClassTypeID 合成的"全部课程"类型，始终位于派生类型列表首位
const AllClassTypeID = "all"

// 去掉课程名中首个括号限定词，如 "基本功 (中高级)" → "基本功"
var qualifierPattern = regexp.MustCompile(`\s*\(.*?\)`)

// SortDay 返回按开始时间升序稳定排序的课程列表副本。
// 无法解析的时间排在最后；同一排序键保持原有相对顺序。
func SortDay(sessions []model.Session) []model.Session {
	sorted := make([]model.Session, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return RangeSortKey(sorted[i].Time) < RangeSortKey(sorted[j].Time)
	})
	return sorted
}

// SortWeek 对整周课表的每一天独立应用 SortDay。
// 不增删、不重排星期键；返回新的映射，入参不被修改。
func SortWeek(week model.DaySchedule) model.DaySchedule {
	if week == nil {
		return nil
	}
	sorted := make(model.DaySchedule, len(week))
	for day, sessions := range week {
		sorted[day] = SortDay(sessions)
	}
	return sorted
}

// StripQualifier 去掉课程名中的括号限定词
func StripQualifier(name string) string {
	if idx := qualifierPattern.FindStringIndex(name); idx != nil {
		return name[:idx[0]] + name[idx[1]:]
	}
	return name
}

// DeriveClassTypes 从整周课表派生课程类型列表：
// 摊平所有课程，去掉括号限定词，丢弃空名，按首次出现顺序去重，
// 并在首位插入合成的"所有课程"项。
func DeriveClassTypes(week model.DaySchedule) []model.ClassType {
	types := []model.ClassType{{ID: AllClassTypeID, Name: "所有课程"}}

	seen := make(map[string]bool)
	for _, day := range model.Weekdays {
		for _, s := range week[day] {
			name := StripQualifier(s.Name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			types = append(types, model.ClassType{ID: name, Name: name})
		}
	}
	return types
}
