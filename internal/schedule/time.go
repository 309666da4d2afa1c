// Package schedule 实现课表的纯领域逻辑：
// 时间解析与时长推导、天内排序归一化、课程类型派生、筛选判定。
// 本包不依赖存储与传输层，所有函数无副作用。
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SortKeyLast 无法解析的时间段的排序哨兵值，保证排在所有合法时间之后
const SortKeyLast = int(^uint(0) >> 1)

const minutesPerDay = 24 * 60

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?:\s*([AaPp][Mm]))?$`)

// ParseClock 解析单个时钟时间 "H:MM"（可带 AM/PM，大小写不敏感），
// 返回自午夜起的分钟数。
// 12 小时制转换规则：12 AM → 0 点，12 PM → 12 点，其余 PM 加 12。
// 格式非法时返回错误，调用方按"排最后 / 空时长"策略吸收，不得崩溃。
func ParseClock(token string) (int, error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return 0, fmt.Errorf("非法时间格式: %q", token)
	}

	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	if hours > 23 || minutes > 59 {
		return 0, fmt.Errorf("时间超出范围: %q", token)
	}

	if period := strings.ToUpper(m[3]); period != "" {
		if hours < 1 || hours > 12 {
			return 0, fmt.Errorf("12 小时制时间超出范围: %q", token)
		}
		if period == "PM" && hours != 12 {
			hours += 12
		}
		if period == "AM" && hours == 12 {
			hours = 0
		}
	}

	return hours*60 + minutes, nil
}

// RangeSortKey 计算时间段字符串的排序键：取首个 "-" 前的开始时间。
// 时间段为空或开始时间非法时返回 SortKeyLast，保证稳定的"排最后"语义。
func RangeSortKey(timeRange string) int {
	trimmed := strings.TrimSpace(timeRange)
	if trimmed == "" {
		return SortKeyLast
	}
	start := strings.TrimSpace(strings.SplitN(trimmed, "-", 2)[0])
	minutes, err := ParseClock(start)
	if err != nil {
		return SortKeyLast
	}
	return minutes
}

// Duration 推导时间段的人类可读时长，如 "2h"、"1h 30m"、"45m"。
// 结束时间早于开始时间视为跨午夜（结束落在次日）。
// 任一端解析失败时返回空串。
func Duration(timeRange string) string {
	start, end, ok := splitRange(timeRange)
	if !ok {
		return ""
	}

	startMin, err := ParseClock(start)
	if err != nil {
		return ""
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return ""
	}

	if endMin < startMin {
		endMin += minutesPerDay // 跨午夜
	}

	diff := endMin - startMin
	hours, minutes := diff/60, diff%60

	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// splitRange 以首个 "-" 切分时间段为开始 / 结束两个时间点
func splitRange(timeRange string) (start, end string, ok bool) {
	trimmed := strings.TrimSpace(timeRange)
	if trimmed == "" {
		return "", "", false
	}
	idx := strings.Index(trimmed, "-")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(trimmed[:idx]), strings.TrimSpace(trimmed[idx+1:]), true
}
