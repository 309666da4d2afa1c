package service

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/thehallofegress/class-schedules/internal/model"
	"github.com/thehallofegress/class-schedules/internal/schedule"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// 中文列头用的星期名
var dayLabels = map[string]string{
	"Monday":    "周一",
	"Tuesday":   "周二",
	"Wednesday": "周三",
	"Thursday":  "周四",
	"Friday":    "周五",
	"Saturday":  "周六",
	"Sunday":    "周日",
}

// iCalendar BYDAY 记号
var icsByDay = map[string]string{
	"Monday":    "MO",
	"Tuesday":   "TU",
	"Wednesday": "WE",
	"Thursday":  "TH",
	"Friday":    "FR",
	"Saturday":  "SA",
	"Sunday":    "SU",
}

// ExportService 课表导出业务接口
//
// 设计说明：
//   - Excel 导出为一张总表：星期 × (时间, 课程, 地点, 时长)
//   - iCalendar 导出为每周重复事件（RRULE FREQ=WEEKLY），
//     时间无法解析的课程跳过，不阻塞整体导出
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	ExportScheduleXLSX() (*bytes.Buffer, string, error)
	ExportScheduleICS() (*bytes.Buffer, string, error)
}

type exportService struct {
	sync   SyncService
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(syncSvc SyncService, logger *zap.Logger) ExportService {
	return &exportService{sync: syncSvc, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportScheduleXLSX — 导出课表为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportScheduleXLSX() (*bytes.Buffer, string, error) {
	rec, ok := s.sync.ScheduleSnapshot()
	if !ok {
		return nil, "", ErrSnapshotNotLoaded
	}
	week := schedule.SortWeek(rec.Schedule)

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "课表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 10)
	f.SetColWidth(sheetName, "B", "B", 22)
	f.SetColWidth(sheetName, "C", "C", 28)
	f.SetColWidth(sheetName, "D", "D", 20)
	f.SetColWidth(sheetName, "E", "E", 10)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", "每周课表")
	f.MergeCell(sheetName, "A1", "E1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "星期")
	f.SetCellValue(sheetName, cell("B", row), "时间")
	f.SetCellValue(sheetName, cell("C", row), "课程")
	f.SetCellValue(sheetName, cell("D", row), "地点")
	f.SetCellValue(sheetName, cell("E", row), "时长")

	// 数据行：按周一到周日、开始时间先后排列
	row = 3
	for _, day := range model.Weekdays {
		for _, sess := range week[day] {
			f.SetCellValue(sheetName, cell("A", row), dayLabels[day])
			f.SetCellValue(sheetName, cell("B", row), sess.Time)
			f.SetCellValue(sheetName, cell("C", row), sess.Name)
			f.SetCellValue(sheetName, cell("D", row), sess.Location)
			f.SetCellValue(sheetName, cell("E", row), schedule.Duration(sess.Time))
			row++
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, "class-schedule.xlsx", nil
}

// ═══════════════════════════════════════════════════════════
// ExportScheduleICS — 导出课表为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每节课生成一个按周重复的 VEVENT，DTSTART 锚定在当前周对应的星期。
// 跨午夜的课程结束时间落到次日。

func (s *exportService) ExportScheduleICS() (*bytes.Buffer, string, error) {
	rec, ok := s.sync.ScheduleSnapshot()
	if !ok {
		return nil, "", ErrSnapshotNotLoaded
	}
	week := schedule.SortWeek(rec.Schedule)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//class-schedules//EN")

	anchor := weekAnchor(time.Now())
	for dayIdx, day := range model.Weekdays {
		for _, sess := range week[day] {
			start, end, ok := sessionTimes(sess.Time)
			if !ok {
				s.logger.Warn("课程时间无法解析，跳过导出",
					zap.String("day", day),
					zap.String("time", sess.Time),
				)
				continue
			}

			dayStart := anchor.AddDate(0, 0, dayIdx)
			evt := cal.AddEvent(uuid.New().String() + "@class-schedules")
			evt.SetCreatedTime(time.Now())
			evt.SetDtStampTime(time.Now())
			evt.SetStartAt(dayStart.Add(time.Duration(start) * time.Minute))
			evt.SetEndAt(dayStart.Add(time.Duration(end) * time.Minute))
			evt.SetSummary(sess.Name)
			if sess.Location != "" {
				evt.SetLocation(sess.Location)
			}
			evt.AddRrule("FREQ=WEEKLY;BYDAY=" + icsByDay[day])
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, "class-schedule.ics", nil
}

// ── 辅助函数 ──

// weekAnchor 本周周一零点（本地时区）
func weekAnchor(now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(now.Weekday()) + 6) % 7 // Monday=0
	return midnight.AddDate(0, 0, -offset)
}

// sessionTimes 解析时间段为自零点起的分钟数；结束早于开始视为跨午夜
func sessionTimes(timeRange string) (start, end int, ok bool) {
	parts := strings.SplitN(timeRange, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, err := schedule.ParseClock(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	end, err = schedule.ParseClock(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	if end <= start {
		end += 24 * 60
	}
	return start, end, true
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
