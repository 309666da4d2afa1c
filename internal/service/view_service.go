package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/thehallofegress/class-schedules/internal/dto"
	"github.com/thehallofegress/class-schedules/internal/model"
	"github.com/thehallofegress/class-schedules/internal/schedule"
)

// ViewService 只读展示业务接口：在权威快照之上做排序、筛选与派生。
// 快照未加载时返回 ErrSnapshotNotLoaded，由调用方决定如何降级。
type ViewService interface {
	ScheduleView(req *dto.ScheduleViewRequest) (*dto.ScheduleViewResponse, error)
	Contact() (*dto.ContactResponse, error)
	Pricing() (*dto.PricingResponse, error)
	Locations() (*dto.LocationsResponse, error)
}

type viewService struct {
	sync   SyncService
	logger *zap.Logger
}

// NewViewService 创建 ViewService 实例
func NewViewService(syncSvc SyncService, logger *zap.Logger) ViewService {
	return &viewService{sync: syncSvc, logger: logger}
}

// ScheduleView 构造课表展示数据。
// 派生数据（课程类别、城市）取自筛选前的全量课表，
// 这样筛选结果为空时选项列表依然完整。
func (s *viewService) ScheduleView(req *dto.ScheduleViewRequest) (*dto.ScheduleViewResponse, error) {
	rec, ok := s.sync.ScheduleSnapshot()
	if !ok {
		return nil, ErrSnapshotNotLoaded
	}

	sorted := schedule.SortWeek(rec.Schedule)
	classTypes := schedule.DeriveClassTypes(sorted)
	cities := s.cities()

	// 未传筛选参数视同选择"全部"，空字符串不参与匹配
	typeID, location := schedule.AllClassTypeID, schedule.AllLocationID
	if req != nil {
		if req.ClassType != "" {
			typeID = req.ClassType
		}
		if req.Location != "" {
			location = req.Location
		}
	}
	filtered := schedule.FilterWeek(sorted, typeID, location)

	view := make(map[string][]dto.SessionView, len(filtered))
	for _, day := range model.Weekdays {
		sessions, ok := filtered[day]
		if !ok {
			continue
		}
		views := make([]dto.SessionView, 0, len(sessions))
		for _, sess := range sessions {
			views = append(views, dto.SessionView{
				Time:     sess.Time,
				Name:     sess.Name,
				Location: sess.Location,
				Duration: schedule.Duration(sess.Time),
			})
		}
		view[day] = views
	}

	return &dto.ScheduleViewResponse{
		ID:          rec.ID,
		Schedule:    view,
		ClassTypes:  classTypes,
		Cities:      cities,
		LastUpdated: rec.LastUpdated.Format(time.RFC3339Nano),
	}, nil
}

func (s *viewService) Contact() (*dto.ContactResponse, error) {
	rec, ok := s.sync.ContactSnapshot()
	if !ok {
		return nil, ErrSnapshotNotLoaded
	}
	return &dto.ContactResponse{
		ID:          rec.ID,
		Contact:     rec.Contact,
		LastUpdated: rec.LastUpdated.Format(time.RFC3339Nano),
	}, nil
}

func (s *viewService) Pricing() (*dto.PricingResponse, error) {
	rec, ok := s.sync.PricingSnapshot()
	if !ok {
		return nil, ErrSnapshotNotLoaded
	}
	return &dto.PricingResponse{
		ID:          rec.ID,
		Pricing:     rec.Pricing,
		LastUpdated: rec.LastUpdated.Format(time.RFC3339Nano),
	}, nil
}

func (s *viewService) Locations() (*dto.LocationsResponse, error) {
	rec, ok := s.sync.LocationsSnapshot()
	if !ok {
		return nil, ErrSnapshotNotLoaded
	}
	return &dto.LocationsResponse{
		ID:          rec.ID,
		Locations:   rec.Locations,
		Cities:      rec.Locations.Cities(),
		LastUpdated: rec.LastUpdated.Format(time.RFC3339Nano),
	}, nil
}

// cities 地点快照未加载时返回空列表，不影响课表展示
func (s *viewService) cities() []string {
	rec, ok := s.sync.LocationsSnapshot()
	if !ok {
		return []string{}
	}
	return rec.Locations.Cities()
}
