package service

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/thehallofegress/class-schedules/internal/model"
	"github.com/thehallofegress/class-schedules/internal/repository"
)

// ── Mock ScheduleRepository ──

type mockScheduleRepo struct {
	mu          sync.Mutex
	rec         *model.ScheduleRecord
	latestErr   error
	upsertErr   error
	latestCalls int
	upsertCalls int

	// 并发测试用：Upsert 进入时向 upsertEntered 发信号，然后阻塞等待 upsertGate
	upsertEntered chan struct{}
	upsertGate    chan struct{}
}

func (m *mockScheduleRepo) Latest(_ context.Context) (*model.ScheduleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latestCalls++
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	if m.rec == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.rec.Clone()
	return &cp, nil
}

func (m *mockScheduleRepo) Upsert(_ context.Context, rec *model.ScheduleRecord) error {
	if m.upsertEntered != nil {
		m.upsertEntered <- struct{}{}
	}
	if m.upsertGate != nil {
		<-m.upsertGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	cp := rec.Clone()
	m.rec = &cp
	return nil
}

// ── Mock ContactRepository ──

type mockContactRepo struct {
	mu  sync.Mutex
	rec *model.ContactRecord
}

func (m *mockContactRepo) Latest(_ context.Context) (*model.ContactRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.rec
	return &cp, nil
}

func (m *mockContactRepo) Upsert(_ context.Context, rec *model.ContactRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.rec = &cp
	return nil
}

// ── Mock PricingRepository ──

type mockPricingRepo struct {
	mu  sync.Mutex
	rec *model.PricingRecord
}

func (m *mockPricingRepo) Latest(_ context.Context) (*model.PricingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.rec
	cp.Pricing = m.rec.Pricing.Clone()
	return &cp, nil
}

func (m *mockPricingRepo) Upsert(_ context.Context, rec *model.PricingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	cp.Pricing = rec.Pricing.Clone()
	m.rec = &cp
	return nil
}

// ── Mock LocationRepository ──

type mockLocationRepo struct {
	mu  sync.Mutex
	rec *model.LocationRecord
}

func (m *mockLocationRepo) Latest(_ context.Context) (*model.LocationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.rec
	cp.Locations = m.rec.Locations.Clone()
	return &cp, nil
}

func (m *mockLocationRepo) Upsert(_ context.Context, rec *model.LocationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	cp.Locations = rec.Locations.Clone()
	m.rec = &cp
	return nil
}

// ── Mock AnnouncementRepository ──

type mockAnnouncementRepo struct {
	announcements map[string]*model.Announcement
}

func newMockAnnouncementRepo() *mockAnnouncementRepo {
	return &mockAnnouncementRepo{announcements: make(map[string]*model.Announcement)}
}

func (m *mockAnnouncementRepo) ListActive(_ context.Context, now time.Time) ([]model.Announcement, error) {
	var result []model.Announcement
	for _, a := range m.announcements {
		if a.IsActive && !a.ExpiresAt.Before(now) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAnnouncementRepo) GetByID(_ context.Context, id string) (*model.Announcement, error) {
	if a, ok := m.announcements[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAnnouncementRepo) Create(_ context.Context, a *model.Announcement) error {
	cp := *a
	m.announcements[a.ID] = &cp
	return nil
}

func (m *mockAnnouncementRepo) Update(_ context.Context, a *model.Announcement) error {
	cp := *a
	m.announcements[a.ID] = &cp
	return nil
}

func (m *mockAnnouncementRepo) Deactivate(_ context.Context, id string) error {
	if a, ok := m.announcements[id]; ok {
		a.IsActive = false
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── 测试夹具 ──

type mockRepos struct {
	schedule  *mockScheduleRepo
	contact   *mockContactRepo
	pricing   *mockPricingRepo
	location  *mockLocationRepo
	announces *mockAnnouncementRepo
}

// newMockRepos 预置四个数据集的种子记录
func newMockRepos() (*repository.Repository, *mockRepos) {
	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	mocks := &mockRepos{
		schedule: &mockScheduleRepo{rec: &model.ScheduleRecord{
			ID: 1,
			Schedule: model.DaySchedule{
				"Monday": {
					{Time: "7:00 PM - 8:30 PM", Name: "基本功 (中级)", Location: "Palo Alto"},
					{Time: "9:30 AM - 11:30 AM", Name: "古典舞", Location: "Fremont"},
				},
				"Saturday": {
					{Time: "10:00 AM - 11:00 AM", Name: "少儿班", Location: "Fremont"},
				},
			},
			LastUpdated: base,
		}},
		contact: &mockContactRepo{rec: &model.ContactRecord{
			ID: 1,
			Contact: model.ContactInfo{
				ZoomInfo:    model.ZoomInfo{Title: "线上课", ZoomID: "123 456 789", ZoomLink: "https://zoom.us/j/123456789"},
				TeacherInfo: model.TeacherInfo{Title: "授课老师", Name: "王老师", WechatID: "wang-laoshi"},
			},
			LastUpdated: base,
		}},
		pricing: &mockPricingRepo{rec: &model.PricingRecord{
			ID: 1,
			Pricing: model.PricingInfo{
				HourlyRates: []model.HourlyRate{{Hours: "1", Rate: 25}},
			},
			LastUpdated: base,
		}},
		location: &mockLocationRepo{rec: &model.LocationRecord{
			ID: 1,
			Locations: model.LocationList{
				{City: "Fremont", Address: "123 A St"},
				{City: "Palo Alto", Address: "456 B Ave"},
			},
			LastUpdated: base,
		}},
		announces: newMockAnnouncementRepo(),
	}

	repo := &repository.Repository{
		Schedule:     mocks.schedule,
		Contact:      mocks.contact,
		Pricing:      mocks.pricing,
		Location:     mocks.location,
		Announcement: mocks.announces,
	}
	return repo, mocks
}
