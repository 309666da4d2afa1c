package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/thehallofegress/class-schedules/internal/dto"
	"github.com/thehallofegress/class-schedules/internal/model"
	"github.com/thehallofegress/class-schedules/internal/schedule"
)

// ── 编辑会话业务错误 ──

var (
	ErrSessionNotFound = errors.New("编辑会话不存在或已过期")
	ErrInvalidDay      = errors.New("无效的星期名")
	ErrIndexOutOfRange = errors.New("课程序号超出范围")
	ErrDatasetMismatch = errors.New("该操作不适用于此会话的数据集")
	ErrInvalidPayload  = errors.New("负载结构不合法")
)

// editSession 一次编辑会话的工作副本。
// 副本自打开起与权威快照完全分离，提交前的任何修改都不外泄。
type editSession struct {
	id      string
	dataset Dataset

	mu        sync.Mutex
	schedule  model.DaySchedule
	contact   model.ContactInfo
	pricing   model.PricingInfo
	locations model.LocationList
}

// EditService 编辑会话业务接口
//
// 会话按闲置时间过期：每次操作都会刷新过期时钟。
// Commit 成功后会话立即销毁；Discard 不落盘直接销毁。
type EditService interface {
	Open(ctx context.Context, dataset string) (*dto.EditSessionResponse, error)
	Get(sessionID string) (*dto.EditSessionResponse, error)

	// 课表会话专用
	AddClass(sessionID string, req *dto.AddClassRequest) (*dto.EditSessionResponse, error)
	UpdateClass(sessionID string, req *dto.UpdateClassRequest) (*dto.EditSessionResponse, error)
	RemoveClass(sessionID string, day string, index int) (*dto.EditSessionResponse, error)

	// 辅助记录会话专用
	ReplacePayload(sessionID string, payload interface{}) (*dto.EditSessionResponse, error)
	AppendLocation(sessionID string, req *dto.AppendLocationRequest) (*dto.EditSessionResponse, error)
	RemoveLocation(sessionID string, index int) (*dto.EditSessionResponse, error)

	Commit(ctx context.Context, sessionID string) (*dto.CommitResponse, error)
	Discard(sessionID string) error
}

type editService struct {
	sync     SyncService
	sessions *gocache.Cache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewEditService 创建 EditService 实例；ttl 为会话闲置过期时间
func NewEditService(syncSvc SyncService, ttl time.Duration, logger *zap.Logger) EditService {
	return &editService{
		sync:     syncSvc,
		sessions: gocache.New(ttl, ttl/2),
		ttl:      ttl,
		logger:   logger,
	}
}

// Open 从当前权威快照分离工作副本并建立会话
func (s *editService) Open(ctx context.Context, dataset string) (*dto.EditSessionResponse, error) {
	sess := &editSession{
		id:      uuid.New().String(),
		dataset: Dataset(dataset),
	}

	switch sess.dataset {
	case DatasetSchedule:
		rec, ok := s.sync.ScheduleSnapshot()
		if !ok {
			return nil, ErrSnapshotNotLoaded
		}
		sess.schedule = rec.Schedule.Clone()
	case DatasetContact:
		rec, ok := s.sync.ContactSnapshot()
		if !ok {
			return nil, ErrSnapshotNotLoaded
		}
		sess.contact = rec.Contact
	case DatasetPricing:
		rec, ok := s.sync.PricingSnapshot()
		if !ok {
			return nil, ErrSnapshotNotLoaded
		}
		sess.pricing = rec.Pricing.Clone()
	case DatasetLocations:
		rec, ok := s.sync.LocationsSnapshot()
		if !ok {
			return nil, ErrSnapshotNotLoaded
		}
		sess.locations = rec.Locations.Clone()
	default:
		return nil, ErrDatasetMismatch
	}

	s.sessions.Set(sess.id, sess, s.ttl)
	s.logger.Info("打开编辑会话",
		zap.String("session_id", sess.id),
		zap.String("dataset", dataset),
	)
	return s.toResponse(sess), nil
}

func (s *editService) Get(sessionID string) (*dto.EditSessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(sess), nil
}

// lookup 取会话并刷新过期时钟
func (s *editService) lookup(sessionID string) (*editSession, error) {
	v, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess := v.(*editSession)
	s.sessions.Set(sessionID, sess, s.ttl)
	return sess, nil
}

// ════════════════════════════════════════════════════════════
// 课表会话操作
// ════════════════════════════════════════════════════════════

func (s *editService) AddClass(sessionID string, req *dto.AddClassRequest) (*dto.EditSessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.dataset != DatasetSchedule {
		return nil, ErrDatasetMismatch
	}
	if !model.IsWeekday(req.Day) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDay, req.Day)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.schedule == nil {
		sess.schedule = model.DaySchedule{}
	}
	sess.schedule[req.Day] = append(sess.schedule[req.Day], model.Session{
		Time:     req.Time,
		Name:     req.Name,
		Location: req.Location,
	})
	return s.toResponseLocked(sess), nil
}

func (s *editService) UpdateClass(sessionID string, req *dto.UpdateClassRequest) (*dto.EditSessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.dataset != DatasetSchedule {
		return nil, ErrDatasetMismatch
	}
	if !model.IsWeekday(req.Day) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDay, req.Day)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	day := sess.schedule[req.Day]
	if req.Index < 0 || req.Index >= len(day) {
		return nil, fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, req.Day, req.Index)
	}
	day[req.Index] = model.Session{
		Time:     req.Time,
		Name:     req.Name,
		Location: req.Location,
	}
	return s.toResponseLocked(sess), nil
}

func (s *editService) RemoveClass(sessionID string, dayName string, index int) (*dto.EditSessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.dataset != DatasetSchedule {
		return nil, ErrDatasetMismatch
	}
	if !model.IsWeekday(dayName) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDay, dayName)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	day := sess.schedule[dayName]
	if index < 0 || index >= len(day) {
		return nil, fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, dayName, index)
	}
	sess.schedule[dayName] = append(day[:index], day[index+1:]...)
	return s.toResponseLocked(sess), nil
}

// ════════════════════════════════════════════════════════════
// 辅助记录会话操作
// ════════════════════════════════════════════════════════════

// ReplacePayload 整体替换工作副本。
// payload 来自请求体的松散 JSON，这里重新编解码进强类型做结构校验。
func (s *editService) ReplacePayload(sessionID string, payload interface{}) (*dto.EditSessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	switch sess.dataset {
	case DatasetContact:
		var contact model.ContactInfo
		if err := strictUnmarshal(raw, &contact); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		sess.contact = contact
	case DatasetPricing:
		var pricing model.PricingInfo
		if err := strictUnmarshal(raw, &pricing); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		sess.pricing = pricing
	case DatasetLocations:
		var locations model.LocationList
		if err := strictUnmarshal(raw, &locations); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		sess.locations = locations
	default:
		// 课表只走逐条操作，避免绕过时间格式校验
		return nil, ErrDatasetMismatch
	}
	return s.toResponseLocked(sess), nil
}

func (s *editService) AppendLocation(sessionID string, req *dto.AppendLocationRequest) (*dto.EditSessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.dataset != DatasetLocations {
		return nil, ErrDatasetMismatch
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.locations = append(sess.locations, model.LocationInfo{
		City:    req.City,
		Address: req.Address,
		Name:    req.Name,
	})
	return s.toResponseLocked(sess), nil
}

func (s *editService) RemoveLocation(sessionID string, index int) (*dto.EditSessionResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.dataset != DatasetLocations {
		return nil, ErrDatasetMismatch
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if index < 0 || index >= len(sess.locations) {
		return nil, fmt.Errorf("%w: [%d]", ErrIndexOutOfRange, index)
	}
	sess.locations = append(sess.locations[:index], sess.locations[index+1:]...)
	return s.toResponseLocked(sess), nil
}

// ════════════════════════════════════════════════════════════
// 提交与放弃
// ════════════════════════════════════════════════════════════

// Commit 将工作副本写回远端并销毁会话。
// 课表在写回前先做全量排序，保证落盘数据始终有序。
func (s *editService) Commit(ctx context.Context, sessionID string) (*dto.CommitResponse, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	var (
		scheduleCopy  model.DaySchedule
		contactCopy   model.ContactInfo
		pricingCopy   model.PricingInfo
		locationsCopy model.LocationList
	)
	switch sess.dataset {
	case DatasetSchedule:
		scheduleCopy = sess.schedule.Clone()
	case DatasetContact:
		contactCopy = sess.contact
	case DatasetPricing:
		pricingCopy = sess.pricing.Clone()
	case DatasetLocations:
		locationsCopy = sess.locations.Clone()
	}
	sess.mu.Unlock()

	var lastUpdated time.Time
	switch sess.dataset {
	case DatasetSchedule:
		sorted := schedule.SortWeek(scheduleCopy)
		rec, err := s.sync.PersistSchedule(ctx, func(model.DaySchedule) model.DaySchedule {
			return sorted
		})
		if err != nil {
			return nil, err
		}
		lastUpdated = rec.LastUpdated
	case DatasetContact:
		rec, err := s.sync.PersistContact(ctx, func(model.ContactInfo) model.ContactInfo {
			return contactCopy
		})
		if err != nil {
			return nil, err
		}
		lastUpdated = rec.LastUpdated
	case DatasetPricing:
		rec, err := s.sync.PersistPricing(ctx, func(model.PricingInfo) model.PricingInfo {
			return pricingCopy
		})
		if err != nil {
			return nil, err
		}
		lastUpdated = rec.LastUpdated
	case DatasetLocations:
		rec, err := s.sync.PersistLocations(ctx, func(model.LocationList) model.LocationList {
			return locationsCopy
		})
		if err != nil {
			return nil, err
		}
		lastUpdated = rec.LastUpdated
	}

	s.sessions.Delete(sessionID)
	s.logger.Info("提交编辑会话",
		zap.String("session_id", sessionID),
		zap.String("dataset", string(sess.dataset)),
	)
	return &dto.CommitResponse{
		Dataset:     string(sess.dataset),
		LastUpdated: lastUpdated.Format(time.RFC3339Nano),
	}, nil
}

func (s *editService) Discard(sessionID string) error {
	if _, ok := s.sessions.Get(sessionID); !ok {
		return ErrSessionNotFound
	}
	s.sessions.Delete(sessionID)
	s.logger.Info("放弃编辑会话", zap.String("session_id", sessionID))
	return nil
}

// ════════════════════════════════════════════════════════════
// 辅助
// ════════════════════════════════════════════════════════════

func (s *editService) toResponse(sess *editSession) *dto.EditSessionResponse {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.toResponseLocked(sess)
}

// toResponseLocked 构造响应。调用方必须持有 sess.mu。
func (s *editService) toResponseLocked(sess *editSession) *dto.EditSessionResponse {
	resp := &dto.EditSessionResponse{
		SessionID: sess.id,
		Dataset:   string(sess.dataset),
		ExpiresIn: int(s.ttl.Seconds()),
	}
	switch sess.dataset {
	case DatasetSchedule:
		resp.WorkingCopy = sess.schedule.Clone()
	case DatasetContact:
		resp.WorkingCopy = sess.contact
	case DatasetPricing:
		resp.WorkingCopy = sess.pricing.Clone()
	case DatasetLocations:
		resp.WorkingCopy = sess.locations.Clone()
	}
	return resp
}

// strictUnmarshal 拒绝未知字段的反序列化
func strictUnmarshal(raw []byte, dst interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
