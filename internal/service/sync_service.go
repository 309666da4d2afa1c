package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/thehallofegress/class-schedules/internal/dto"
	"github.com/thehallofegress/class-schedules/internal/model"
	"github.com/thehallofegress/class-schedules/internal/repository"
	apperrors "github.com/thehallofegress/class-schedules/pkg/errors"
)

// ── 同步模块业务错误 ──

var (
	ErrSnapshotNotLoaded = errors.New("数据尚未加载，无法保存")
)

// Dataset 数据集标识
type Dataset string

// 四个远端数据集
const (
	DatasetSchedule  Dataset = "schedule"
	DatasetContact   Dataset = "contact"
	DatasetPricing   Dataset = "pricing"
	DatasetLocations Dataset = "locations"
)

// Datasets 全部数据集（FetchAll 的遍历顺序）
var Datasets = []Dataset{DatasetSchedule, DatasetContact, DatasetPricing, DatasetLocations}

// ── 数据集状态机 ──
//
// uninitialized → loading → {ready, errored}
// ready → loading（再次拉取）
// ready → persisting → {ready, errored}（保存）
// errored 非终态：后续拉取或保存都会重试

const (
	stateUninitialized = "uninitialized"
	stateLoading       = "loading"
	stateReady         = "ready"
	stateErrored       = "errored"
	statePersisting    = "persisting"
)

const (
	eventFetch       = "fetch"
	eventFetchOK     = "fetch_ok"
	eventFetchFail   = "fetch_fail"
	eventPersist     = "persist"
	eventPersistOK   = "persist_ok"
	eventPersistFail = "persist_fail"
)

func newDatasetFSM() *fsm.FSM {
	return fsm.NewFSM(
		stateUninitialized,
		fsm.Events{
			{Name: eventFetch, Src: []string{stateUninitialized, stateReady, stateErrored}, Dst: stateLoading},
			{Name: eventFetchOK, Src: []string{stateLoading}, Dst: stateReady},
			{Name: eventFetchFail, Src: []string{stateLoading}, Dst: stateErrored},
			{Name: eventPersist, Src: []string{stateReady, stateErrored}, Dst: statePersisting},
			{Name: eventPersistOK, Src: []string{statePersisting}, Dst: stateReady},
			{Name: eventPersistFail, Src: []string{statePersisting}, Dst: stateErrored},
		},
		fsm.Callbacks{},
	)
}

// datasetState 单个数据集的同步状态（快照本体按类型存放在 syncService 上）
//
// 单写者纪律：seen/loaded/persisting 及对应快照只在持有 mu 时由本文件修改；
// 其他组件只能通过深拷贝读取。
type datasetState struct {
	name       Dataset
	mu         sync.Mutex
	fsm        *fsm.FSM
	seen       time.Time // 已持有记录的 lastUpdated（新旧判定的唯一依据）
	loaded     bool
	persisting bool
	lastErr    error
}

func newDatasetState(name Dataset) datasetState {
	return datasetState{name: name, fsm: newDatasetFSM()}
}

// shouldReplace 判定拉取结果是否应替换当前快照：
// 首次加载、强制刷新、或远端 lastUpdated 与已持有值不同。
// 相同时间戳的回显被跳过，避免覆盖进行中的本地编辑。
// 调用方必须持有 mu。
func (st *datasetState) shouldReplace(force bool, fetched time.Time) bool {
	return !st.loaded || force || !fetched.Equal(st.seen)
}

// ChangeNotifier 快照替换通知（WebSocket 推送等）
type ChangeNotifier interface {
	NotifyChange(dataset string, lastUpdated time.Time)
}

// ── SyncService 接口 ──────────────────────────────────────
//
// 设计说明：
//   - Service 持有四个数据集的权威内存快照，是快照的唯一写者。
//   - FetchAll 并行读取四个数据集；单个数据集失败不阻塞其余数据集，
//     各自记入状态，同时汇总为一个聚合错误返回。
//   - Persist* 两阶段：Upsert 成功后先用本地计算结果替换快照，
//     再 FetchAll(force=true) 与远端对账（保留源设计的乐观更新模式）。
//   - 同一数据集同时最多一个保存操作；后到者以 ErrPersistInFlight 拒绝。
// ─────────────────────────────────────────────────────────────

// SyncService 远端数据同步业务接口
type SyncService interface {
	// FetchAll 拉取全部数据集；force 为真时无条件替换快照
	FetchAll(ctx context.Context, force bool) error
	// Status 各数据集当前同步状态
	Status() *dto.SyncStatusResponse

	// 快照读取（深拷贝；bool 表示是否已完成首次加载）
	ScheduleSnapshot() (model.ScheduleRecord, bool)
	ContactSnapshot() (model.ContactRecord, bool)
	PricingSnapshot() (model.PricingRecord, bool)
	LocationsSnapshot() (model.LocationRecord, bool)

	// 变更保存：mutate 收到当前快照负载的深拷贝，返回要写入的新负载
	PersistSchedule(ctx context.Context, mutate func(model.DaySchedule) model.DaySchedule) (model.ScheduleRecord, error)
	PersistContact(ctx context.Context, mutate func(model.ContactInfo) model.ContactInfo) (model.ContactRecord, error)
	PersistPricing(ctx context.Context, mutate func(model.PricingInfo) model.PricingInfo) (model.PricingRecord, error)
	PersistLocations(ctx context.Context, mutate func(model.LocationList) model.LocationList) (model.LocationRecord, error)
}

type syncService struct {
	repo     *repository.Repository
	logger   *zap.Logger
	notifier ChangeNotifier
	timeout  time.Duration

	schedule  datasetState
	contact   datasetState
	pricing   datasetState
	locations datasetState

	scheduleRec  model.ScheduleRecord
	contactRec   model.ContactRecord
	pricingRec   model.PricingRecord
	locationsRec model.LocationRecord
}

// NewSyncService 创建 SyncService 实例
// notifier 可为 nil（无推送）；timeout 为单次远端读写超时，0 表示不限制
func NewSyncService(repo *repository.Repository, notifier ChangeNotifier, timeout time.Duration, logger *zap.Logger) SyncService {
	return &syncService{
		repo:      repo,
		logger:    logger,
		notifier:  notifier,
		timeout:   timeout,
		schedule:  newDatasetState(DatasetSchedule),
		contact:   newDatasetState(DatasetContact),
		pricing:   newDatasetState(DatasetPricing),
		locations: newDatasetState(DatasetLocations),
	}
}

// remoteCtx 给远端调用附加超时
func (s *syncService) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return ctx, func() {}
}

func (s *syncService) notify(dataset Dataset, lastUpdated time.Time) {
	if s.notifier != nil {
		s.notifier.NotifyChange(string(dataset), lastUpdated)
	}
}

// ════════════════════════════════════════════════════════════
// FetchAll — 拉取全部数据集
// ════════════════════════════════════════════════════════════

func (s *syncService) FetchAll(ctx context.Context, force bool) error {
	var wg sync.WaitGroup
	errs := make([]error, len(Datasets))

	fetchers := []func(context.Context, bool) error{
		s.fetchSchedule,
		s.fetchContact,
		s.fetchPricing,
		s.fetchLocations,
	}

	for i, fetch := range fetchers {
		wg.Add(1)
		go func(i int, fetch func(context.Context, bool) error) {
			defer wg.Done()
			errs[i] = fetch(ctx, force)
		}(i, fetch)
	}
	wg.Wait()

	var failed []error
	for i, err := range errs {
		if err != nil {
			s.logger.Error("拉取数据集失败",
				zap.String("dataset", string(Datasets[i])),
				zap.Bool("force", force),
				zap.Error(err),
			)
			failed = append(failed, fmt.Errorf("%s: %w", Datasets[i], err))
		}
	}
	if len(failed) > 0 {
		return errors.Join(failed...)
	}
	return nil
}

func (s *syncService) fetchSchedule(ctx context.Context, force bool) error {
	st := &s.schedule
	if err := s.beginFetch(ctx, st); err != nil {
		return err
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	rec, err := s.repo.Schedule.Latest(rctx)

	st.mu.Lock()
	defer st.mu.Unlock()
	if err != nil {
		s.finishFetch(ctx, st, err)
		return err
	}
	s.finishFetch(ctx, st, nil)
	if st.shouldReplace(force, rec.LastUpdated) {
		s.scheduleRec = rec.Clone()
		st.seen = rec.LastUpdated
		st.loaded = true
		s.notify(DatasetSchedule, rec.LastUpdated)
	}
	return nil
}

func (s *syncService) fetchContact(ctx context.Context, force bool) error {
	st := &s.contact
	if err := s.beginFetch(ctx, st); err != nil {
		return err
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	rec, err := s.repo.Contact.Latest(rctx)

	st.mu.Lock()
	defer st.mu.Unlock()
	if err != nil {
		s.finishFetch(ctx, st, err)
		return err
	}
	s.finishFetch(ctx, st, nil)
	if st.shouldReplace(force, rec.LastUpdated) {
		s.contactRec = *rec
		st.seen = rec.LastUpdated
		st.loaded = true
		s.notify(DatasetContact, rec.LastUpdated)
	}
	return nil
}

func (s *syncService) fetchPricing(ctx context.Context, force bool) error {
	st := &s.pricing
	if err := s.beginFetch(ctx, st); err != nil {
		return err
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	rec, err := s.repo.Pricing.Latest(rctx)

	st.mu.Lock()
	defer st.mu.Unlock()
	if err != nil {
		s.finishFetch(ctx, st, err)
		return err
	}
	s.finishFetch(ctx, st, nil)
	if st.shouldReplace(force, rec.LastUpdated) {
		s.pricingRec = *rec
		s.pricingRec.Pricing = rec.Pricing.Clone()
		st.seen = rec.LastUpdated
		st.loaded = true
		s.notify(DatasetPricing, rec.LastUpdated)
	}
	return nil
}

func (s *syncService) fetchLocations(ctx context.Context, force bool) error {
	st := &s.locations
	if err := s.beginFetch(ctx, st); err != nil {
		return err
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	rec, err := s.repo.Location.Latest(rctx)

	st.mu.Lock()
	defer st.mu.Unlock()
	if err != nil {
		s.finishFetch(ctx, st, err)
		return err
	}
	s.finishFetch(ctx, st, nil)
	if st.shouldReplace(force, rec.LastUpdated) {
		s.locationsRec = *rec
		s.locationsRec.Locations = rec.Locations.Clone()
		st.seen = rec.LastUpdated
		st.loaded = true
		s.notify(DatasetLocations, rec.LastUpdated)
	}
	return nil
}

// beginFetch 将数据集置为 loading；保存进行中或状态不允许时返回错误
func (s *syncService) beginFetch(ctx context.Context, st *datasetState) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := st.fsm.Event(ctx, eventFetch); err != nil {
		return fmt.Errorf("数据集 %s 当前状态不允许拉取: %w", st.name, err)
	}
	return nil
}

// finishFetch 记录拉取结果并推进状态机。调用方必须持有 mu。
func (s *syncService) finishFetch(ctx context.Context, st *datasetState, err error) {
	if err != nil {
		st.lastErr = err
		_ = st.fsm.Event(ctx, eventFetchFail)
		return
	}
	st.lastErr = nil
	_ = st.fsm.Event(ctx, eventFetchOK)
}

// ════════════════════════════════════════════════════════════
// Persist* — 变更保存（两阶段：Upsert → 强制对账）
// ════════════════════════════════════════════════════════════

// beginPersist 进入保存态；拒绝并发保存与未加载数据集。
func (s *syncService) beginPersist(ctx context.Context, st *datasetState) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.loaded {
		return ErrSnapshotNotLoaded
	}
	if st.persisting {
		return apperrors.ErrPersistInFlight
	}
	if err := st.fsm.Event(ctx, eventPersist); err != nil {
		return fmt.Errorf("数据集 %s 当前状态不允许保存: %w", st.name, err)
	}
	st.persisting = true
	return nil
}

// finishPersist 记录保存结果并退出保存态
func (s *syncService) finishPersist(ctx context.Context, st *datasetState, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.persisting = false
	if err != nil {
		st.lastErr = err
		_ = st.fsm.Event(ctx, eventPersistFail)
		return
	}
	st.lastErr = nil
	_ = st.fsm.Event(ctx, eventPersistOK)
}

// reconcile 保存成功后的强制对账拉取。
// 保证本实例随后的读取一定能看到这次保存的结果；失败只记日志，
// 保存本身已经成功。
func (s *syncService) reconcile(ctx context.Context, dataset Dataset) {
	if err := s.FetchAll(ctx, true); err != nil {
		s.logger.Warn("保存后对账拉取失败",
			zap.String("dataset", string(dataset)),
			zap.Error(err),
		)
	}
}

func (s *syncService) PersistSchedule(ctx context.Context, mutate func(model.DaySchedule) model.DaySchedule) (model.ScheduleRecord, error) {
	st := &s.schedule
	if err := s.beginPersist(ctx, st); err != nil {
		return model.ScheduleRecord{}, err
	}

	st.mu.Lock()
	updated := s.scheduleRec.Clone()
	st.mu.Unlock()

	// lastUpdated 取保存时刻，而非编辑发生时刻
	updated.Schedule = mutate(updated.Schedule)
	updated.LastUpdated = time.Now().UTC()

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	err := s.repo.Schedule.Upsert(rctx, &updated)
	if err != nil {
		s.finishPersist(ctx, st, err)
		s.logger.Error("保存课表失败", zap.Error(err))
		return model.ScheduleRecord{}, fmt.Errorf("保存课表失败: %w", err)
	}

	st.mu.Lock()
	s.scheduleRec = updated.Clone()
	st.seen = updated.LastUpdated
	st.mu.Unlock()
	s.finishPersist(ctx, st, nil)
	s.notify(DatasetSchedule, updated.LastUpdated)
	s.reconcile(ctx, DatasetSchedule)
	return updated, nil
}

func (s *syncService) PersistContact(ctx context.Context, mutate func(model.ContactInfo) model.ContactInfo) (model.ContactRecord, error) {
	st := &s.contact
	if err := s.beginPersist(ctx, st); err != nil {
		return model.ContactRecord{}, err
	}

	st.mu.Lock()
	updated := s.contactRec
	st.mu.Unlock()

	updated.Contact = mutate(updated.Contact)
	updated.LastUpdated = time.Now().UTC()

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	err := s.repo.Contact.Upsert(rctx, &updated)
	if err != nil {
		s.finishPersist(ctx, st, err)
		s.logger.Error("保存联系方式失败", zap.Error(err))
		return model.ContactRecord{}, fmt.Errorf("保存联系方式失败: %w", err)
	}

	st.mu.Lock()
	s.contactRec = updated
	st.seen = updated.LastUpdated
	st.mu.Unlock()
	s.finishPersist(ctx, st, nil)
	s.notify(DatasetContact, updated.LastUpdated)
	s.reconcile(ctx, DatasetContact)
	return updated, nil
}

func (s *syncService) PersistPricing(ctx context.Context, mutate func(model.PricingInfo) model.PricingInfo) (model.PricingRecord, error) {
	st := &s.pricing
	if err := s.beginPersist(ctx, st); err != nil {
		return model.PricingRecord{}, err
	}

	st.mu.Lock()
	updated := s.pricingRec
	updated.Pricing = s.pricingRec.Pricing.Clone()
	st.mu.Unlock()

	updated.Pricing = mutate(updated.Pricing)
	updated.LastUpdated = time.Now().UTC()

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	err := s.repo.Pricing.Upsert(rctx, &updated)
	if err != nil {
		s.finishPersist(ctx, st, err)
		s.logger.Error("保存收费信息失败", zap.Error(err))
		return model.PricingRecord{}, fmt.Errorf("保存收费信息失败: %w", err)
	}

	st.mu.Lock()
	s.pricingRec = updated
	s.pricingRec.Pricing = updated.Pricing.Clone()
	st.seen = updated.LastUpdated
	st.mu.Unlock()
	s.finishPersist(ctx, st, nil)
	s.notify(DatasetPricing, updated.LastUpdated)
	s.reconcile(ctx, DatasetPricing)
	return updated, nil
}

func (s *syncService) PersistLocations(ctx context.Context, mutate func(model.LocationList) model.LocationList) (model.LocationRecord, error) {
	st := &s.locations
	if err := s.beginPersist(ctx, st); err != nil {
		return model.LocationRecord{}, err
	}

	st.mu.Lock()
	updated := s.locationsRec
	updated.Locations = s.locationsRec.Locations.Clone()
	st.mu.Unlock()

	updated.Locations = mutate(updated.Locations)
	updated.LastUpdated = time.Now().UTC()

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	err := s.repo.Location.Upsert(rctx, &updated)
	if err != nil {
		s.finishPersist(ctx, st, err)
		s.logger.Error("保存地点列表失败", zap.Error(err))
		return model.LocationRecord{}, fmt.Errorf("保存地点列表失败: %w", err)
	}

	st.mu.Lock()
	s.locationsRec = updated
	s.locationsRec.Locations = updated.Locations.Clone()
	st.seen = updated.LastUpdated
	st.mu.Unlock()
	s.finishPersist(ctx, st, nil)
	s.notify(DatasetLocations, updated.LastUpdated)
	s.reconcile(ctx, DatasetLocations)
	return updated, nil
}

// ════════════════════════════════════════════════════════════
// 快照读取与状态
// ════════════════════════════════════════════════════════════

func (s *syncService) ScheduleSnapshot() (model.ScheduleRecord, bool) {
	s.schedule.mu.Lock()
	defer s.schedule.mu.Unlock()
	return s.scheduleRec.Clone(), s.schedule.loaded
}

func (s *syncService) ContactSnapshot() (model.ContactRecord, bool) {
	s.contact.mu.Lock()
	defer s.contact.mu.Unlock()
	return s.contactRec, s.contact.loaded
}

func (s *syncService) PricingSnapshot() (model.PricingRecord, bool) {
	s.pricing.mu.Lock()
	defer s.pricing.mu.Unlock()
	rec := s.pricingRec
	rec.Pricing = s.pricingRec.Pricing.Clone()
	return rec, s.pricing.loaded
}

func (s *syncService) LocationsSnapshot() (model.LocationRecord, bool) {
	s.locations.mu.Lock()
	defer s.locations.mu.Unlock()
	rec := s.locationsRec
	rec.Locations = s.locationsRec.Locations.Clone()
	return rec, s.locations.loaded
}

func (s *syncService) Status() *dto.SyncStatusResponse {
	states := []*datasetState{&s.schedule, &s.contact, &s.pricing, &s.locations}
	resp := &dto.SyncStatusResponse{Datasets: make([]dto.DatasetStatus, 0, len(states))}
	for _, st := range states {
		st.mu.Lock()
		ds := dto.DatasetStatus{
			Dataset: string(st.name),
			State:   st.fsm.Current(),
		}
		if st.loaded {
			ds.LastUpdated = st.seen.Format(time.RFC3339Nano)
		}
		if st.lastErr != nil {
			ds.Error = st.lastErr.Error()
		}
		st.mu.Unlock()
		resp.Datasets = append(resp.Datasets, ds)
	}
	return resp
}
