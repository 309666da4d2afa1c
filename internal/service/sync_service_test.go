package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/thehallofegress/class-schedules/internal/model"
	apperrors "github.com/thehallofegress/class-schedules/pkg/errors"
)

// recordingNotifier 记录每次快照替换通知
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) NotifyChange(dataset string, _ time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, dataset)
}

func (n *recordingNotifier) count(dataset string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e == dataset {
			c++
		}
	}
	return c
}

func newTestSync(t *testing.T) (SyncService, *mockRepos, *recordingNotifier) {
	t.Helper()
	repo, mocks := newMockRepos()
	notifier := &recordingNotifier{}
	svc := NewSyncService(repo, notifier, 0, zap.NewNop())
	return svc, mocks, notifier
}

func TestFetchAllLoadsAllDatasets(t *testing.T) {
	svc, _, _ := newTestSync(t)

	if err := svc.FetchAll(context.Background(), false); err != nil {
		t.Fatalf("FetchAll 失败: %v", err)
	}

	if _, ok := svc.ScheduleSnapshot(); !ok {
		t.Error("课表快照未加载")
	}
	if _, ok := svc.ContactSnapshot(); !ok {
		t.Error("联系方式快照未加载")
	}
	if _, ok := svc.PricingSnapshot(); !ok {
		t.Error("收费信息快照未加载")
	}
	if _, ok := svc.LocationsSnapshot(); !ok {
		t.Error("地点快照未加载")
	}

	for _, ds := range svc.Status().Datasets {
		if ds.State != stateReady {
			t.Errorf("数据集 %s 状态 = %s, 期望 %s", ds.Dataset, ds.State, stateReady)
		}
	}
}

func TestSnapshotBeforeFetchNotLoaded(t *testing.T) {
	svc, _, _ := newTestSync(t)

	if _, ok := svc.ScheduleSnapshot(); ok {
		t.Error("拉取前快照不应标记为已加载")
	}
	for _, ds := range svc.Status().Datasets {
		if ds.State != stateUninitialized {
			t.Errorf("数据集 %s 初始状态 = %s, 期望 %s", ds.Dataset, ds.State, stateUninitialized)
		}
	}
}

func TestFetchSkipsUnchangedTimestamp(t *testing.T) {
	svc, mocks, notifier := newTestSync(t)
	ctx := context.Background()

	if err := svc.FetchAll(ctx, false); err != nil {
		t.Fatalf("首次 FetchAll 失败: %v", err)
	}

	// 改内容但保持 lastUpdated 不变：非强制拉取应跳过替换
	mocks.schedule.mu.Lock()
	mocks.schedule.rec.Schedule["Friday"] = []model.Session{
		{Time: "6:00 PM - 7:00 PM", Name: "新课程", Location: "Fremont"},
	}
	mocks.schedule.mu.Unlock()

	if err := svc.FetchAll(ctx, false); err != nil {
		t.Fatalf("第二次 FetchAll 失败: %v", err)
	}
	rec, _ := svc.ScheduleSnapshot()
	if _, ok := rec.Schedule["Friday"]; ok {
		t.Error("时间戳未变化时快照不应被替换")
	}

	// 强制拉取必须替换
	if err := svc.FetchAll(ctx, true); err != nil {
		t.Fatalf("强制 FetchAll 失败: %v", err)
	}
	rec, _ = svc.ScheduleSnapshot()
	if _, ok := rec.Schedule["Friday"]; !ok {
		t.Error("强制拉取后快照应被替换")
	}

	if notifier.count("schedule") < 2 {
		t.Errorf("课表替换通知次数 = %d, 期望 >= 2", notifier.count("schedule"))
	}
}

func TestFetchReplacesOnNewTimestamp(t *testing.T) {
	svc, mocks, _ := newTestSync(t)
	ctx := context.Background()

	if err := svc.FetchAll(ctx, false); err != nil {
		t.Fatalf("首次 FetchAll 失败: %v", err)
	}

	mocks.schedule.mu.Lock()
	mocks.schedule.rec.Schedule["Sunday"] = []model.Session{
		{Time: "2:00 PM - 3:00 PM", Name: "民族舞", Location: "Palo Alto"},
	}
	mocks.schedule.rec.LastUpdated = mocks.schedule.rec.LastUpdated.Add(time.Minute)
	mocks.schedule.mu.Unlock()

	if err := svc.FetchAll(ctx, false); err != nil {
		t.Fatalf("第二次 FetchAll 失败: %v", err)
	}
	rec, _ := svc.ScheduleSnapshot()
	if _, ok := rec.Schedule["Sunday"]; !ok {
		t.Error("lastUpdated 变化后非强制拉取也应替换快照")
	}
}

func TestFetchFailureMarksErroredAndRecovers(t *testing.T) {
	svc, mocks, _ := newTestSync(t)
	ctx := context.Background()

	mocks.schedule.mu.Lock()
	mocks.schedule.latestErr = errors.New("连接被拒绝")
	mocks.schedule.mu.Unlock()

	err := svc.FetchAll(ctx, false)
	if err == nil {
		t.Fatal("课表拉取失败时 FetchAll 应返回错误")
	}

	// 单数据集失败不影响其余数据集
	if _, ok := svc.ContactSnapshot(); !ok {
		t.Error("联系方式快照应已加载")
	}

	var scheduleStatus, contactStatus string
	for _, ds := range svc.Status().Datasets {
		switch ds.Dataset {
		case "schedule":
			scheduleStatus = ds.State
		case "contact":
			contactStatus = ds.State
		}
	}
	if scheduleStatus != stateErrored {
		t.Errorf("课表状态 = %s, 期望 %s", scheduleStatus, stateErrored)
	}
	if contactStatus != stateReady {
		t.Errorf("联系方式状态 = %s, 期望 %s", contactStatus, stateReady)
	}

	// errored 非终态：故障恢复后再次拉取成功
	mocks.schedule.mu.Lock()
	mocks.schedule.latestErr = nil
	mocks.schedule.mu.Unlock()

	if err := svc.FetchAll(ctx, false); err != nil {
		t.Fatalf("恢复后 FetchAll 失败: %v", err)
	}
	if _, ok := svc.ScheduleSnapshot(); !ok {
		t.Error("恢复后课表快照应已加载")
	}
}

func TestPersistScheduleBumpsLastUpdated(t *testing.T) {
	svc, mocks, _ := newTestSync(t)
	ctx := context.Background()

	if err := svc.FetchAll(ctx, false); err != nil {
		t.Fatalf("FetchAll 失败: %v", err)
	}
	before, _ := svc.ScheduleSnapshot()

	rec, err := svc.PersistSchedule(ctx, func(week model.DaySchedule) model.DaySchedule {
		week["Wednesday"] = []model.Session{
			{Time: "8:00 PM - 9:00 PM", Name: "现代舞", Location: "Fremont"},
		}
		return week
	})
	if err != nil {
		t.Fatalf("PersistSchedule 失败: %v", err)
	}

	if !rec.LastUpdated.After(before.LastUpdated) {
		t.Errorf("保存后 lastUpdated = %v, 应晚于保存前的 %v", rec.LastUpdated, before.LastUpdated)
	}

	// 保存结果立即对本实例可见
	after, ok := svc.ScheduleSnapshot()
	if !ok {
		t.Fatal("保存后快照应已加载")
	}
	if _, exists := after.Schedule["Wednesday"]; !exists {
		t.Error("保存后的快照应包含新增课程")
	}

	// 远端已收到写入
	mocks.schedule.mu.Lock()
	stored := mocks.schedule.rec.Clone()
	mocks.schedule.mu.Unlock()
	if _, exists := stored.Schedule["Wednesday"]; !exists {
		t.Error("远端记录应包含新增课程")
	}
	if !stored.LastUpdated.Equal(rec.LastUpdated) {
		t.Errorf("远端 lastUpdated = %v, 期望 %v", stored.LastUpdated, rec.LastUpdated)
	}
}

func TestPersistBeforeLoadRejected(t *testing.T) {
	svc, _, _ := newTestSync(t)

	_, err := svc.PersistSchedule(context.Background(), func(week model.DaySchedule) model.DaySchedule {
		return week
	})
	if !errors.Is(err, ErrSnapshotNotLoaded) {
		t.Errorf("未加载时保存错误 = %v, 期望 ErrSnapshotNotLoaded", err)
	}
}

func TestPersistRejectsConcurrentSecond(t *testing.T) {
	svc, mocks, _ := newTestSync(t)
	ctx := context.Background()

	if err := svc.FetchAll(ctx, false); err != nil {
		t.Fatalf("FetchAll 失败: %v", err)
	}

	mocks.schedule.upsertEntered = make(chan struct{}, 2)
	mocks.schedule.upsertGate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.PersistSchedule(ctx, func(week model.DaySchedule) model.DaySchedule {
			return week
		})
		done <- err
	}()

	// 等第一个保存进入远端写入
	<-mocks.schedule.upsertEntered

	_, err := svc.PersistSchedule(ctx, func(week model.DaySchedule) model.DaySchedule {
		return week
	})
	if !errors.Is(err, apperrors.ErrPersistInFlight) {
		t.Errorf("并发保存错误 = %v, 期望 ErrPersistInFlight", err)
	}

	close(mocks.schedule.upsertGate)
	if err := <-done; err != nil {
		t.Errorf("第一个保存不应失败: %v", err)
	}
}

func TestPersistFailureKeepsSnapshot(t *testing.T) {
	svc, mocks, _ := newTestSync(t)
	ctx := context.Background()

	if err := svc.FetchAll(ctx, false); err != nil {
		t.Fatalf("FetchAll 失败: %v", err)
	}
	before, _ := svc.ScheduleSnapshot()

	mocks.schedule.mu.Lock()
	mocks.schedule.upsertErr = errors.New("写入超时")
	mocks.schedule.mu.Unlock()

	_, err := svc.PersistSchedule(ctx, func(week model.DaySchedule) model.DaySchedule {
		week["Thursday"] = []model.Session{{Time: "1:00 PM - 2:00 PM", Name: "测试课"}}
		return week
	})
	if err == nil {
		t.Fatal("远端写入失败时 PersistSchedule 应返回错误")
	}

	// 失败的保存不得污染快照
	after, _ := svc.ScheduleSnapshot()
	if _, exists := after.Schedule["Thursday"]; exists {
		t.Error("保存失败后快照不应包含未落盘的修改")
	}
	if !after.LastUpdated.Equal(before.LastUpdated) {
		t.Errorf("保存失败后 lastUpdated 不应变化: %v != %v", after.LastUpdated, before.LastUpdated)
	}

	// 失败后可以重试
	mocks.schedule.mu.Lock()
	mocks.schedule.upsertErr = nil
	mocks.schedule.mu.Unlock()

	if _, err := svc.PersistSchedule(ctx, func(week model.DaySchedule) model.DaySchedule {
		return week
	}); err != nil {
		t.Errorf("失败后重试保存应成功: %v", err)
	}
}

func TestPersistContactRoundTrip(t *testing.T) {
	svc, _, notifier := newTestSync(t)
	ctx := context.Background()

	if err := svc.FetchAll(ctx, false); err != nil {
		t.Fatalf("FetchAll 失败: %v", err)
	}

	rec, err := svc.PersistContact(ctx, func(c model.ContactInfo) model.ContactInfo {
		c.TeacherInfo.WechatID = "new-wechat"
		return c
	})
	if err != nil {
		t.Fatalf("PersistContact 失败: %v", err)
	}
	if rec.Contact.TeacherInfo.WechatID != "new-wechat" {
		t.Errorf("WechatID = %q, 期望 %q", rec.Contact.TeacherInfo.WechatID, "new-wechat")
	}

	after, _ := svc.ContactSnapshot()
	if after.Contact.TeacherInfo.WechatID != "new-wechat" {
		t.Error("保存结果应立即对本实例可见")
	}
	if notifier.count("contact") == 0 {
		t.Error("保存成功后应发出变更通知")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	svc, _, _ := newTestSync(t)
	ctx := context.Background()

	if err := svc.FetchAll(ctx, false); err != nil {
		t.Fatalf("FetchAll 失败: %v", err)
	}

	rec, _ := svc.ScheduleSnapshot()
	rec.Schedule["Monday"][0].Name = "被篡改"

	fresh, _ := svc.ScheduleSnapshot()
	if fresh.Schedule["Monday"][0].Name == "被篡改" {
		t.Error("快照应返回深拷贝，外部修改不得影响权威副本")
	}
}

func TestFetchAllAggregatesErrors(t *testing.T) {
	svc, mocks, _ := newTestSync(t)

	mocks.schedule.mu.Lock()
	mocks.schedule.latestErr = errors.New("课表源不可用")
	mocks.schedule.mu.Unlock()

	err := svc.FetchAll(context.Background(), false)
	if err == nil {
		t.Fatal("应返回聚合错误")
	}
	if msg := err.Error(); !strings.Contains(msg, "schedule") {
		t.Errorf("聚合错误应标明失败的数据集: %v", msg)
	}
}
