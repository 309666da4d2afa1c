package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thehallofegress/class-schedules/internal/dto"
	"github.com/thehallofegress/class-schedules/internal/model"
	"github.com/thehallofegress/class-schedules/internal/service"
	apperrors "github.com/thehallofegress/class-schedules/pkg/errors"
	"github.com/thehallofegress/class-schedules/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ViewService ──

type mockViewService struct {
	scheduleResult  *dto.ScheduleViewResponse
	scheduleErr     error
	contactResult   *dto.ContactResponse
	contactErr      error
	pricingResult   *dto.PricingResponse
	pricingErr      error
	locationsResult *dto.LocationsResponse
	locationsErr    error
}

func (m *mockViewService) ScheduleView(_ *dto.ScheduleViewRequest) (*dto.ScheduleViewResponse, error) {
	return m.scheduleResult, m.scheduleErr
}
func (m *mockViewService) Contact() (*dto.ContactResponse, error) {
	return m.contactResult, m.contactErr
}
func (m *mockViewService) Pricing() (*dto.PricingResponse, error) {
	return m.pricingResult, m.pricingErr
}
func (m *mockViewService) Locations() (*dto.LocationsResponse, error) {
	return m.locationsResult, m.locationsErr
}

// ── Mock SyncService ──

type mockSyncService struct {
	fetchErr     error
	fetchCalls   int
	lastForce    bool
	statusResult *dto.SyncStatusResponse
}

func (m *mockSyncService) FetchAll(_ context.Context, force bool) error {
	m.fetchCalls++
	m.lastForce = force
	return m.fetchErr
}
func (m *mockSyncService) Status() *dto.SyncStatusResponse {
	if m.statusResult != nil {
		return m.statusResult
	}
	return &dto.SyncStatusResponse{}
}
func (m *mockSyncService) ScheduleSnapshot() (model.ScheduleRecord, bool) {
	return model.ScheduleRecord{}, false
}
func (m *mockSyncService) ContactSnapshot() (model.ContactRecord, bool) {
	return model.ContactRecord{}, false
}
func (m *mockSyncService) PricingSnapshot() (model.PricingRecord, bool) {
	return model.PricingRecord{}, false
}
func (m *mockSyncService) LocationsSnapshot() (model.LocationRecord, bool) {
	return model.LocationRecord{}, false
}
func (m *mockSyncService) PersistSchedule(_ context.Context, _ func(model.DaySchedule) model.DaySchedule) (model.ScheduleRecord, error) {
	return model.ScheduleRecord{}, nil
}
func (m *mockSyncService) PersistContact(_ context.Context, _ func(model.ContactInfo) model.ContactInfo) (model.ContactRecord, error) {
	return model.ContactRecord{}, nil
}
func (m *mockSyncService) PersistPricing(_ context.Context, _ func(model.PricingInfo) model.PricingInfo) (model.PricingRecord, error) {
	return model.PricingRecord{}, nil
}
func (m *mockSyncService) PersistLocations(_ context.Context, _ func(model.LocationList) model.LocationList) (model.LocationRecord, error) {
	return model.LocationRecord{}, nil
}

// ── Mock EditService ──

type mockEditService struct {
	sessionResult *dto.EditSessionResponse
	sessionErr    error
	commitResult  *dto.CommitResponse
	commitErr     error
	discardErr    error
}

func (m *mockEditService) Open(_ context.Context, _ string) (*dto.EditSessionResponse, error) {
	return m.sessionResult, m.sessionErr
}
func (m *mockEditService) Get(_ string) (*dto.EditSessionResponse, error) {
	return m.sessionResult, m.sessionErr
}
func (m *mockEditService) AddClass(_ string, _ *dto.AddClassRequest) (*dto.EditSessionResponse, error) {
	return m.sessionResult, m.sessionErr
}
func (m *mockEditService) UpdateClass(_ string, _ *dto.UpdateClassRequest) (*dto.EditSessionResponse, error) {
	return m.sessionResult, m.sessionErr
}
func (m *mockEditService) RemoveClass(_ string, _ string, _ int) (*dto.EditSessionResponse, error) {
	return m.sessionResult, m.sessionErr
}
func (m *mockEditService) ReplacePayload(_ string, _ interface{}) (*dto.EditSessionResponse, error) {
	return m.sessionResult, m.sessionErr
}
func (m *mockEditService) AppendLocation(_ string, _ *dto.AppendLocationRequest) (*dto.EditSessionResponse, error) {
	return m.sessionResult, m.sessionErr
}
func (m *mockEditService) RemoveLocation(_ string, _ int) (*dto.EditSessionResponse, error) {
	return m.sessionResult, m.sessionErr
}
func (m *mockEditService) Commit(_ context.Context, _ string) (*dto.CommitResponse, error) {
	return m.commitResult, m.commitErr
}
func (m *mockEditService) Discard(_ string) error {
	return m.discardErr
}

// ── Mock AuthService ──

type mockAuthService struct {
	enterResult *dto.EditTokenResponse
	enterErr    error
	exitErr     error
}

func (m *mockAuthService) EnterEditMode(_ string) (*dto.EditTokenResponse, error) {
	return m.enterResult, m.enterErr
}
func (m *mockAuthService) ExitEditMode(_ context.Context, _ string) error {
	return m.exitErr
}

// ── Mock AnnouncementService ──

type mockAnnouncementService struct {
	listResult   []dto.AnnouncementResponse
	listErr      error
	createResult *dto.AnnouncementResponse
	createErr    error
	updateResult *dto.AnnouncementResponse
	updateErr    error
	deleteErr    error
}

func (m *mockAnnouncementService) ListActive(_ context.Context) ([]dto.AnnouncementResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockAnnouncementService) Create(_ context.Context, _ *dto.CreateAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockAnnouncementService) Update(_ context.Context, _ string, _ *dto.UpdateAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	return m.updateResult, m.updateErr
}
func (m *mockAnnouncementService) Delete(_ context.Context, _ string) error {
	return m.deleteErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportScheduleXLSX() (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportScheduleICS() (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock LegacyService ──

type mockLegacyService struct {
	err error
}

func (m *mockLegacyService) SaveJSON(_ string, _ json.RawMessage) error {
	return m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(method, path string, body io.Reader, register func(*gin.Engine)) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r := gin.New()
	register(r)
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// ScheduleHandler Tests
// ═══════════════════════════════════════════════════════════

func TestScheduleHandler_GetSchedule_Success(t *testing.T) {
	mock := &mockViewService{
		scheduleResult: &dto.ScheduleViewResponse{
			ID: 1,
			Schedule: map[string][]dto.SessionView{
				"Monday": {{Time: "9:30 AM - 11:30 AM", Name: "古典舞", Duration: "2h"}},
			},
			ClassTypes:  []model.ClassType{{ID: "all", Name: "所有课程"}},
			LastUpdated: "2025-01-15T10:00:00Z",
		},
	}
	h := NewScheduleHandler(mock)

	w := serve("GET", "/schedule?class_type=all", nil, func(r *gin.Engine) {
		r.GET("/schedule", h.GetSchedule)
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestScheduleHandler_GetSchedule_NotReady(t *testing.T) {
	mock := &mockViewService{scheduleErr: service.ErrSnapshotNotLoaded}
	h := NewScheduleHandler(mock)

	w := serve("GET", "/schedule", nil, func(r *gin.Engine) {
		r.GET("/schedule", h.GetSchedule)
	})

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_EnterEditMode_Success(t *testing.T) {
	mock := &mockAuthService{
		enterResult: &dto.EditTokenResponse{Token: "test-edit-token", ExpiresIn: 7200},
	}
	h := NewAuthHandler(mock)

	w := serve("POST", "/auth/edit-mode", jsonBody(dto.EnterEditModeRequest{Password: "secret"}), func(r *gin.Engine) {
		r.POST("/auth/edit-mode", h.EnterEditMode)
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAuthHandler_EnterEditMode_WrongPassword(t *testing.T) {
	mock := &mockAuthService{enterErr: service.ErrWrongPassword}
	h := NewAuthHandler(mock)

	w := serve("POST", "/auth/edit-mode", jsonBody(dto.EnterEditModeRequest{Password: "wrong"}), func(r *gin.Engine) {
		r.POST("/auth/edit-mode", h.EnterEditMode)
	})

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_EnterEditMode_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := serve("POST", "/auth/edit-mode", bytes.NewReader([]byte("not json")), func(r *gin.Engine) {
		r.POST("/auth/edit-mode", h.EnterEditMode)
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// EditHandler Tests
// ═══════════════════════════════════════════════════════════

func TestEditHandler_OpenSession_Success(t *testing.T) {
	mock := &mockEditService{
		sessionResult: &dto.EditSessionResponse{SessionID: "sess-1", Dataset: "schedule"},
	}
	h := NewEditHandler(mock)

	w := serve("POST", "/edit-sessions", jsonBody(dto.OpenEditSessionRequest{Dataset: "schedule"}), func(r *gin.Engine) {
		r.POST("/edit-sessions", h.OpenSession)
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestEditHandler_OpenSession_InvalidDataset(t *testing.T) {
	h := NewEditHandler(&mockEditService{})

	w := serve("POST", "/edit-sessions", jsonBody(dto.OpenEditSessionRequest{Dataset: "bogus"}), func(r *gin.Engine) {
		r.POST("/edit-sessions", h.OpenSession)
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestEditHandler_SessionNotFound(t *testing.T) {
	mock := &mockEditService{sessionErr: service.ErrSessionNotFound}
	h := NewEditHandler(mock)

	w := serve("GET", "/edit-sessions/unknown", nil, func(r *gin.Engine) {
		r.GET("/edit-sessions/:id", h.GetSession)
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestEditHandler_AddClass_InvalidDay(t *testing.T) {
	mock := &mockEditService{sessionErr: service.ErrInvalidDay}
	h := NewEditHandler(mock)

	w := serve("POST", "/edit-sessions/sess-1/classes", jsonBody(dto.AddClassRequest{
		Day: "Funday", Time: "5:00 PM - 6:00 PM", Name: "课",
	}), func(r *gin.Engine) {
		r.POST("/edit-sessions/:id/classes", h.AddClass)
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestEditHandler_Commit_PersistInFlight(t *testing.T) {
	mock := &mockEditService{commitErr: apperrors.ErrPersistInFlight}
	h := NewEditHandler(mock)

	w := serve("POST", "/edit-sessions/sess-1/commit", nil, func(r *gin.Engine) {
		r.POST("/edit-sessions/:id/commit", h.CommitSession)
	})

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 21003 {
		t.Errorf("expected error code 21003, got %d", resp.Code)
	}
}

func TestEditHandler_RemoveLocation_BadIndex(t *testing.T) {
	h := NewEditHandler(&mockEditService{})

	w := serve("DELETE", "/edit-sessions/sess-1/locations/abc", nil, func(r *gin.Engine) {
		r.DELETE("/edit-sessions/:id/locations/:index", h.RemoveLocation)
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// SyncHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSyncHandler_Refresh_ForceFlag(t *testing.T) {
	mock := &mockSyncService{}
	h := NewSyncHandler(mock)

	w := serve("POST", "/sync/refresh?force=true", nil, func(r *gin.Engine) {
		r.POST("/sync/refresh", h.Refresh)
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.fetchCalls != 1 {
		t.Errorf("expected 1 fetch call, got %d", mock.fetchCalls)
	}
	if !mock.lastForce {
		t.Error("expected force=true to be passed through")
	}
}

func TestSyncHandler_Refresh_PartialFailureStill200(t *testing.T) {
	mock := &mockSyncService{
		fetchErr: context.DeadlineExceeded,
		statusResult: &dto.SyncStatusResponse{
			Datasets: []dto.DatasetStatus{{Dataset: "schedule", State: "errored", Error: "超时"}},
		},
	}
	h := NewSyncHandler(mock)

	w := serve("POST", "/sync/refresh", nil, func(r *gin.Engine) {
		r.POST("/sync/refresh", h.Refresh)
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_XLSX_Headers(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("fake-xlsx"),
		filename: "class-schedule.xlsx",
	}
	h := NewExportHandler(mock)

	w := serve("GET", "/export/schedule.xlsx", nil, func(r *gin.Engine) {
		r.GET("/export/schedule.xlsx", h.ExportXLSX)
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_NotReady(t *testing.T) {
	mock := &mockExportService{err: service.ErrSnapshotNotLoaded}
	h := NewExportHandler(mock)

	w := serve("GET", "/export/schedule.ics", nil, func(r *gin.Engine) {
		r.GET("/export/schedule.ics", h.ExportICS)
	})

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// LegacyHandler Tests
// ═══════════════════════════════════════════════════════════

func TestLegacyHandler_SaveJSON_Success(t *testing.T) {
	h := NewLegacyHandler(&mockLegacyService{})

	w := serve("POST", "/legacy/save-json", jsonBody(map[string]interface{}{
		"fileName": "classData.json",
		"data":     map[string]interface{}{"schedule": map[string]interface{}{}},
	}), func(r *gin.Engine) {
		r.POST("/legacy/save-json", h.SaveJSON)
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["success"] != true {
		t.Errorf("expected {success:true}, got %v", body)
	}
}

func TestLegacyHandler_SaveJSON_MissingFields(t *testing.T) {
	h := NewLegacyHandler(&mockLegacyService{})

	w := serve("POST", "/legacy/save-json", jsonBody(map[string]interface{}{
		"data": map[string]interface{}{},
	}), func(r *gin.Engine) {
		r.POST("/legacy/save-json", h.SaveJSON)
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] == nil {
		t.Errorf("expected error field, got %v", body)
	}
}

func TestLegacyHandler_SaveJSON_WriteFailure(t *testing.T) {
	h := NewLegacyHandler(&mockLegacyService{err: io.ErrShortWrite})

	w := serve("POST", "/legacy/save-json", jsonBody(map[string]interface{}{
		"fileName": "classData.json",
		"data":     map[string]interface{}{},
	}), func(r *gin.Engine) {
		r.POST("/legacy/save-json", h.SaveJSON)
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AnnouncementHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAnnouncementHandler_Create_Success(t *testing.T) {
	mock := &mockAnnouncementService{
		createResult: &dto.AnnouncementResponse{
			ID:        "ann-1",
			Message:   "本周六停课",
			Type:      "info",
			ExpiresAt: time.Now().AddDate(0, 0, 7).Format(time.RFC3339),
		},
	}
	h := NewAnnouncementHandler(mock)

	w := serve("POST", "/announcements", jsonBody(dto.CreateAnnouncementRequest{
		Message: "本周六停课",
	}), func(r *gin.Engine) {
		r.POST("/announcements", h.Create)
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestAnnouncementHandler_Update_NotFound(t *testing.T) {
	mock := &mockAnnouncementService{updateErr: service.ErrAnnouncementNotFound}
	h := NewAnnouncementHandler(mock)

	w := serve("PUT", "/announcements/missing", jsonBody(dto.UpdateAnnouncementRequest{
		Message: "x",
	}), func(r *gin.Engine) {
		r.PUT("/announcements/:id", h.Update)
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
