package handler

import "github.com/thehallofegress/class-schedules/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Schedule     *ScheduleHandler
	Sync         *SyncHandler
	Edit         *EditHandler
	Auth         *AuthHandler
	Announcement *AnnouncementHandler
	Export       *ExportHandler
	Legacy       *LegacyHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Schedule:     NewScheduleHandler(svc.View),
		Sync:         NewSyncHandler(svc.Sync),
		Edit:         NewEditHandler(svc.Edit),
		Auth:         NewAuthHandler(svc.Auth),
		Announcement: NewAnnouncementHandler(svc.Announcement),
		Export:       NewExportHandler(svc.Export),
		Legacy:       NewLegacyHandler(svc.Legacy),
	}
}
