package service

import (
	"go.uber.org/zap"

	"github.com/thehallofegress/class-schedules/config"
	"github.com/thehallofegress/class-schedules/internal/repository"
	"github.com/thehallofegress/class-schedules/pkg/jwt"
	"github.com/thehallofegress/class-schedules/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Sync         SyncService
	View         ViewService
	Edit         EditService
	Auth         AuthService
	Announcement AnnouncementService
	Export       ExportService
	Legacy       LegacyService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	redisClient *redis.Client,
	notifier ChangeNotifier,
	logger *zap.Logger,
) *Service {
	syncSvc := NewSyncService(repo, notifier, cfg.Sync.Timeout, logger)
	return &Service{
		Sync:         syncSvc,
		View:         NewViewService(syncSvc, logger),
		Edit:         NewEditService(syncSvc, cfg.Edit.SessionTTL, logger),
		Auth:         NewAuthService(&cfg.Auth, jwtMgr, redisClient, logger),
		Announcement: NewAnnouncementService(repo.Announcement, logger),
		Export:       NewExportService(syncSvc, logger),
		Legacy:       NewLegacyService(cfg.Legacy.PublicDir, logger),
	}
}
