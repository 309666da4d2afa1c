package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/thehallofegress/class-schedules/internal/dto"
	"github.com/thehallofegress/class-schedules/internal/model"
	"github.com/thehallofegress/class-schedules/internal/repository"
)

// ── 通知模块业务错误 ──

var (
	ErrAnnouncementNotFound = errors.New("通知不存在")
)

// 未指定有效期时的默认天数
const defaultAnnouncementDays = 7

// AnnouncementService 站内通知业务接口
type AnnouncementService interface {
	ListActive(ctx context.Context) ([]dto.AnnouncementResponse, error)
	Create(ctx context.Context, req *dto.CreateAnnouncementRequest) (*dto.AnnouncementResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateAnnouncementRequest) (*dto.AnnouncementResponse, error)
	Delete(ctx context.Context, id string) error
}

type announcementService struct {
	repo   repository.AnnouncementRepository
	logger *zap.Logger
}

// NewAnnouncementService 创建 AnnouncementService 实例
func NewAnnouncementService(repo repository.AnnouncementRepository, logger *zap.Logger) AnnouncementService {
	return &announcementService{repo: repo, logger: logger}
}

func (s *announcementService) ListActive(ctx context.Context) ([]dto.AnnouncementResponse, error) {
	list, err := s.repo.ListActive(ctx, time.Now())
	if err != nil {
		s.logger.Error("查询通知列表失败", zap.Error(err))
		return nil, err
	}

	resp := make([]dto.AnnouncementResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, toAnnouncementResponse(&a))
	}
	return resp, nil
}

func (s *announcementService) Create(ctx context.Context, req *dto.CreateAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	days := req.ExpiresInDays
	if days == 0 {
		days = defaultAnnouncementDays
	}
	typ := req.Type
	if typ == "" {
		typ = model.AnnouncementInfo
	}

	a := &model.Announcement{
		ID:        uuid.New().String(),
		Message:   req.Message,
		Type:      typ,
		ExpiresAt: time.Now().AddDate(0, 0, days),
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.Error("发布通知失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("发布通知",
		zap.String("id", a.ID),
		zap.String("type", a.Type),
	)
	resp := toAnnouncementResponse(a)
	return &resp, nil
}

func (s *announcementService) Update(ctx context.Context, id string, req *dto.UpdateAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		s.logger.Error("查询通知失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	a.Message = req.Message
	if req.Type != "" {
		a.Type = req.Type
	}
	if req.ExpiresInDays > 0 {
		a.ExpiresAt = time.Now().AddDate(0, 0, req.ExpiresInDays)
	}

	if err := s.repo.Update(ctx, a); err != nil {
		s.logger.Error("修改通知失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toAnnouncementResponse(a)
	return &resp, nil
}

func (s *announcementService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAnnouncementNotFound
		}
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		s.logger.Error("下线通知失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("下线通知", zap.String("id", id))
	return nil
}

func toAnnouncementResponse(a *model.Announcement) dto.AnnouncementResponse {
	return dto.AnnouncementResponse{
		ID:        a.ID,
		Message:   a.Message,
		Type:      a.Type,
		ExpiresAt: a.ExpiresAt.Format(time.RFC3339),
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}
