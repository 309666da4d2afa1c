package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/thehallofegress/class-schedules/internal/model"
)

// AnnouncementRepository 通知数据访问接口
type AnnouncementRepository interface {
	ListActive(ctx context.Context, now time.Time) ([]model.Announcement, error)
	GetByID(ctx context.Context, id string) (*model.Announcement, error)
	Create(ctx context.Context, a *model.Announcement) error
	Update(ctx context.Context, a *model.Announcement) error
	Deactivate(ctx context.Context, id string) error
}

type announcementRepo struct {
	db *gorm.DB
}

// NewAnnouncementRepo 创建 AnnouncementRepository 实例
func NewAnnouncementRepo(db *gorm.DB) AnnouncementRepository {
	return &announcementRepo{db: db}
}

func (r *announcementRepo) ListActive(ctx context.Context, now time.Time) ([]model.Announcement, error) {
	var list []model.Announcement
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("expires_at >= ?", now).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *announcementRepo) GetByID(ctx context.Context, id string) (*model.Announcement, error) {
	var a model.Announcement
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *announcementRepo) Create(ctx context.Context, a *model.Announcement) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *announcementRepo) Update(ctx context.Context, a *model.Announcement) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *announcementRepo) Deactivate(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Announcement{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
