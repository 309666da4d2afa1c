package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thehallofegress/class-schedules/internal/model"
)

// ScheduleRepository 课表数据访问接口
//
// 远端约定：点查取 id 最大的一行（最新记录）；
// 写入为以 id 为冲突键的 Upsert，已存在的行总是被更新而非跳过。
type ScheduleRepository interface {
	Latest(ctx context.Context) (*model.ScheduleRecord, error)
	Upsert(ctx context.Context, rec *model.ScheduleRecord) error
}

type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepo 创建 ScheduleRepository 实例
func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) Latest(ctx context.Context) (*model.ScheduleRecord, error) {
	var rec model.ScheduleRecord
	err := r.db.WithContext(ctx).
		Order("id DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *scheduleRepo) Upsert(ctx context.Context, rec *model.ScheduleRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
}
