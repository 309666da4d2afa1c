package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thehallofegress/class-schedules/internal/model"
)

// LocationRepository 地点列表数据访问接口
type LocationRepository interface {
	Latest(ctx context.Context) (*model.LocationRecord, error)
	Upsert(ctx context.Context, rec *model.LocationRecord) error
}

type locationRepo struct {
	db *gorm.DB
}

// NewLocationRepo 创建 LocationRepository 实例
func NewLocationRepo(db *gorm.DB) LocationRepository {
	return &locationRepo{db: db}
}

func (r *locationRepo) Latest(ctx context.Context) (*model.LocationRecord, error) {
	var rec model.LocationRecord
	err := r.db.WithContext(ctx).
		Order("id DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *locationRepo) Upsert(ctx context.Context, rec *model.LocationRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
}
