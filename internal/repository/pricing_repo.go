package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thehallofegress/class-schedules/internal/model"
)

// PricingRepository 收费信息数据访问接口
type PricingRepository interface {
	Latest(ctx context.Context) (*model.PricingRecord, error)
	Upsert(ctx context.Context, rec *model.PricingRecord) error
}

type pricingRepo struct {
	db *gorm.DB
}

// NewPricingRepo 创建 PricingRepository 实例
func NewPricingRepo(db *gorm.DB) PricingRepository {
	return &pricingRepo{db: db}
}

func (r *pricingRepo) Latest(ctx context.Context) (*model.PricingRecord, error) {
	var rec model.PricingRecord
	err := r.db.WithContext(ctx).
		Order("id DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *pricingRepo) Upsert(ctx context.Context, rec *model.PricingRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
}
