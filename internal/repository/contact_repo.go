package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thehallofegress/class-schedules/internal/model"
)

// ContactRepository 联系方式数据访问接口
type ContactRepository interface {
	Latest(ctx context.Context) (*model.ContactRecord, error)
	Upsert(ctx context.Context, rec *model.ContactRecord) error
}

type contactRepo struct {
	db *gorm.DB
}

// NewContactRepo 创建 ContactRepository 实例
func NewContactRepo(db *gorm.DB) ContactRepository {
	return &contactRepo{db: db}
}

func (r *contactRepo) Latest(ctx context.Context) (*model.ContactRecord, error) {
	var rec model.ContactRecord
	err := r.db.WithContext(ctx).
		Order("id DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *contactRepo) Upsert(ctx context.Context, rec *model.ContactRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
}
