package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Schedule     ScheduleRepository
	Contact      ContactRepository
	Pricing      PricingRepository
	Location     LocationRepository
	Announcement AnnouncementRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Schedule:     NewScheduleRepo(db),
		Contact:      NewContactRepo(db),
		Pricing:      NewPricingRepo(db),
		Location:     NewLocationRepo(db),
		Announcement: NewAnnouncementRepo(db),
	}
}
