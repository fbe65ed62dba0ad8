package repository

import (
	"context"

	"firestrike/internal/model"

	"gorm.io/gorm"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, a *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ActivityRepository) ListByUser(ctx context.Context, userID int64, page Page) ([]*model.ActivityLog, int64, error) {
	var items []*model.ActivityLog
	var total int64

	query := r.db.WithContext(ctx).Model(&model.ActivityLog{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Offset(page.Offset()).Limit(page.Limit()).Find(&items).Error
	return items, total, err
}
