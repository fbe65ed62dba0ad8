package repository

import (
	"context"

	"firestrike/internal/model"

	"gorm.io/gorm"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, c *model.ContactSubmission) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ContactRepository) List(ctx context.Context, page Page) ([]*model.ContactSubmission, int64, error) {
	var items []*model.ContactSubmission
	var total int64

	query := r.db.WithContext(ctx).Model(&model.ContactSubmission{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Offset(page.Offset()).Limit(page.Limit()).Find(&items).Error
	return items, total, err
}
