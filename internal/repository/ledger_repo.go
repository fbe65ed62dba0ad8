package repository

import (
	"context"

	"firestrike/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, tx *gorm.DB, entry *model.LedgerEntry) error {
	return conn(r.db, tx).WithContext(ctx).Create(entry).Error
}

func (r *LedgerRepository) ListByUserID(ctx context.Context, userID int64, page Page) ([]*model.LedgerEntry, int64, error) {
	var entries []*model.LedgerEntry
	var total int64

	query := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&entries).Error

	return entries, total, err
}

// SumByUserID 用户全部流水之和，用于对账
func (r *LedgerRepository) SumByUserID(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var row struct {
		Total decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).
		Model(&model.LedgerEntry{}).
		Select("SUM(amount) AS total").
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !row.Total.Valid {
		return decimal.Zero, nil
	}
	return row.Total.Decimal, nil
}
