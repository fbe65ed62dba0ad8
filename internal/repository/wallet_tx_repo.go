package repository

import (
	"context"
	"errors"
	"time"

	"firestrike/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrWalletTransactionNotFound = errors.New("钱包单据不存在")

type WalletTransactionRepository struct {
	db *gorm.DB
}

func NewWalletTransactionRepository(db *gorm.DB) *WalletTransactionRepository {
	return &WalletTransactionRepository{db: db}
}

func (r *WalletTransactionRepository) Create(ctx context.Context, tx *gorm.DB, t *model.WalletTransaction) error {
	err := conn(r.db, tx).WithContext(ctx).Create(t).Error
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

func (r *WalletTransactionRepository) GetByID(ctx context.Context, id int64) (*model.WalletTransaction, error) {
	var t model.WalletTransaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetByIDForUpdate 审核时锁住单据行
func (r *WalletTransactionRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*model.WalletTransaction, error) {
	var t model.WalletTransaction
	err := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

// UpdateStatus 条件更新：只有当前状态为 fromStatus 时才会成功
func (r *WalletTransactionRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, fromStatus, toStatus string, processedBy int64, note string) error {
	if !model.CanWalletTxTransitionTo(fromStatus, toStatus) {
		return ErrStatusConflict
	}

	now := time.Now()
	result := conn(r.db, tx).WithContext(ctx).
		Model(&model.WalletTransaction{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(map[string]interface{}{
			"status":       toStatus,
			"processed_by": processedBy,
			"processed_at": &now,
			"admin_note":   note,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *WalletTransactionRepository) List(ctx context.Context, filter model.WalletTxFilter, page Page) ([]*model.WalletTransaction, int64, error) {
	var items []*model.WalletTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.WalletTransaction{})
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&items).Error

	return items, total, err
}

// CountPendingByType 各类型待审核单据数量
func (r *WalletTransactionRepository) CountPendingByType(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Type  string
		Total int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.WalletTransaction{}).
		Select("type, COUNT(*) AS total").
		Where("status = ?", model.WalletTxStatusPending).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Type] = row.Total
	}
	return out, nil
}

// SumCompleted 某类型已完成单据的金额合计
func (r *WalletTransactionRepository) SumCompleted(ctx context.Context, txType string) (decimal.Decimal, error) {
	var row struct {
		Total decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).
		Model(&model.WalletTransaction{}).
		Select("SUM(amount) AS total").
		Where("type = ? AND status = ?", txType, model.WalletTxStatusCompleted).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !row.Total.Valid {
		return decimal.Zero, nil
	}
	return row.Total.Decimal, nil
}
