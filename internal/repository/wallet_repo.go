package repository

import (
	"context"
	"errors"

	"firestrike/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrWalletNotFound      = errors.New("钱包不存在")
	ErrInsufficientBalance = errors.New("余额不足")
	ErrOptimisticLock      = errors.New("乐观锁冲突，请重试")
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByUserID(ctx context.Context, userID int64) (*model.Wallet, error) {
	var wallet model.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *WalletRepository) getForUpdate(ctx context.Context, tx *gorm.DB, userID int64) (*model.Wallet, error) {
	var wallet model.Wallet
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

// GetOrCreate 钱包不存在时创建空钱包
func (r *WalletRepository) GetOrCreate(ctx context.Context, tx *gorm.DB, userID int64) (*model.Wallet, error) {
	db := conn(r.db, tx)

	newWallet := &model.Wallet{
		UserID:  userID,
		Balance: decimal.Zero,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(newWallet).Error
	if err != nil {
		return nil, err
	}

	var wallet model.Wallet
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// ApplyDelta 在事务内对余额施加有符号增量
//
// 1. SELECT ... FOR UPDATE 锁住钱包行
// 2. before + delta < 0 返回 ErrInsufficientBalance，不做任何修改
// 3. UPDATE ... WHERE version = 读到的版本，影响行数为 0 返回 ErrOptimisticLock
//
// 调用方负责在同一事务内写入 LedgerEntry
func (r *WalletRepository) ApplyDelta(ctx context.Context, tx *gorm.DB, userID int64, delta decimal.Decimal) (*model.BalanceChange, error) {
	if tx == nil {
		return nil, errors.New("ApplyDelta 必须在事务内调用")
	}

	wallet, err := r.getForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	after := wallet.Balance.Add(delta)
	if after.IsNegative() {
		return nil, ErrInsufficientBalance
	}

	result := tx.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("user_id = ? AND version = ?", userID, wallet.Version).
		Updates(map[string]interface{}{
			"balance": after,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrOptimisticLock
	}

	return &model.BalanceChange{
		UserID:        userID,
		Delta:         delta,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  after,
	}, nil
}
