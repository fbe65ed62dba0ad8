package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet 用户钱包
// 余额只能通过 WalletRepository.ApplyDelta 修改，每次修改必须伴随一条 LedgerEntry
type Wallet struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64           `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	Version   int             `gorm:"not null;default:0" json:"-"` // 乐观锁版本号
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// LedgerEntry 钱包流水（只追加，不修改，不删除）
//
// 对账规则：wallets.balance == SUM(wallet_ledger.amount)
type LedgerEntry struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	EntryNo             string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"entry_no"`
	UserID              int64           `gorm:"index;not null" json:"user_id"`
	WalletTransactionID int64           `gorm:"index;not null" json:"wallet_transaction_id"`
	Amount              decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"` // 正数入账，负数出账
	BalanceBefore       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_before"`
	BalanceAfter        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance_after"`
	Remark              string          `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt           time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "wallet_ledger"
}

// BalanceChange ApplyDelta 的结果，用于写流水
type BalanceChange struct {
	UserID        int64
	Delta         decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
}
