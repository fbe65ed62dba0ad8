package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WalletTxTypeDeposit           = "deposit"
	WalletTxTypeWithdraw          = "withdraw"
	WalletTxTypeTournamentPayment = "tournament_payment"
)

const (
	WalletTxStatusPending   = "pending"
	WalletTxStatusCompleted = "completed"
	WalletTxStatusFailed    = "failed"
)

// 充值/提现/报名费单据只能由 pending 流转一次
var ValidWalletTxTransitions = map[string][]string{
	WalletTxStatusPending: {WalletTxStatusCompleted, WalletTxStatusFailed},
}

func CanWalletTxTransitionTo(currentStatus, targetStatus string) bool {
	return canTransition(ValidWalletTxTransitions, currentStatus, targetStatus)
}

func IsValidWalletTxType(t string) bool {
	switch t {
	case WalletTxTypeDeposit, WalletTxTypeWithdraw, WalletTxTypeTournamentPayment:
		return true
	}
	return false
}

// WalletTransaction 钱包单据，状态由管理员审核驱动
type WalletTransaction struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference     string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference"`
	UserID        int64           `gorm:"index;not null" json:"user_id"`
	Type          string          `gorm:"type:varchar(32);index;not null" json:"type"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status        string          `gorm:"type:varchar(20);index;not null" json:"status"`
	Screenshot    string          `gorm:"type:varchar(512)" json:"screenshot,omitempty"`
	TransactionID string          `gorm:"type:varchar(128)" json:"transaction_id,omitempty"` // UPI 付款参考号
	PayoutUPI     string          `gorm:"column:payout_upi;type:varchar(128)" json:"payout_upi,omitempty"`
	TournamentID  *int64          `gorm:"index" json:"tournament_id,omitempty"`
	AdminNote     string          `gorm:"type:varchar(256)" json:"admin_note,omitempty"`
	ProcessedBy   *int64          `json:"processed_by,omitempty"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// WalletTxFilter 单据列表查询条件，零值表示不过滤
type WalletTxFilter struct {
	UserID int64
	Type   string
	Status string
}
