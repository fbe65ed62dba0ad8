package model

import (
	"time"
)

const (
	PaymentMethodWallet = "wallet"
	PaymentMethodUPI    = "upi"
	PaymentMethodFree   = "free"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

const (
	ResultWinner = "winner"
	ResultLoss   = "loss"
)

func IsValidResult(r string) bool {
	return r == ResultWinner || r == ResultLoss
}

// Participant 报名记录，报名时创建，标记成绩时修改
type Participant struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TournamentID        int64     `gorm:"uniqueIndex:uk_tournament_user;uniqueIndex:uk_tournament_slot;not null" json:"tournament_id"`
	UserID              int64     `gorm:"uniqueIndex:uk_tournament_user;index;not null" json:"user_id"`
	GameName            string    `gorm:"type:varchar(64);not null" json:"game_name"`
	UID                 string    `gorm:"column:uid;type:varchar(64);not null" json:"uid"`
	SlotNumber          int       `gorm:"uniqueIndex:uk_tournament_slot;not null" json:"slot_number"`
	PaymentMethod       string    `gorm:"type:varchar(16);not null" json:"payment_method"`
	PaymentStatus       string    `gorm:"type:varchar(16);not null" json:"payment_status"`
	WalletTransactionID *int64    `json:"wallet_transaction_id,omitempty"`
	Result              *string   `gorm:"type:varchar(16)" json:"result"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Participant) TableName() string {
	return "tournament_participants"
}

// HasResult 判断是否已是指定成绩
func (p *Participant) HasResult(result string) bool {
	return p.Result != nil && *p.Result == result
}

// MatchHistoryItem 我的比赛记录
type MatchHistoryItem struct {
	Participant
	Tournament Tournament `json:"tournament"`
}
