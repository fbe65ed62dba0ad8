package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TournamentTypeSolo  = "Solo"
	TournamentTypeDuo   = "Duo"
	TournamentTypeSquad = "Squad"
)

const (
	TournamentStatusOpen      = "open"
	TournamentStatusFull      = "full"
	TournamentStatusStarted   = "started"
	TournamentStatusCompleted = "completed"
)

// full -> open 发生在名额被释放时（例如 UPI 报名被驳回）
var ValidTournamentTransitions = map[string][]string{
	TournamentStatusOpen:    {TournamentStatusFull, TournamentStatusStarted},
	TournamentStatusFull:    {TournamentStatusOpen, TournamentStatusStarted},
	TournamentStatusStarted: {TournamentStatusCompleted},
}

func CanTournamentTransitionTo(currentStatus, targetStatus string) bool {
	return canTransition(ValidTournamentTransitions, currentStatus, targetStatus)
}

func IsValidTournamentType(t string) bool {
	switch t {
	case TournamentTypeSolo, TournamentTypeDuo, TournamentTypeSquad:
		return true
	}
	return false
}

func IsValidTournamentStatus(s string) bool {
	switch s {
	case TournamentStatusOpen, TournamentStatusFull, TournamentStatusStarted, TournamentStatusCompleted:
		return true
	}
	return false
}

type Tournament struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title          string          `gorm:"type:varchar(128);not null" json:"title"`
	Slug           string          `gorm:"type:varchar(160);uniqueIndex;not null" json:"slug"`
	Type           string          `gorm:"type:varchar(16);not null" json:"type"`
	EntryFee       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"entry_fee"`
	PrizePool      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"prize_pool"`
	MaxPlayers     int             `gorm:"not null" json:"max_players"`
	CurrentPlayers int             `gorm:"not null;default:0" json:"current_players"`
	StartTime      time.Time       `gorm:"index;not null" json:"start_time"`
	Status         string          `gorm:"type:varchar(16);index;not null" json:"status"`
	Description    string          `gorm:"type:text" json:"description,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Tournament) TableName() string {
	return "tournaments"
}

// IsFull 名额已满
func (t *Tournament) IsFull() bool {
	return t.Status == TournamentStatusFull || t.CurrentPlayers >= t.MaxPlayers
}

// AcceptsRegistration 是否还能报名
func (t *Tournament) AcceptsRegistration() bool {
	return t.Status == TournamentStatusOpen || t.Status == TournamentStatusFull
}

// IsFree 免费赛
func (t *Tournament) IsFree() bool {
	return !t.EntryFee.IsPositive()
}

// TournamentFilter 列表查询条件
type TournamentFilter struct {
	Status string
	Type   string
}
