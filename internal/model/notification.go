package model

import "time"

const (
	NotificationKindWallet     = "wallet"
	NotificationKindTournament = "tournament"
	NotificationKindResult     = "result"
)

type Notification struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index:idx_notification_user_read;not null" json:"user_id"`
	Kind      string    `gorm:"type:varchar(32);not null" json:"kind"`
	Title     string    `gorm:"type:varchar(128);not null" json:"title"`
	Message   string    `gorm:"type:varchar(512);not null" json:"message"`
	IsRead    bool      `gorm:"index:idx_notification_user_read;not null;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

type ActivityLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	Action    string    `gorm:"type:varchar(64);not null" json:"action"`
	Detail    string    `gorm:"type:varchar(512)" json:"detail"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

type ContactSubmission struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(64);not null" json:"name"`
	Email     string    `gorm:"type:varchar(128);not null" json:"email"`
	Subject   string    `gorm:"type:varchar(128)" json:"subject"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ContactSubmission) TableName() string {
	return "contact_submissions"
}
