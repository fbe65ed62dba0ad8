package model

import (
	"time"
)

const (
	AuthProviderPassword = "password"
)

// Profile 用户资料，与登录身份一一对应
type Profile struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string    `gorm:"type:varchar(64);not null" json:"name"`
	Email           string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	Phone           string    `gorm:"type:varchar(32)" json:"phone"`
	IsAdmin         bool      `gorm:"not null;default:false" json:"is_admin"`
	PasswordHash    string    `gorm:"type:varchar(128)" json:"-"`
	AuthProvider    string    `gorm:"type:varchar(32);not null" json:"auth_provider"`
	ProviderSubject string    `gorm:"type:varchar(128)" json:"-"`
	AvatarURL       string    `gorm:"type:varchar(512)" json:"avatar_url,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// ProfileWithBalance 管理后台用户列表
type ProfileWithBalance struct {
	Profile
	Balance string `json:"balance"`
}
