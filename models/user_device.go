package models

import "time"

// UserDevice is an SNS push endpoint registered by the mobile wrapper of the portal.
type UserDevice struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"index"`
	Platform     string `gorm:"size:16"` // "android" | "ios"
	TokenHash    string `gorm:"size:64;index"`
	EndpointARN  string `gorm:"size:256"`
	Enabled      bool   `gorm:"default:true"`
	LastPushedAt *time.Time
	UpdatedAt    time.Time
	CreatedAt    time.Time
}
