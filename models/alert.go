package models

import (
	"fmt"
	"time"
)

const (
	AlertPeriodSoon    = "period_soon"
	AlertFertileStart  = "fertile_start"
	AlertOvulation     = "ovulation"
	AlertPMSStart      = "pms_start"
	AlertPeriodOverdue = "period_overdue"
)

type Alert struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index"`
	Type      string    `gorm:"size:20"`
	Day       string    `gorm:"size:10;index"` // calendar day the alert is about
	Message   string    `gorm:"type:text"`
	CreatedAt time.Time
}

func OwnerKey(userID uint) string { return fmt.Sprintf("user-%d", userID) }
