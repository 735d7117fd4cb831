package models

import (
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	gorm.Model
	Email            string `gorm:"uniqueIndex;not null"`
	Password         string `gorm:"not null" json:"-"`
	FullName         string
	Role             string `gorm:"size:16;default:customer"`
	RemindersEnabled bool   `gorm:"default:true"`
	EmailReminders   bool
	ResetToken       string `json:"-"`
	ResetTokenExp    int64  `json:"-"` // unix seconds
	Disabled         bool
}

// OwnerKey names the user's record map in the cycle store.
func (u User) OwnerKey() string { return OwnerKey(u.ID) }
