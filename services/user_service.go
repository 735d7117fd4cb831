package services

import (
	"context"
	"strings"

	"github.com/periodcalm/period-calm-website-sub000/models"

	"gorm.io/gorm"
)

type UserService struct{ db *gorm.DB }

func NewUserService(db *gorm.DB) *UserService { return &UserService{db: db} }

type ProfileInput struct {
	FullName         *string `json:"full_name" binding:"omitempty,max=120"`
	RemindersEnabled *bool   `json:"reminders_enabled"`
	EmailReminders   *bool   `json:"email_reminders"`
}

type Profile struct {
	ID               uint   `json:"id"`
	Email            string `json:"email"`
	FullName         string `json:"full_name"`
	Role             string `json:"role"`
	RemindersEnabled bool   `json:"reminders_enabled"`
	EmailReminders   bool   `json:"email_reminders"`
}

func profileOf(u *models.User) *Profile {
	return &Profile{
		ID:               u.ID,
		Email:            u.Email,
		FullName:         u.FullName,
		Role:             u.Role,
		RemindersEnabled: u.RemindersEnabled,
		EmailReminders:   u.EmailReminders,
	}
}

func (s *UserService) find(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("disabled = ?", false).First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetUserProfile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profileOf(user), nil
}

func (s *UserService) UpdateUserProfile(ctx context.Context, userID uint, in ProfileInput) (*Profile, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.RemindersEnabled != nil {
		user.RemindersEnabled = *in.RemindersEnabled
	}
	if in.EmailReminders != nil {
		user.EmailReminders = *in.EmailReminders
	}
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return profileOf(user), nil
}

// SetPushEnabled flips every registered device of the user.
func (s *UserService) SetPushEnabled(ctx context.Context, userID uint, enabled bool) error {
	return s.db.WithContext(ctx).Model(&models.UserDevice{}).
		Where("user_id = ?", userID).
		Update("enabled", enabled).Error
}

// ReminderRecipients lists active users who opted into reminders.
func (s *UserService) ReminderRecipients(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("reminders_enabled = ? AND disabled = ?", true, false).
		Order("id").
		Find(&users).Error
	return users, err
}

// RecentAlerts returns the newest alerts first.
func (s *UserService) RecentAlerts(ctx context.Context, userID uint, limit int) ([]models.Alert, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var alerts []models.Alert
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&alerts).Error
	return alerts, err
}
