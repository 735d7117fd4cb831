package services

import (
	"context"
	"fmt"
	"time"

	"github.com/periodcalm/period-calm-website-sub000/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Pusher interface {
	PushToUser(ctx context.Context, userID uint, title, body string, data map[string]string)
}

type Broadcaster interface {
	Broadcast(userID uint, payload any)
}

// AlertBus stores an alert and fans it out to the websocket hub, push and
// mail. Every channel is optional; leave it nil when not configured.
type AlertBus struct {
	db   *gorm.DB
	rt   Broadcaster
	push Pusher
	mail Mailer
	log  *zap.Logger
}

func NewAlertBus(db *gorm.DB, rt Broadcaster, push Pusher, mail Mailer, log *zap.Logger) *AlertBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &AlertBus{db: db, rt: rt, push: push, mail: mail, log: log.Named("alerts")}
}

// Emit records one alert per user, type and day; a repeat for the same day is
// a no-op and returns nil.
func (b *AlertBus) Emit(ctx context.Context, user models.User, typ, day, message string) (*models.Alert, error) {
	var n int64
	if err := b.db.WithContext(ctx).Model(&models.Alert{}).
		Where("user_id = ? AND type = ? AND day = ?", user.ID, typ, day).
		Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}

	a := &models.Alert{UserID: user.ID, Type: typ, Day: day, Message: message, CreatedAt: time.Now()}
	if err := b.db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}

	if b.rt != nil {
		b.rt.Broadcast(user.ID, map[string]any{
			"kind":  "alert.created",
			"alert": a,
		})
	}
	if b.push != nil {
		b.push.PushToUser(ctx, user.ID, "Period Calm", message, map[string]string{
			"type": typ, "alertId": fmt.Sprintf("%d", a.ID),
		})
	}
	if b.mail != nil && user.EmailReminders {
		if err := b.mail.Send(ctx, user.Email, "Your cycle reminder", message); err != nil {
			b.log.Warn("reminder email failed", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}
	return a, nil
}
