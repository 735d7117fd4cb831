package services

import (
	"context"
	"testing"

	"github.com/periodcalm/period-calm-website-sub000/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProfile(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserService(db)
	u := models.User{Email: "ana@example.com", Password: "x", FullName: "Ana", RemindersEnabled: true}
	require.NoError(t, db.Create(&u).Error)

	p, err := users.GetUserProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.FullName)
	assert.True(t, p.RemindersEnabled)

	p, err = users.UpdateUserProfile(ctx, u.ID, ProfileInput{
		FullName:         ptr("  Ana Lopez "),
		RemindersEnabled: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lopez", p.FullName)
	assert.False(t, p.RemindersEnabled)

	recipients, err := users.ReminderRecipients(ctx)
	require.NoError(t, err)
	assert.Empty(t, recipients)

	_, err = users.GetUserProfile(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetPushEnabledAndAlerts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserService(db)
	require.NoError(t, db.Create(&models.UserDevice{UserID: 1, Platform: "android", EndpointARN: "arn:a"}).Error)
	require.NoError(t, db.Create(&models.UserDevice{UserID: 1, Platform: "ios", EndpointARN: "arn:b"}).Error)

	require.NoError(t, users.SetPushEnabled(ctx, 1, false))
	var enabled int64
	require.NoError(t, db.Model(&models.UserDevice{}).Where("enabled = ?", true).Count(&enabled).Error)
	assert.Zero(t, enabled)

	bus := NewAlertBus(db, nil, nil, nil, nil)
	u := models.User{}
	u.ID = 1
	_, err := bus.Emit(ctx, u, models.AlertPeriodSoon, "2024-02-24", "soon")
	require.NoError(t, err)
	_, err = bus.Emit(ctx, u, models.AlertPMSStart, "2024-02-19", "pms")
	require.NoError(t, err)

	alerts, err := users.RecentAlerts(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
}
