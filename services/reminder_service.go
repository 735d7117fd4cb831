package services

import (
	"context"
	"errors"
	"time"

	"github.com/periodcalm/period-calm-website-sub000/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DefaultReminderSchedule = "0 8 * * *"

	periodSoonLeadDays  = 2
	overdueReminderDays = 3
)

// ReminderFor picks the reminder, if any, that today deserves under p.
func ReminderFor(p *Prediction, today time.Time) (typ, message string, ok bool) {
	today = models.CalendarDay(today)
	is := func(date string, offset int) bool {
		d, err := models.ParseDate(date)
		return err == nil && d.AddDate(0, 0, offset).Equal(today)
	}

	switch {
	case is(p.FertileWindow.Start, 0):
		return models.AlertFertileStart, "Your fertile window starts today.", true
	case is(p.OvulationDate, 0):
		return models.AlertOvulation, "Today is your predicted ovulation day.", true
	case is(p.PMSStartDate, 0):
		return models.AlertPMSStart, "PMS days may start around now. Go easy on yourself.", true
	case is(p.NextPeriodDate, -periodSoonLeadDays):
		return models.AlertPeriodSoon, "Your period is expected in 2 days.", true
	case is(p.NextPeriodDate, overdueReminderDays):
		return models.AlertPeriodOverdue, "Your period is 3 days later than predicted. Log it when it starts so predictions stay accurate.", true
	}
	return "", "", false
}

type ReminderService struct {
	users   *UserService
	tracker *CycleTracker
	bus     *AlertBus
	log     *zap.Logger
	now     func() time.Time
}

func NewReminderService(users *UserService, tracker *CycleTracker, bus *AlertBus, log *zap.Logger) *ReminderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReminderService{users: users, tracker: tracker, bus: bus, log: log.Named("reminders"), now: time.Now}
}

// Start schedules RunDaily on spec (standard five-field cron).
func (s *ReminderService) Start(spec string) (*cron.Cron, error) {
	if spec == "" {
		spec = DefaultReminderSchedule
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		sent, err := s.RunDaily(ctx)
		if err != nil {
			s.log.Error("reminder run failed", zap.Error(err))
			return
		}
		s.log.Info("reminder run finished", zap.Int("sent", sent))
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// RunDaily emits today's reminders and returns how many were new. One user's
// failure is logged and the run moves on.
func (s *ReminderService) RunDaily(ctx context.Context) (int, error) {
	users, err := s.users.ReminderRecipients(ctx)
	if err != nil {
		return 0, err
	}
	today := models.CalendarDay(s.now())
	sent := 0
	for _, u := range users {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		p, err := s.tracker.Prediction(ctx, u.OwnerKey())
		if errors.Is(err, ErrInsufficientData) {
			continue
		}
		if err != nil {
			s.log.Warn("prediction failed", zap.Uint("user_id", u.ID), zap.Error(err))
			continue
		}
		typ, msg, ok := ReminderFor(p, today)
		if !ok {
			continue
		}
		a, err := s.bus.Emit(ctx, u, typ, models.FormatDate(today), msg)
		if err != nil {
			s.log.Warn("alert emit failed", zap.Uint("user_id", u.ID), zap.Error(err))
			continue
		}
		if a != nil {
			sent++
			remindersSentTotal.WithLabelValues(typ).Inc()
		}
	}
	return sent, nil
}
