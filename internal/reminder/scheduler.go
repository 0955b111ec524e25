// Package reminder nudges users who have not reached their daily page goal.
package reminder

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"readinghub/internal/clock"
	"readinghub/internal/readinglog"
	"readinghub/internal/stats"
	"readinghub/internal/user"
)

// Notifier delivers a reminder and reports how many receivers got it.
type Notifier interface {
	Remind(userID string, remaining, goal int) int
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	db        *sqlx.DB
	clock     clock.Clock
	notifier  Notifier
	log       *zap.SugaredLogger
	at        string
}

// New schedules nothing yet; at is a local "HH:MM" time.
func New(db *sqlx.DB, clk clock.Clock, notifier Notifier, log *zap.SugaredLogger, at string) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.Local),
		db:        db,
		clock:     clk,
		notifier:  notifier,
		log:       log,
		at:        at,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Day().At(s.at).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.CheckAndSend(ctx); err != nil {
			s.log.Errorw("daily reminder failed", "err", err)
		}
	})
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.log.Infow("reminder scheduled", "at", s.at)
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// CheckAndSend reminds every user with a page goal who is still short of
// it today and returns how many users were reminded.
func (s *Scheduler) CheckAndSend(ctx context.Context) (int, error) {
	users, err := user.ListWithPageGoal(ctx, s.db)
	if err != nil {
		return 0, err
	}
	today := s.clock.Now()
	reminded := 0
	for _, u := range users {
		logs, err := readinglog.ListForDate(ctx, s.db, u.ID, clock.DayKey(today))
		if err != nil {
			s.log.Warnw("load today's logs", "user", u.ID, "err", err)
			continue
		}
		p := stats.Today(logs, today, u.Settings.DailyPageGoal)
		if p.GoalMet {
			continue
		}
		s.notifier.Remind(u.ID, p.Remaining, p.DailyPageGoal)
		reminded++
	}
	s.log.Infow("reminders sent", "candidates", len(users), "reminded", reminded)
	return reminded, nil
}
