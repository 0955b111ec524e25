// Package streak keeps the per-user daily activity counter.
package streak

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"readinghub/internal/clock"
	"readinghub/internal/user"
	"readinghub/pkg/database"
)

// State is the streak part of a user's settings.
type State struct {
	StreakDays     int
	LastActiveDate *time.Time
}

// Advance applies one ping on today. The counter is floored at 1, the first
// ping only stamps the day, and each later calendar day adds exactly one
// regardless of how many days were missed. changed is false for a ping on
// the same day (or an earlier one).
func Advance(s State, today time.Time) (next State, changed bool) {
	day := clock.DateOnly(today)
	next = s
	if next.StreakDays < 1 {
		next.StreakDays = 1
		changed = true
	}
	if next.LastActiveDate == nil {
		next.LastActiveDate = &day
		return next, true
	}
	last := clock.DateOnly(next.LastActiveDate.In(day.Location()))
	if day.After(last) {
		next.StreakDays++
		next.LastActiveDate = &day
		return next, true
	}
	return next, changed
}

type Result struct {
	StreakDays       int       `json:"streakDays"`
	RegistrationDate time.Time `json:"registrationDate"`
}

type Tracker struct {
	DB    *sqlx.DB
	Clock clock.Clock
	Log   *zap.SugaredLogger
}

func NewTracker(db *sqlx.DB, clk clock.Clock, log *zap.SugaredLogger) *Tracker {
	return &Tracker{DB: db, Clock: clk, Log: log}
}

// Ping records activity for userID on the current local day.
func (t *Tracker) Ping(ctx context.Context, userID string) (Result, error) {
	var res Result
	err := database.WithTx(ctx, t.DB, func(tx *sqlx.Tx) error {
		u, err := user.GetByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		now := t.Clock.Now()
		next, changed := Advance(State{
			StreakDays:     u.Settings.StreakDays,
			LastActiveDate: u.Settings.LastActiveDate,
		}, now)
		res = Result{StreakDays: next.StreakDays, RegistrationDate: u.CreatedAt}
		if !changed {
			return nil
		}
		return user.SaveStreak(ctx, tx, userID, next.StreakDays, *next.LastActiveDate, now)
	})
	if err != nil {
		return Result{}, err
	}
	t.Log.Debugw("streak ping", "user", userID, "streakDays", res.StreakDays)
	return res, nil
}
