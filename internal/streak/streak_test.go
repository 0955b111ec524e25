package streak

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"readinghub/internal/apperr"
	"readinghub/internal/clock"
	"readinghub/internal/user"
	"readinghub/pkg/database"
)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.Local)
}

func TestAdvance(t *testing.T) {
	first, changed := Advance(State{StreakDays: 1}, day(2024, 1, 1, 9))
	assert.True(t, changed)
	assert.Equal(t, 1, first.StreakDays)
	require.NotNil(t, first.LastActiveDate)
	assert.Equal(t, "2024-01-01", clock.DayKey(*first.LastActiveDate))

	same, changed := Advance(first, day(2024, 1, 1, 23))
	assert.False(t, changed)
	assert.Equal(t, 1, same.StreakDays)

	next, changed := Advance(first, day(2024, 1, 2, 0))
	assert.True(t, changed)
	assert.Equal(t, 2, next.StreakDays)

	gap, changed := Advance(next, day(2024, 1, 7, 12))
	assert.True(t, changed)
	assert.Equal(t, 3, gap.StreakDays, "a gap still adds exactly one")
	assert.Equal(t, "2024-01-07", clock.DayKey(*gap.LastActiveDate))

	past, changed := Advance(gap, day(2024, 1, 3, 12))
	assert.False(t, changed)
	assert.Equal(t, 3, past.StreakDays)
}

func TestAdvanceFloorsCounter(t *testing.T) {
	last := day(2024, 1, 1, 0)
	got, changed := Advance(State{StreakDays: 0, LastActiveDate: &last}, day(2024, 1, 1, 10))
	assert.True(t, changed)
	assert.Equal(t, 1, got.StreakDays)
}

func TestTrackerPing(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "streak.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	reg := day(2024, 2, 1, 8)
	u, err := user.CreateUser(ctx, db, user.Credentials{Email: "streak@example.com", Password: "pw"}, reg)
	require.NoError(t, err)

	clk := &clock.Fixed{T: day(2024, 2, 1, 9)}
	tr := NewTracker(db, clk, zap.NewNop().Sugar())

	res, err := tr.Ping(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.StreakDays)
	assert.True(t, res.RegistrationDate.Equal(reg))

	res, err = tr.Ping(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.StreakDays)

	clk.Advance(24 * time.Hour)
	res, err = tr.Ping(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.StreakDays)

	clk.Advance(5 * 24 * time.Hour)
	res, err = tr.Ping(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.StreakDays)

	stored, err := user.GetByID(ctx, db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Settings.StreakDays)
	assert.Equal(t, "2024-02-07", clock.DayKey(*stored.Settings.LastActiveDate))

	_, err = tr.Ping(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
