package reminder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"readinghub/internal/clock"
	"readinghub/internal/library"
	"readinghub/internal/readinglog"
	"readinghub/internal/user"
	"readinghub/pkg/database"
)

type fakeNotifier struct {
	calls map[string]int
}

func (f *fakeNotifier) Remind(userID string, remaining, goal int) int {
	f.calls[userID] = remaining
	return 1
}

func TestCheckAndSend(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "rem.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	clk := &clock.Fixed{T: time.Date(2024, 7, 1, 20, 0, 0, 0, time.Local)}
	log := zap.NewNop().Sugar()

	mk := func(email string, goal int) string {
		u, err := user.CreateUser(ctx, db, user.Credentials{Email: email, Password: "pw"}, clk.T)
		require.NoError(t, err)
		if goal > 0 {
			_, err = user.UpdateSettings(ctx, db, u.ID, user.SettingsPatch{DailyPageGoal: &goal}, clk.T)
			require.NoError(t, err)
		}
		return u.ID
	}
	behind := mk("behind@example.com", 30)
	done := mk("done@example.com", 10)
	mk("nogoal@example.com", 0)

	svc := readinglog.NewService(db, clk, log, nil)
	_, _, err = svc.Record(ctx, behind, library.ProgressInput{Title: "A", NewCurrentPage: 12})
	require.NoError(t, err)
	_, _, err = svc.Record(ctx, done, library.ProgressInput{Title: "B", NewCurrentPage: 15})
	require.NoError(t, err)

	n := &fakeNotifier{calls: map[string]int{}}
	s := New(db, clk, n, log, "20:00")
	got, err := s.CheckAndSend(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	assert.Equal(t, map[string]int{behind: 18}, n.calls)
}

func TestStartRejectsBadTime(t *testing.T) {
	s := New(nil, clock.SystemClock{}, &fakeNotifier{}, zap.NewNop().Sugar(), "25:99")
	assert.Error(t, s.Start())
}
