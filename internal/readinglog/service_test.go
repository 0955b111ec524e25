package readinglog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"readinghub/internal/apperr"
	"readinghub/internal/clock"
	"readinghub/internal/library"
	"readinghub/internal/stats"
	"readinghub/internal/user"
	"readinghub/pkg/database"
	"readinghub/pkg/models"
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.ProgressEvent
}

func (r *recordingSink) Publish(ev models.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func newService(t *testing.T) (*Service, *clock.Fixed, *recordingSink, string) {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "logs.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = db.Close() })

	u, err := user.CreateUser(context.Background(), db, user.Credentials{Email: "log@example.com", Password: "pw"}, time.Now())
	require.NoError(t, err)

	clk := &clock.Fixed{T: time.Date(2024, 4, 1, 23, 30, 0, 0, time.Local)}
	sink := &recordingSink{}
	return NewService(db, clk, zap.NewNop().Sugar(), sink), clk, sink, u.ID
}

func intp(v int) *int { return &v }

func TestSapiensEndToEnd(t *testing.T) {
	svc, _, sink, uid := newService(t)
	ctx := context.Background()

	_, err := library.CreateOrUpdateDirect(ctx, svc.DB, uid, library.ItemInput{Title: "Sapiens", TotalPages: intp(443), CurrentPage: intp(0)}, time.Now())
	require.NoError(t, err)

	it, entry, err := svc.Record(ctx, uid, library.ProgressInput{Title: "Sapiens", NewCurrentPage: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, it.CurrentPage)
	assert.Equal(t, 100, entry.PagesRead)
	assert.Equal(t, 100, entry.CurrentPageAfter)
	assert.Equal(t, "2024-04-01", entry.Date)
	assert.Equal(t, stats.StatusReading, stats.Classify(it))
	assert.Equal(t, 23, stats.ItemProgress(it))

	require.Len(t, sink.events, 1)
	assert.Equal(t, "Sapiens", sink.events[0].Title)
	assert.False(t, sink.events[0].JustCompleted)
}

func TestLogSumMatchesProgress(t *testing.T) {
	svc, clk, _, uid := newService(t)
	ctx := context.Background()

	pages := []int{10, 10, 35, 80, 81, 200}
	for _, p := range pages {
		_, _, err := svc.Record(ctx, uid, library.ProgressInput{Title: "Monotone", NewCurrentPage: p})
		require.NoError(t, err)
		clk.Advance(time.Hour)
	}

	logs, err := ListForUser(ctx, svc.DB, uid, "", "")
	require.NoError(t, err)
	require.Len(t, logs, len(pages))
	sum := 0
	for _, l := range logs {
		sum += l.PagesRead
	}
	assert.Equal(t, 200, sum)
}

func TestRegressionLogsZero(t *testing.T) {
	svc, _, _, uid := newService(t)
	ctx := context.Background()

	_, _, err := svc.Record(ctx, uid, library.ProgressInput{Title: "Back", NewCurrentPage: 50})
	require.NoError(t, err)
	it, entry, err := svc.Record(ctx, uid, library.ProgressInput{Title: "Back", NewCurrentPage: 30})
	require.NoError(t, err)
	assert.Equal(t, 0, entry.PagesRead)
	assert.Equal(t, 30, it.CurrentPage)
}

func TestEntriesBucketByLocalDay(t *testing.T) {
	svc, clk, _, uid := newService(t)
	ctx := context.Background()

	_, _, err := svc.Record(ctx, uid, library.ProgressInput{Title: "Night", NewCurrentPage: 5})
	require.NoError(t, err)
	clk.Advance(time.Hour) // past midnight
	_, _, err = svc.Record(ctx, uid, library.ProgressInput{Title: "Night", NewCurrentPage: 12})
	require.NoError(t, err)
	_, _, err = svc.Record(ctx, uid, library.ProgressInput{Title: "Night", NewCurrentPage: 20})
	require.NoError(t, err)

	first, err := ListForDate(ctx, svc.DB, uid, "2024-04-01")
	require.NoError(t, err)
	assert.Len(t, first, 1)
	second, err := ListForDate(ctx, svc.DB, uid, "2024-04-02")
	require.NoError(t, err)
	assert.Len(t, second, 2)

	ranged, err := ListForUser(ctx, svc.DB, uid, "2024-04-02", "")
	require.NoError(t, err)
	assert.Len(t, ranged, 2)
}

func TestCompletionEventFiresOnce(t *testing.T) {
	svc, _, sink, uid := newService(t)
	ctx := context.Background()

	_, _, err := svc.Record(ctx, uid, library.ProgressInput{Title: "Thin", TotalPages: intp(50), NewCurrentPage: 40})
	require.NoError(t, err)
	_, _, err = svc.Record(ctx, uid, library.ProgressInput{Title: "Thin", NewCurrentPage: 50})
	require.NoError(t, err)
	_, _, err = svc.Record(ctx, uid, library.ProgressInput{Title: "Thin", NewCurrentPage: 60})
	require.NoError(t, err)

	require.Len(t, sink.events, 3)
	assert.False(t, sink.events[0].JustCompleted)
	assert.True(t, sink.events[1].JustCompleted)
	assert.False(t, sink.events[2].JustCompleted)
	assert.Equal(t, stats.StatusCompleted, sink.events[2].Status)
}

func TestRecordValidation(t *testing.T) {
	svc, _, sink, uid := newService(t)
	_, _, err := svc.Record(context.Background(), uid, library.ProgressInput{NewCurrentPage: 3})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Empty(t, sink.events)

	logs, err := ListForUser(context.Background(), svc.DB, uid, "", "")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestMultiSinkSkipsNil(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	MultiSink{a, nil, b}.Publish(models.ProgressEvent{Title: "t"})
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}
