package readinglog

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"readinghub/internal/apperr"
	"readinghub/internal/clock"
	"readinghub/internal/library"
	"readinghub/internal/stats"
	"readinghub/pkg/models"
)

// EventSink receives committed progress events. Publish must not block.
type EventSink interface {
	Publish(ev models.ProgressEvent)
}

// MultiSink fans an event out to every non-nil sink.
type MultiSink []EventSink

func (m MultiSink) Publish(ev models.ProgressEvent) {
	for _, s := range m {
		if s != nil {
			s.Publish(ev)
		}
	}
}

type Service struct {
	DB    *sqlx.DB
	Clock clock.Clock
	Log   *zap.SugaredLogger
	Sink  EventSink
}

func NewService(db *sqlx.DB, clk clock.Clock, log *zap.SugaredLogger, sink EventSink) *Service {
	return &Service{DB: db, Clock: clk, Log: log, Sink: sink}
}

// Record applies a page update and appends its log entry in one
// transaction, then publishes the resulting event.
func (s *Service) Record(ctx context.Context, userID string, in library.ProgressInput) (models.ReadingItem, models.ReadingLog, error) {
	var (
		res   library.ProgressResult
		entry models.ReadingLog
	)
	err := library.WithRetry(ctx, s.DB, func(tx *sqlx.Tx) error {
		now := s.Clock.Now()
		var err error
		res, err = library.UpsertOnProgress(ctx, tx, userID, in, now)
		if err != nil {
			return err
		}
		entry, err = Append(ctx, tx, res.Item, clock.DayKey(now), res.PagesRead, in.NewCurrentPage, now)
		return err
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindPersistence || apperr.KindOf(err) == apperr.KindUnknown {
			s.Log.Errorw("record progress failed", "user", userID, "title", in.Title, "err", err)
		}
		return models.ReadingItem{}, models.ReadingLog{}, err
	}

	it := res.Item
	if it.TotalPages > 0 && it.CurrentPage > it.TotalPages {
		s.Log.Warnw("current page beyond total pages", "user", userID, "item", it.ID,
			"currentPage", it.CurrentPage, "totalPages", it.TotalPages)
	}

	status := stats.Classify(it)
	before := it
	before.CurrentPage = res.PreviousPage
	if s.Sink != nil {
		s.Sink.Publish(models.ProgressEvent{
			UserID:        userID,
			ItemID:        it.ID,
			Title:         it.Title,
			PagesRead:     entry.PagesRead,
			CurrentPage:   it.CurrentPage,
			TotalPages:    it.TotalPages,
			Status:        status,
			JustCompleted: status == stats.StatusCompleted && stats.Classify(before) != stats.StatusCompleted,
			Timestamp:     s.Clock.Now().Unix(),
		})
	}
	return it, entry, nil
}
