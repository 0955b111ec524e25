package library

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"readinghub/internal/apperr"
	"readinghub/pkg/database"
	"readinghub/pkg/models"
)

// MaxAttempts bounds how often a lost compare-and-swap is retried.
const MaxAttempts = 3

// ProgressInput is a page update keyed by (title, author).
type ProgressInput struct {
	Title          string
	Author         string
	Topic          string
	School         string
	TotalPages     *int
	NewCurrentPage int
}

// ItemInput is a direct create-or-update. Nil fields are left untouched
// on an existing item.
type ItemInput struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Topic       *string `json:"topic"`
	School      *string `json:"school"`
	TotalPages  *int    `json:"totalPages"`
	CurrentPage *int    `json:"currentPage"`
}

// ItemPatch is a partial update addressed by id.
type ItemPatch struct {
	Topic       *string `json:"topic"`
	School      *string `json:"school"`
	TotalPages  *int    `json:"totalPages"`
	CurrentPage *int    `json:"currentPage"`
}

// ProgressResult is what a page update produced.
type ProgressResult struct {
	Item         models.ReadingItem
	PreviousPage int
	PagesRead    int
}

// UpsertOnProgress finds or creates the item, then records newCurrentPage.
// pagesRead is never negative; going backwards logs zero pages.
func UpsertOnProgress(ctx context.Context, q sqlx.ExtContext, userID string, in ProgressInput, now time.Time) (ProgressResult, error) {
	title, author, err := normalizeKey(in.Title, in.Author)
	if err != nil {
		return ProgressResult{}, err
	}
	if in.NewCurrentPage < 0 {
		return ProgressResult{}, apperr.Validation("currentPageAfter must not be negative")
	}

	it, found, err := FindByKey(ctx, q, userID, title, author)
	if err != nil {
		return ProgressResult{}, err
	}
	if !found {
		it = models.ReadingItem{
			UserID: userID,
			Title:  title,
			Author: author,
			Topic:  in.Topic,
			School: in.School,
		}
		if in.TotalPages != nil && *in.TotalPages > 0 {
			it.TotalPages = *in.TotalPages
		}
		if err := Create(ctx, q, &it, now); err != nil {
			return ProgressResult{}, err
		}
	}

	prev := it.CurrentPage
	it.CurrentPage = in.NewCurrentPage
	if in.TotalPages != nil && *in.TotalPages > 0 {
		it.TotalPages = *in.TotalPages
	}
	if err := UpdateCAS(ctx, q, &it, now); err != nil {
		return ProgressResult{}, err
	}
	return ProgressResult{Item: it, PreviousPage: prev, PagesRead: max(0, in.NewCurrentPage-prev)}, nil
}

// CreateOrUpdateDirect creates the item when absent, otherwise overwrites
// only the supplied fields. No progress is logged.
func CreateOrUpdateDirect(ctx context.Context, q sqlx.ExtContext, userID string, in ItemInput, now time.Time) (models.ReadingItem, error) {
	title, author, err := normalizeKey(in.Title, in.Author)
	if err != nil {
		return models.ReadingItem{}, err
	}
	if err := checkPages(in.TotalPages, in.CurrentPage); err != nil {
		return models.ReadingItem{}, err
	}

	it, found, err := FindByKey(ctx, q, userID, title, author)
	if err != nil {
		return models.ReadingItem{}, err
	}
	if !found {
		it = models.ReadingItem{UserID: userID, Title: title, Author: author}
		applyPatch(&it, ItemPatch{Topic: in.Topic, School: in.School, TotalPages: in.TotalPages, CurrentPage: in.CurrentPage})
		if err := Create(ctx, q, &it, now); err != nil {
			return models.ReadingItem{}, err
		}
		return it, nil
	}

	applyPatch(&it, ItemPatch{Topic: in.Topic, School: in.School, TotalPages: in.TotalPages, CurrentPage: in.CurrentPage})
	if err := UpdateCAS(ctx, q, &it, now); err != nil {
		return models.ReadingItem{}, err
	}
	return it, nil
}

// UpdateByID applies a partial update to an existing item.
func UpdateByID(ctx context.Context, q sqlx.ExtContext, userID, id string, p ItemPatch, now time.Time) (models.ReadingItem, error) {
	if err := checkPages(p.TotalPages, p.CurrentPage); err != nil {
		return models.ReadingItem{}, err
	}
	it, err := GetByID(ctx, q, userID, id)
	if err != nil {
		return models.ReadingItem{}, err
	}
	applyPatch(&it, p)
	if err := UpdateCAS(ctx, q, &it, now); err != nil {
		return models.ReadingItem{}, err
	}
	return it, nil
}

// WithRetry runs fn in a fresh transaction, retrying when it reports
// ErrStale. After MaxAttempts the failure becomes a Conflict.
func WithRetry(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	for attempt := 1; ; attempt++ {
		err := database.WithTx(ctx, db, fn)
		if !errors.Is(err, ErrStale) {
			return err
		}
		if attempt >= MaxAttempts {
			return apperr.Conflict("Reading item was modified concurrently, please retry")
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func applyPatch(it *models.ReadingItem, p ItemPatch) {
	if p.Topic != nil {
		it.Topic = *p.Topic
	}
	if p.School != nil {
		it.School = *p.School
	}
	if p.TotalPages != nil {
		it.TotalPages = *p.TotalPages
	}
	if p.CurrentPage != nil {
		it.CurrentPage = *p.CurrentPage
	}
}

func checkPages(total, current *int) error {
	if total != nil && *total < 0 {
		return apperr.Validation("totalPages must not be negative")
	}
	if current != nil && *current < 0 {
		return apperr.Validation("currentPage must not be negative")
	}
	return nil
}
