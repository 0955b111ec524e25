package library

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"readinghub/internal/apperr"
	"readinghub/pkg/database"
	"readinghub/pkg/models"
)

// ErrStale is returned when a compare-and-swap lost against a concurrent
// writer. Callers retry the whole read-compute-write with WithRetry.
var ErrStale = errors.New("library: stale revision")

const itemColumns = `id, user_id, title, author, topic, school, total_pages, current_page, revision, created_at, updated_at`

// FindByKey looks up the item for (user, title, author). The bool is false
// when no such item exists.
func FindByKey(ctx context.Context, q sqlx.ExtContext, userID, title, author string) (models.ReadingItem, bool, error) {
	var it models.ReadingItem
	err := sqlx.GetContext(ctx, q, &it, q.Rebind(`SELECT `+itemColumns+` FROM reading_items
		WHERE user_id = ? AND title = ? AND author = ?`), userID, title, author)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReadingItem{}, false, nil
	}
	if err != nil {
		return models.ReadingItem{}, false, apperr.Persistence("find reading item", err)
	}
	return it, true, nil
}

func GetByID(ctx context.Context, q sqlx.ExtContext, userID, id string) (models.ReadingItem, error) {
	var it models.ReadingItem
	err := sqlx.GetContext(ctx, q, &it, q.Rebind(`SELECT `+itemColumns+` FROM reading_items
		WHERE id = ? AND user_id = ?`), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReadingItem{}, apperr.NotFound("Reading item not found")
	}
	if err != nil {
		return models.ReadingItem{}, apperr.Persistence("load reading item", err)
	}
	return it, nil
}

// Create inserts a new item. A concurrent insert of the same key surfaces
// as ErrStale so the caller can re-read and continue on the winner's row.
func Create(ctx context.Context, q sqlx.ExtContext, it *models.ReadingItem, now time.Time) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.Revision = 0
	it.CreatedAt = now
	it.UpdatedAt = now
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO reading_items (`+itemColumns+`)
		VALUES (:id, :user_id, :title, :author, :topic, :school, :total_pages, :current_page, :revision, :created_at, :updated_at)`, it)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrStale
		}
		return apperr.Persistence("create reading item", err)
	}
	return nil
}

// UpdateCAS writes every mutable field of it, provided the stored revision
// still equals it.Revision. On success it.Revision is bumped.
func UpdateCAS(ctx context.Context, q sqlx.ExtContext, it *models.ReadingItem, now time.Time) error {
	res, err := q.ExecContext(ctx, q.Rebind(`UPDATE reading_items
		SET topic = ?, school = ?, total_pages = ?, current_page = ?, revision = revision + 1, updated_at = ?
		WHERE id = ? AND user_id = ? AND revision = ?`),
		it.Topic, it.School, it.TotalPages, it.CurrentPage, now, it.ID, it.UserID, it.Revision)
	if err != nil {
		return apperr.Persistence("update reading item", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStale
	}
	it.Revision++
	it.UpdatedAt = now
	return nil
}

// ListForUser returns the user's items, most recently updated first.
func ListForUser(ctx context.Context, q sqlx.ExtContext, userID string) ([]models.ReadingItem, error) {
	items := []models.ReadingItem{}
	err := sqlx.SelectContext(ctx, q, &items, q.Rebind(`SELECT `+itemColumns+` FROM reading_items
		WHERE user_id = ? ORDER BY updated_at DESC, created_at DESC`), userID)
	if err != nil {
		return nil, apperr.Persistence("list reading items", err)
	}
	return items, nil
}

// DeleteByID removes one item and its progress log.
func DeleteByID(ctx context.Context, q sqlx.ExtContext, userID, id string) error {
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM reading_logs WHERE reading_item_id = ? AND user_id = ?`), id, userID); err != nil {
		return apperr.Persistence("delete reading logs", err)
	}
	res, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM reading_items WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return apperr.Persistence("delete reading item", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("Reading item not found")
	}
	return nil
}

// DeleteAllForUser wipes everything the user owns: logs, notes and items.
func DeleteAllForUser(ctx context.Context, q sqlx.ExtContext, userID string) error {
	for _, table := range []string{"reading_logs", "notes", "reading_items"} {
		if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM `+table+` WHERE user_id = ?`), userID); err != nil {
			return apperr.Persistence("delete "+table, err)
		}
	}
	return nil
}

func normalizeKey(title, author string) (string, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", apperr.Validation("Title is required")
	}
	return title, strings.TrimSpace(author), nil
}
