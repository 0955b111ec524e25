package readinglog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"readinghub/internal/apperr"
	"readinghub/pkg/models"
)

const logColumns = `id, user_id, reading_item_id, date, pages_read, current_page_after, created_at, updated_at`

// Append always inserts; several entries may share a date.
func Append(ctx context.Context, q sqlx.ExtContext, item models.ReadingItem, date string, pagesRead, currentPageAfter int, now time.Time) (models.ReadingLog, error) {
	l := models.ReadingLog{
		ID:               uuid.NewString(),
		UserID:           item.UserID,
		ReadingItemID:    item.ID,
		Date:             date,
		PagesRead:        max(0, pagesRead),
		CurrentPageAfter: currentPageAfter,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO reading_logs (`+logColumns+`)
		VALUES (:id, :user_id, :reading_item_id, :date, :pages_read, :current_page_after, :created_at, :updated_at)`, l)
	if err != nil {
		return models.ReadingLog{}, apperr.Persistence("append reading log", err)
	}
	return l, nil
}

// ListForUser returns logs with from <= date <= to, oldest first. Empty
// bounds are open.
func ListForUser(ctx context.Context, q sqlx.ExtContext, userID, from, to string) ([]models.ReadingLog, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if from != "" {
		where = append(where, "date >= ?")
		args = append(args, from)
	}
	if to != "" {
		where = append(where, "date <= ?")
		args = append(args, to)
	}
	logs := []models.ReadingLog{}
	err := sqlx.SelectContext(ctx, q, &logs, q.Rebind(`SELECT `+logColumns+` FROM reading_logs
		WHERE `+strings.Join(where, " AND ")+` ORDER BY date ASC, created_at ASC`), args...)
	if err != nil {
		return nil, apperr.Persistence("list reading logs", err)
	}
	return logs, nil
}

func ListForDate(ctx context.Context, q sqlx.ExtContext, userID, date string) ([]models.ReadingLog, error) {
	return ListForUser(ctx, q, userID, date, date)
}

func ListForItem(ctx context.Context, q sqlx.ExtContext, userID, itemID string) ([]models.ReadingLog, error) {
	logs := []models.ReadingLog{}
	err := sqlx.SelectContext(ctx, q, &logs, q.Rebind(`SELECT `+logColumns+` FROM reading_logs
		WHERE user_id = ? AND reading_item_id = ? ORDER BY created_at ASC`), userID, itemID)
	if err != nil {
		return nil, apperr.Persistence("list item logs", err)
	}
	return logs, nil
}
