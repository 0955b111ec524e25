package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"readinghub/pkg/models"
)

// SeedItems bulk-inserts reading items for one user. Items whose
// (title, author) already exist for that user are left untouched.
func SeedItems(ctx context.Context, db *sqlx.DB, userID string, items []models.ReadingItem, now time.Time) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, tx.Rebind(`
		INSERT INTO reading_items (id, user_id, title, author, topic, school, total_pages, current_page, revision, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT (user_id, title, author) DO NOTHING;
	`))
	if err != nil {
		return 0, fmt.Errorf("prepare insert reading item: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		res, err := stmt.ExecContext(ctx, uuid.NewString(), userID, title, it.Author, it.Topic, it.School,
			max(it.TotalPages, 0), max(it.CurrentPage, 0), now, now)
		if err != nil {
			return 0, fmt.Errorf("insert reading item %q: %w", title, err)
		}

		aff, _ := res.RowsAffected()
		if aff > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return inserted, nil
}
