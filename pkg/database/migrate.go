package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Statements are kept to the subset both sqlite and postgres accept.
func Migrate(db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			timezone TEXT,
			daily_page_goal INTEGER,
			daily_minutes_goal INTEGER,
			streak_days INTEGER,
			last_active_date TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS reading_items (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			topic TEXT NOT NULL DEFAULT '',
			school TEXT NOT NULL DEFAULT '',
			total_pages INTEGER NOT NULL DEFAULT 0,
			current_page INTEGER NOT NULL DEFAULT 0,
			revision BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (user_id, title, author)
		);`,
		`CREATE TABLE IF NOT EXISTS reading_logs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			reading_item_id TEXT NOT NULL REFERENCES reading_items(id) ON DELETE CASCADE,
			date TEXT NOT NULL, -- local calendar day, YYYY-MM-DD
			pages_read INTEGER NOT NULL,
			current_page_after INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reading_logs_user_date ON reading_logs (user_id, date);`,
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			book_title TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			note TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]', -- JSON array as text
			date TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_user ON notes (user_id);`,
	}

	for i, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("migrate stmt %d: %w", i, err)
		}
	}
	return nil
}
