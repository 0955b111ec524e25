package library

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"readinghub/internal/apperr"
	"readinghub/pkg/models"
)

// Filter narrows a user's items. Zero values match everything; Limit 0
// means no limit.
type Filter struct {
	Query  string // substring of title or author, case-insensitive
	Topic  string
	Status string // completed, reading or want-to-read
	Limit  int
	Offset int
}

// statusClauses mirror stats.Classify in SQL.
var statusClauses = map[string]string{
	"completed":    "total_pages > 0 AND current_page >= total_pages",
	"reading":      "current_page > 0 AND NOT (total_pages > 0 AND current_page >= total_pages)",
	"want-to-read": "current_page <= 0",
}

func Search(ctx context.Context, q sqlx.ExtContext, userID string, f Filter) ([]models.ReadingItem, error) {
	sqlQ := `SELECT ` + itemColumns + ` FROM reading_items WHERE user_id = ?`
	args := []any{userID}

	if s := strings.ToLower(strings.TrimSpace(f.Query)); s != "" {
		sqlQ += " AND (LOWER(title) LIKE ? OR LOWER(author) LIKE ?)"
		args = append(args, "%"+s+"%", "%"+s+"%")
	}
	if t := strings.TrimSpace(f.Topic); t != "" {
		sqlQ += " AND topic = ?"
		args = append(args, t)
	}
	if f.Status != "" {
		clause, ok := statusClauses[f.Status]
		if !ok {
			return nil, apperr.Validation("status must be completed, reading or want-to-read")
		}
		sqlQ += " AND " + clause
	}
	sqlQ += " ORDER BY updated_at DESC, created_at DESC"
	if f.Limit > 0 {
		sqlQ += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, max(f.Offset, 0))
	}

	items := []models.ReadingItem{}
	if err := sqlx.SelectContext(ctx, q, &items, q.Rebind(sqlQ), args...); err != nil {
		return nil, apperr.Persistence("search reading items", err)
	}
	return items, nil
}
