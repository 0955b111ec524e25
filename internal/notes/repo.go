package notes

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"readinghub/internal/apperr"
	"readinghub/pkg/models"
)

var validate = validator.New()

// Input is a note create or partial update. Nil fields are not touched on
// update.
type Input struct {
	BookTitle *string `json:"bookTitle"`
	Author    *string `json:"author"`
	Note      *string `json:"note"`
	Tags      *Tags   `json:"tags"`
}

type newNote struct {
	BookTitle string `validate:"required"`
	Note      string `validate:"required"`
}

type noteRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	BookTitle string    `db:"book_title"`
	Author    string    `db:"author"`
	Note      string    `db:"note"`
	Tags      Tags      `db:"tags"`
	Date      time.Time `db:"date"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r noteRow) toModel() models.Note {
	return models.Note{
		ID:        r.ID,
		UserID:    r.UserID,
		BookTitle: r.BookTitle,
		Author:    r.Author,
		Note:      r.Note,
		Tags:      []string(r.Tags),
		Date:      r.Date,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const noteColumns = `id, user_id, book_title, author, note, tags, date, created_at, updated_at`

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func Create(ctx context.Context, q sqlx.ExtContext, userID string, in Input, now time.Time) (models.Note, error) {
	if err := validate.Struct(newNote{BookTitle: deref(in.BookTitle), Note: deref(in.Note)}); err != nil {
		return models.Note{}, apperr.Validation("Book title and note content are required")
	}
	r := noteRow{
		ID:        uuid.NewString(),
		UserID:    userID,
		BookTitle: deref(in.BookTitle),
		Author:    deref(in.Author),
		Note:      *in.Note,
		Tags:      Tags{},
		Date:      now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Tags != nil {
		r.Tags = *in.Tags
	}
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO notes (`+noteColumns+`)
		VALUES (:id, :user_id, :book_title, :author, :note, :tags, :date, :created_at, :updated_at)`, r)
	if err != nil {
		return models.Note{}, apperr.Persistence("create note", err)
	}
	return r.toModel(), nil
}

// ListForUser returns the user's notes, most recently updated first.
func ListForUser(ctx context.Context, q sqlx.ExtContext, userID string) ([]models.Note, error) {
	var rows []noteRow
	err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(`SELECT `+noteColumns+` FROM notes
		WHERE user_id = ? ORDER BY updated_at DESC`), userID)
	if err != nil {
		return nil, apperr.Persistence("list notes", err)
	}
	out := make([]models.Note, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func get(ctx context.Context, q sqlx.ExtContext, userID, id string) (noteRow, error) {
	var r noteRow
	err := sqlx.GetContext(ctx, q, &r, q.Rebind(`SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?`), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return noteRow{}, apperr.NotFound("Note not found")
	}
	if err != nil {
		return noteRow{}, apperr.Persistence("load note", err)
	}
	return r, nil
}

func Update(ctx context.Context, q sqlx.ExtContext, userID, id string, in Input, now time.Time) (models.Note, error) {
	r, err := get(ctx, q, userID, id)
	if err != nil {
		return models.Note{}, err
	}
	if in.BookTitle != nil {
		if deref(in.BookTitle) == "" {
			return models.Note{}, apperr.Validation("Book title must not be empty")
		}
		r.BookTitle = deref(in.BookTitle)
	}
	if in.Author != nil {
		r.Author = deref(in.Author)
	}
	if in.Note != nil {
		r.Note = *in.Note
	}
	if in.Tags != nil {
		r.Tags = *in.Tags
	}
	r.UpdatedAt = now

	_, err = sqlx.NamedExecContext(ctx, q, `UPDATE notes
		SET book_title = :book_title, author = :author, note = :note, tags = :tags, updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id`, r)
	if err != nil {
		return models.Note{}, apperr.Persistence("update note", err)
	}
	return r.toModel(), nil
}

func Delete(ctx context.Context, q sqlx.ExtContext, userID, id string) error {
	res, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM notes WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return apperr.Persistence("delete note", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("Note not found")
	}
	return nil
}
