package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"readinghub/internal/apperr"
	"readinghub/internal/clock"
	"readinghub/pkg/database"
	"readinghub/pkg/models"
)

var validate = validator.New()

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name"`
}

// SettingsPatch carries only the fields a client actually sent.
type SettingsPatch struct {
	Timezone         *string `json:"timezone"`
	DailyPageGoal    *int    `json:"dailyPageGoal"`
	DailyMinutesGoal *int    `json:"dailyMinutesGoal"`
}

type userRow struct {
	ID               string         `db:"id"`
	Email            string         `db:"email"`
	Name             string         `db:"name"`
	PasswordHash     string         `db:"password_hash"`
	Timezone         sql.NullString `db:"timezone"`
	DailyPageGoal    sql.NullInt64  `db:"daily_page_goal"`
	DailyMinutesGoal sql.NullInt64  `db:"daily_minutes_goal"`
	StreakDays       sql.NullInt64  `db:"streak_days"`
	LastActiveDate   sql.NullString `db:"last_active_date"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

const userColumns = `id, email, name, password_hash, timezone, daily_page_goal, daily_minutes_goal,
	streak_days, last_active_date, created_at, updated_at`

func (r userRow) toModel() models.User {
	s := models.Settings{
		Timezone:         r.Timezone.String,
		DailyPageGoal:    int(r.DailyPageGoal.Int64),
		DailyMinutesGoal: int(r.DailyMinutesGoal.Int64),
		StreakDays:       int(r.StreakDays.Int64),
	}
	if r.LastActiveDate.Valid {
		if d, err := clock.ParseDay(r.LastActiveDate.String, time.Local); err == nil {
			s.LastActiveDate = &d
		}
	}
	return models.User{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		Settings:     s.WithDefaults(),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func CreateUser(ctx context.Context, q sqlx.ExtContext, in Credentials, now time.Time) (models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Struct(in); err != nil {
		return models.User{}, apperr.Validation("Email and password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	u := models.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err = q.ExecContext(ctx, q.Rebind(`INSERT INTO users(id, email, name, password_hash, streak_days, created_at, updated_at)
		VALUES(?,?,?,?,1,?,?)`), u.ID, u.Email, u.Name, u.PasswordHash, now, now)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, apperr.Conflict("Email already registered")
		}
		return models.User{}, apperr.Persistence("create user", err)
	}
	u.Settings = models.Settings{StreakDays: 1}.WithDefaults()
	return u, nil
}

func VerifyLogin(ctx context.Context, q sqlx.ExtContext, email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return models.User{}, apperr.Validation("Email and password required")
	}
	var r userRow
	err := sqlx.GetContext(ctx, q, &r, q.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return models.User{}, apperr.Persistence("load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(r.PasswordHash), []byte(password)) != nil {
		return models.User{}, apperr.Unauthorized("Invalid email or password")
	}
	return r.toModel(), nil
}

func GetByEmail(ctx context.Context, q sqlx.ExtContext, email string) (models.User, error) {
	var r userRow
	err := sqlx.GetContext(ctx, q, &r, q.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return models.User{}, apperr.Persistence("load user", err)
	}
	return r.toModel(), nil
}

func GetByID(ctx context.Context, q sqlx.ExtContext, id string) (models.User, error) {
	var r userRow
	err := sqlx.GetContext(ctx, q, &r, q.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return models.User{}, apperr.Persistence("load user", err)
	}
	return r.toModel(), nil
}

func UpdateSettings(ctx context.Context, q sqlx.ExtContext, id string, p SettingsPatch, now time.Time) (models.Settings, error) {
	sets := []string{}
	args := []any{}
	if p.Timezone != nil {
		if _, err := time.LoadLocation(*p.Timezone); err != nil {
			return models.Settings{}, apperr.Validation("Unknown timezone")
		}
		sets = append(sets, "timezone = ?")
		args = append(args, *p.Timezone)
	}
	if p.DailyPageGoal != nil {
		if *p.DailyPageGoal < 0 {
			return models.Settings{}, apperr.Validation("dailyPageGoal must not be negative")
		}
		sets = append(sets, "daily_page_goal = ?")
		args = append(args, *p.DailyPageGoal)
	}
	if p.DailyMinutesGoal != nil {
		if *p.DailyMinutesGoal < 0 {
			return models.Settings{}, apperr.Validation("dailyMinutesGoal must not be negative")
		}
		sets = append(sets, "daily_minutes_goal = ?")
		args = append(args, *p.DailyMinutesGoal)
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, now, id)
		res, err := q.ExecContext(ctx, q.Rebind(`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
		if err != nil {
			return models.Settings{}, apperr.Persistence("update settings", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.Settings{}, apperr.NotFound("User not found")
		}
	}

	u, err := GetByID(ctx, q, id)
	if err != nil {
		return models.Settings{}, err
	}
	return u.Settings, nil
}

// SaveStreak persists the streak counter and the last active day.
func SaveStreak(ctx context.Context, q sqlx.ExtContext, id string, streakDays int, lastActive time.Time, now time.Time) error {
	res, err := q.ExecContext(ctx, q.Rebind(`UPDATE users SET streak_days = ?, last_active_date = ?, updated_at = ? WHERE id = ?`),
		streakDays, clock.DayKey(lastActive), now, id)
	if err != nil {
		return apperr.Persistence("save streak", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}

// ListWithPageGoal returns users that set a positive daily page goal.
func ListWithPageGoal(ctx context.Context, q sqlx.ExtContext) ([]models.User, error) {
	var rows []userRow
	err := sqlx.SelectContext(ctx, q, &rows, `SELECT `+userColumns+` FROM users WHERE daily_page_goal > 0`)
	if err != nil {
		return nil, apperr.Persistence("list users with goal", err)
	}
	out := make([]models.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func Delete(ctx context.Context, q sqlx.ExtContext, id string) error {
	res, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return apperr.Persistence("delete user", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}
