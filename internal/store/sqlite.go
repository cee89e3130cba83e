package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"lg/calorie-budget-api/internal/model"
)

// SQLite is the on-device local Store backed by a single database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations. ":memory:" gives a throwaway database.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := applySQLiteMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

/* ─── Users ──────────────────────────────────────────────────────────── */

func (s *SQLite) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users(id, username, email, auth_token, password, created_at)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  username=excluded.username,
  email=excluded.email,
  auth_token=excluded.auth_token,
  password=excluded.password
`, u.ID, u.Username, u.Email, u.AuthToken, u.Password, formatTime(u.CreatedAt))
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *SQLite) UserByUsername(ctx context.Context, username string) (model.User, error) {
	return s.queryUser(ctx, `username = ?`, username)
}

func (s *SQLite) UserByToken(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrNotFound
	}
	return s.queryUser(ctx, `auth_token = ?`, token)
}

func (s *SQLite) queryUser(ctx context.Context, where string, arg any) (model.User, error) {
	var u model.User
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, auth_token, password, created_at FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.AuthToken, &u.Password, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("query user: %w", err)
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}

/* ─── Profiles ───────────────────────────────────────────────────────── */

func (s *SQLite) SaveProfile(ctx context.Context, p model.Profile) (model.Profile, error) {
	barriers, err := json.Marshal(nonNil(p.Barriers))
	if err != nil {
		return model.Profile{}, fmt.Errorf("encode barriers: %w", err)
	}
	desires, err := json.Marshal(nonNil(p.Desires))
	if err != nil {
		return model.Profile{}, fmt.Errorf("encode desires: %w", err)
	}
	var birth *string
	if p.BirthDate != nil {
		b := p.BirthDate.String()
		birth = &b
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO profiles(
  user_id, id, sex, height_cm, weight_kg, birth_date, workouts_per_week,
  tried_other_apps, has_trainer, referral_source, diet_type, barriers, desires,
  goal, target_weight_kg, weekly_rate_kg, bmr, tdee, daily_calories,
  completed_onboarding, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
  id=excluded.id,
  sex=excluded.sex,
  height_cm=excluded.height_cm,
  weight_kg=excluded.weight_kg,
  birth_date=excluded.birth_date,
  workouts_per_week=excluded.workouts_per_week,
  tried_other_apps=excluded.tried_other_apps,
  has_trainer=excluded.has_trainer,
  referral_source=excluded.referral_source,
  diet_type=excluded.diet_type,
  barriers=excluded.barriers,
  desires=excluded.desires,
  goal=excluded.goal,
  target_weight_kg=excluded.target_weight_kg,
  weekly_rate_kg=excluded.weekly_rate_kg,
  bmr=excluded.bmr,
  tdee=excluded.tdee,
  daily_calories=excluded.daily_calories,
  completed_onboarding=excluded.completed_onboarding,
  created_at=excluded.created_at
`, p.UserID, p.ID, string(p.Sex), p.HeightCM, p.WeightKG, birth, string(p.WorkoutsPerWeek),
		p.TriedOtherApps, p.HasTrainer, p.ReferralSource, p.DietType, string(barriers), string(desires),
		string(p.Goal), p.TargetWeightKG, p.WeeklyRateKG, p.BMR, p.TDEE, p.DailyCalories,
		p.CompletedOnboarding, formatTime(p.CreatedAt))
	if err != nil {
		return model.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

func (s *SQLite) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	var (
		p                          model.Profile
		sex, bucket, goal          string
		birth                      sql.NullString
		tried, trainer             sql.NullBool
		target                     sql.NullFloat64
		bmr, tdee, daily           sql.NullInt64
		barriers, desires, created string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, user_id, sex, height_cm, weight_kg, birth_date, workouts_per_week,
  tried_other_apps, has_trainer, referral_source, diet_type, barriers, desires,
  goal, target_weight_kg, weekly_rate_kg, bmr, tdee, daily_calories,
  completed_onboarding, created_at
FROM profiles WHERE user_id = ?`, userID).Scan(
		&p.ID, &p.UserID, &sex, &p.HeightCM, &p.WeightKG, &birth, &bucket,
		&tried, &trainer, &p.ReferralSource, &p.DietType, &barriers, &desires,
		&goal, &target, &p.WeeklyRateKG, &bmr, &tdee, &daily,
		&p.CompletedOnboarding, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("get profile for %s: %w", userID, err)
	}

	p.Sex, p.WorkoutsPerWeek, p.Goal = model.Sex(sex), model.ActivityBucket(bucket), model.Goal(goal)
	if birth.Valid {
		d, err := model.ParseDate(birth.String)
		if err != nil {
			return model.Profile{}, fmt.Errorf("profile birth date: %w", err)
		}
		p.BirthDate = &d
	}
	if tried.Valid {
		p.TriedOtherApps = &tried.Bool
	}
	if trainer.Valid {
		p.HasTrainer = &trainer.Bool
	}
	if target.Valid {
		p.TargetWeightKG = &target.Float64
	}
	p.BMR, p.TDEE, p.DailyCalories = intPtr(bmr), intPtr(tdee), intPtr(daily)
	if err := json.Unmarshal([]byte(barriers), &p.Barriers); err != nil {
		return model.Profile{}, fmt.Errorf("decode barriers: %w", err)
	}
	if err := json.Unmarshal([]byte(desires), &p.Desires); err != nil {
		return model.Profile{}, fmt.Errorf("decode desires: %w", err)
	}
	p.CreatedAt = parseTime(created)
	return p, nil
}

/* ─── Food entries ───────────────────────────────────────────────────── */

func (s *SQLite) SaveEntry(ctx context.Context, e model.FoodEntry) (model.FoodEntry, error) {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO food_entries(id, user_id, date, meal_type, food_name, calories, protein_g, carbs_g, fat_g, image_url, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, e.ID, e.UserID, e.Date.String(), string(e.MealType), e.FoodName, e.Calories,
		e.ProteinG, e.CarbsG, e.FatG, e.ImageURL, formatTime(e.CreatedAt))
	if err != nil {
		return model.FoodEntry{}, fmt.Errorf("save entry: %w", err)
	}
	return e, nil
}

func (s *SQLite) DeleteEntry(ctx context.Context, userID, entryID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM food_entries WHERE id = ? AND user_id = ?`, entryID, userID)
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", entryID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", entryID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) EntriesByDate(ctx context.Context, userID string, date model.Date) ([]model.FoodEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, date, meal_type, food_name, calories, protein_g, carbs_g, fat_g, image_url, created_at
FROM food_entries
WHERE user_id = ? AND date = ?
ORDER BY created_at, rowid
`, userID, date.String())
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	out := []model.FoodEntry{}
	for rows.Next() {
		var (
			e                   model.FoodEntry
			d, meal, created    string
			protein, carbs, fat sql.NullFloat64
			image               sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &d, &meal, &e.FoodName, &e.Calories,
			&protein, &carbs, &fat, &image, &created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.Date, err = model.ParseDate(d); err != nil {
			return nil, err
		}
		e.MealType = model.MealType(meal)
		e.ProteinG, e.CarbsG, e.FatG = floatPtr(protein), floatPtr(carbs), floatPtr(fat)
		if image.Valid {
			e.ImageURL = &image.String
		}
		e.CreatedAt = parseTime(created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

/* ─── Daily progress ─────────────────────────────────────────────────── */

func (s *SQLite) SaveDailyProgress(ctx context.Context, p model.DailyProgress) (model.DailyProgress, error) {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO daily_progress(user_id, date, total_calories, target_calories, protein_g, carbs_g, fat_g, weight_kg)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id, date) DO UPDATE SET
  total_calories=excluded.total_calories,
  target_calories=excluded.target_calories,
  protein_g=excluded.protein_g,
  carbs_g=excluded.carbs_g,
  fat_g=excluded.fat_g,
  weight_kg=excluded.weight_kg
`, p.UserID, p.Date.String(), p.TotalCalories, p.TargetCalories, p.ProteinG, p.CarbsG, p.FatG, p.WeightKG)
	if err != nil {
		return model.DailyProgress{}, fmt.Errorf("save daily progress: %w", err)
	}
	return p, nil
}

const progressColumns = `user_id, date, total_calories, target_calories, protein_g, carbs_g, fat_g, weight_kg`

func (s *SQLite) GetDailyProgress(ctx context.Context, userID string, date model.Date) (model.DailyProgress, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM daily_progress WHERE user_id = ? AND date = ?`, userID, date.String())
	p, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DailyProgress{}, ErrNotFound
	}
	return p, err
}

func (s *SQLite) DailyProgressRange(ctx context.Context, userID string, start, end model.Date) ([]model.DailyProgress, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+progressColumns+`
FROM daily_progress
WHERE user_id = ? AND date >= ? AND date <= ?
ORDER BY date ASC`, userID, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("list daily progress: %w", err)
	}
	defer rows.Close()

	out := []model.DailyProgress{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily progress: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgress(r rowScanner) (model.DailyProgress, error) {
	var (
		p      model.DailyProgress
		d      string
		weight sql.NullFloat64
	)
	if err := r.Scan(&p.UserID, &d, &p.TotalCalories, &p.TargetCalories, &p.ProteinG, &p.CarbsG, &p.FatG, &weight); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scan daily progress: %w", err)
	}
	date, err := model.ParseDate(d)
	if err != nil {
		return p, err
	}
	p.Date = date
	p.WeightKG = floatPtr(weight)
	return p, nil
}

/* ─── helpers ────────────────────────────────────────────────────────── */

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
