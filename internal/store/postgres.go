package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"lg/calorie-budget-api/internal/model"
)

// Postgres is the durable remote Store. Table columns match the model
// structs' db tags exactly so rows scan with RowToStructByName.
type Postgres struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// OpenPostgres creates a connection pool. A pool (not a single conn) survives
// providers that close idle connections.
func OpenPostgres(ctx context.Context, url string, log *zap.Logger) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse DB URL: %w", err)
	}
	// Simple protocol avoids "cached plan must not change result type" after
	// schema changes behind a server-side statement cache.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool, log: log}, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

/* ─── Query helpers ───────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// No rows maps to ErrNotFound; other failures are logged (struct/column
// mismatches show up here).
func queryOne[T any](ctx context.Context, p *Postgres, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := p.pool.Query(ctx, sql, args)
	if err != nil {
		p.log.Warn("[queryOne] query error", zap.Error(err))
		var zero T
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return result, ErrNotFound
	}
	if err != nil {
		p.log.Warn("[queryOne] scan error", zap.Error(err))
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T. An empty result is an
// empty slice, never nil.
func queryMany[T any](ctx context.Context, p *Postgres, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := p.pool.Query(ctx, sql, args)
	if err != nil {
		p.log.Warn("[queryMany] query error", zap.Error(err))
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		p.log.Warn("[queryMany] scan error", zap.Error(err))
		return nil, err
	}
	if results == nil {
		results = []T{}
	}
	return results, nil
}

/* ─── Users ───────────────────────────────────────────────────────────── */

func (p *Postgres) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	created, err := queryOne[model.User](ctx, p,
		`INSERT INTO users (id, username, email, auth_token, password)
		 VALUES (@id, @username, @email, @authToken, @password)
		 ON CONFLICT (id) DO UPDATE SET
		   username = EXCLUDED.username,
		   email = EXCLUDED.email,
		   auth_token = EXCLUDED.auth_token,
		   password = EXCLUDED.password
		 RETURNING *`,
		pgx.NamedArgs{
			"id":        u.ID,
			"username":  u.Username,
			"email":     u.Email,
			"authToken": u.AuthToken,
			"password":  u.Password,
		})
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (p *Postgres) UserByUsername(ctx context.Context, username string) (model.User, error) {
	return queryOne[model.User](ctx, p,
		"SELECT * FROM users WHERE username = @username",
		pgx.NamedArgs{"username": username})
}

func (p *Postgres) UserByToken(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrNotFound
	}
	return queryOne[model.User](ctx, p,
		"SELECT * FROM users WHERE auth_token = @token",
		pgx.NamedArgs{"token": token})
}

/* ─── Profiles ────────────────────────────────────────────────────────── */

func (p *Postgres) SaveProfile(ctx context.Context, prof model.Profile) (model.Profile, error) {
	args := pgx.NamedArgs{
		"id":                  prof.ID,
		"userID":              prof.UserID,
		"sex":                 string(prof.Sex),
		"heightCM":            prof.HeightCM,
		"weightKG":            prof.WeightKG,
		"birthDate":           prof.BirthDate,
		"workoutsPerWeek":     string(prof.WorkoutsPerWeek),
		"triedOtherApps":      prof.TriedOtherApps,
		"hasTrainer":          prof.HasTrainer,
		"referralSource":      prof.ReferralSource,
		"dietType":            prof.DietType,
		"barriers":            nonNil(prof.Barriers),
		"desires":             nonNil(prof.Desires),
		"goal":                string(prof.Goal),
		"targetWeightKG":      prof.TargetWeightKG,
		"weeklyRateKG":        prof.WeeklyRateKG,
		"bmr":                 prof.BMR,
		"tdee":                prof.TDEE,
		"dailyCalories":       prof.DailyCalories,
		"completedOnboarding": prof.CompletedOnboarding,
		"createdAt":           prof.CreatedAt,
	}
	saved, err := queryOne[model.Profile](ctx, p,
		`INSERT INTO profiles (
		   id, user_id, sex, height_cm, weight_kg, birth_date, workouts_per_week,
		   tried_other_apps, has_trainer, referral_source, diet_type, barriers, desires,
		   goal, target_weight_kg, weekly_rate_kg, bmr, tdee, daily_calories,
		   completed_onboarding, created_at)
		 VALUES (
		   @id, @userID, @sex, @heightCM, @weightKG, @birthDate, @workoutsPerWeek,
		   @triedOtherApps, @hasTrainer, @referralSource, @dietType, @barriers, @desires,
		   @goal, @targetWeightKG, @weeklyRateKG, @bmr, @tdee, @dailyCalories,
		   @completedOnboarding, @createdAt)
		 ON CONFLICT (user_id) DO UPDATE SET
		   id = EXCLUDED.id,
		   sex = EXCLUDED.sex,
		   height_cm = EXCLUDED.height_cm,
		   weight_kg = EXCLUDED.weight_kg,
		   birth_date = EXCLUDED.birth_date,
		   workouts_per_week = EXCLUDED.workouts_per_week,
		   tried_other_apps = EXCLUDED.tried_other_apps,
		   has_trainer = EXCLUDED.has_trainer,
		   referral_source = EXCLUDED.referral_source,
		   diet_type = EXCLUDED.diet_type,
		   barriers = EXCLUDED.barriers,
		   desires = EXCLUDED.desires,
		   goal = EXCLUDED.goal,
		   target_weight_kg = EXCLUDED.target_weight_kg,
		   weekly_rate_kg = EXCLUDED.weekly_rate_kg,
		   bmr = EXCLUDED.bmr,
		   tdee = EXCLUDED.tdee,
		   daily_calories = EXCLUDED.daily_calories,
		   completed_onboarding = EXCLUDED.completed_onboarding,
		   created_at = EXCLUDED.created_at
		 RETURNING *`, args)
	if err != nil {
		return model.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return saved, nil
}

func (p *Postgres) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	return queryOne[model.Profile](ctx, p,
		"SELECT * FROM profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
}

/* ─── Food entries ────────────────────────────────────────────────────── */

func (p *Postgres) SaveEntry(ctx context.Context, e model.FoodEntry) (model.FoodEntry, error) {
	saved, err := queryOne[model.FoodEntry](ctx, p,
		`INSERT INTO food_entries (id, user_id, date, meal_type, food_name, calories, protein_g, carbs_g, fat_g, image_url, created_at)
		 VALUES (@id, @userID, @date, @mealType, @foodName, @calories, @proteinG, @carbsG, @fatG, @imageURL, @createdAt)
		 RETURNING *`,
		pgx.NamedArgs{
			"id":        e.ID,
			"userID":    e.UserID,
			"date":      e.Date.String(),
			"mealType":  string(e.MealType),
			"foodName":  e.FoodName,
			"calories":  e.Calories,
			"proteinG":  e.ProteinG,
			"carbsG":    e.CarbsG,
			"fatG":      e.FatG,
			"imageURL":  e.ImageURL,
			"createdAt": e.CreatedAt,
		})
	if err != nil {
		return model.FoodEntry{}, fmt.Errorf("save entry: %w", err)
	}
	return saved, nil
}

func (p *Postgres) DeleteEntry(ctx context.Context, userID, entryID string) error {
	tag, err := p.pool.Exec(ctx,
		"DELETE FROM food_entries WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": entryID, "userID": userID})
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) EntriesByDate(ctx context.Context, userID string, date model.Date) ([]model.FoodEntry, error) {
	return queryMany[model.FoodEntry](ctx, p,
		`SELECT * FROM food_entries
		 WHERE user_id = @userID AND date = @date
		 ORDER BY created_at`,
		pgx.NamedArgs{"userID": userID, "date": date.String()})
}

/* ─── Daily progress ──────────────────────────────────────────────────── */

func (p *Postgres) SaveDailyProgress(ctx context.Context, dp model.DailyProgress) (model.DailyProgress, error) {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO daily_progress (user_id, date, total_calories, target_calories, protein_g, carbs_g, fat_g, weight_kg)
		 VALUES (@userID, @date, @total, @target, @proteinG, @carbsG, @fatG, @weightKG)
		 ON CONFLICT (user_id, date) DO UPDATE SET
		   total_calories = EXCLUDED.total_calories,
		   target_calories = EXCLUDED.target_calories,
		   protein_g = EXCLUDED.protein_g,
		   carbs_g = EXCLUDED.carbs_g,
		   fat_g = EXCLUDED.fat_g,
		   weight_kg = EXCLUDED.weight_kg`,
		pgx.NamedArgs{
			"userID":   dp.UserID,
			"date":     dp.Date.String(),
			"total":    dp.TotalCalories,
			"target":   dp.TargetCalories,
			"proteinG": dp.ProteinG,
			"carbsG":   dp.CarbsG,
			"fatG":     dp.FatG,
			"weightKG": dp.WeightKG,
		})
	if err != nil {
		return model.DailyProgress{}, fmt.Errorf("save daily progress: %w", err)
	}
	return dp, nil
}

func (p *Postgres) GetDailyProgress(ctx context.Context, userID string, date model.Date) (model.DailyProgress, error) {
	return queryOne[model.DailyProgress](ctx, p,
		"SELECT * FROM daily_progress WHERE user_id = @userID AND date = @date",
		pgx.NamedArgs{"userID": userID, "date": date.String()})
}

func (p *Postgres) DailyProgressRange(ctx context.Context, userID string, start, end model.Date) ([]model.DailyProgress, error) {
	return queryMany[model.DailyProgress](ctx, p,
		`SELECT * FROM daily_progress
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date`,
		pgx.NamedArgs{"userID": userID, "start": start.String(), "end": end.String()})
}
