package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// nutritionStore is the persistence boundary used by the handlers. Lookups
// of a single missing row return pgx.ErrNoRows.
type nutritionStore interface {
	userByUsername(ctx context.Context, username string) (user, error)
	userIDForToken(ctx context.Context, token string) (int, error)

	getProfile(ctx context.Context, userID int) (userProfile, error)
	getGoals(ctx context.Context, userID int) (nutritionGoals, error)
	// saveProfileAndGoals writes both rows atomically; last write wins.
	saveProfileAndGoals(ctx context.Context, p userProfile, g nutritionGoals) (userProfile, nutritionGoals, error)

	listMeals(ctx context.Context, userID int, start, end DateOnly) ([]mealLogEntry, error)
	createMeal(ctx context.Context, m mealLogEntry) (mealLogEntry, error)
	updateMeal(ctx context.Context, userID, id int, req updateMealRequest) (mealLogEntry, error)
	deleteMeal(ctx context.Context, userID, id int) (bool, error)

	listWater(ctx context.Context, userID int, start, end DateOnly) ([]waterIntake, error)
	setWater(ctx context.Context, userID int, date DateOnly, amountMl float64) (waterIntake, error)
	addWater(ctx context.Context, userID int, date DateOnly, amountMl float64) (waterIntake, error)

	listWeights(ctx context.Context, userID int, start, end DateOnly) ([]weightEntry, error)
	upsertWeight(ctx context.Context, userID int, date DateOnly, weightKG float64) (weightEntry, error)
	updateWeight(ctx context.Context, userID, id int, date *string, weightKG *float64) (weightEntry, error)
	deleteWeight(ctx context.Context, userID, id int) (bool, error)
	latestWeight(ctx context.Context, userID int) (weightEntry, error)
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Logs query and scan errors for debugging (e.g. struct/column mismatches).
func queryOne[T any](q querier, ctx context.Context, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := q.Query(ctx, sql, args)
	if err != nil {
		log.Printf("[queryOne] Query error: %v", err)
		var zero T
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("[queryOne] Scan error: %v", err)
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
func queryMany[T any](q querier, ctx context.Context, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := q.Query(ctx, sql, args)
	if err != nil {
		log.Printf("[queryMany] Query error: %v", err)
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		log.Printf("[queryMany] Scan error: %v", err)
	}
	return results, err
}

/* ─── Postgres implementation ─────────────────────────────────────────── */

// pgStore implements nutritionStore on a pgx connection pool.
type pgStore struct {
	pool *pgxpool.Pool
}

// newPGPool creates a connection pool. We use a pool (not a single conn) because
// Neon closes idle connections after ~5 minutes.
func newPGPool(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse DB URL: %w", err)
	}
	// Use simple query protocol to avoid "cached plan must not change result type"
	// errors from Neon's server-side prepared statement cache after schema changes.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	config.MaxConnIdleTime = 4 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pool, nil
}

func (s *pgStore) userByUsername(ctx context.Context, username string) (user, error) {
	return queryOne[user](s.pool, ctx,
		"SELECT * FROM users WHERE username = @username",
		pgx.NamedArgs{"username": username})
}

func (s *pgStore) userIDForToken(ctx context.Context, token string) (int, error) {
	var userID int
	err := s.pool.QueryRow(ctx, "SELECT id FROM users WHERE auth_token = $1", token).Scan(&userID)
	return userID, err
}

func (s *pgStore) getProfile(ctx context.Context, userID int) (userProfile, error) {
	return queryOne[userProfile](s.pool, ctx,
		"SELECT * FROM user_profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
}

func (s *pgStore) getGoals(ctx context.Context, userID int) (nutritionGoals, error) {
	return queryOne[nutritionGoals](s.pool, ctx,
		"SELECT * FROM nutrition_goals WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
}

func (s *pgStore) saveProfileAndGoals(ctx context.Context, p userProfile, g nutritionGoals) (userProfile, nutritionGoals, error) {
	var savedProfile userProfile
	var savedGoals nutritionGoals
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		savedProfile, err = queryOne[userProfile](tx, ctx,
			`INSERT INTO user_profiles (user_id, age, sex, height_cm, weight_kg, activity_level, goal_type)
			 VALUES (@userID, @age, @sex, @heightCM, @weightKG, @activityLevel, @goalType)
			 ON CONFLICT (user_id) DO UPDATE SET
				age = EXCLUDED.age,
				sex = EXCLUDED.sex,
				height_cm = EXCLUDED.height_cm,
				weight_kg = EXCLUDED.weight_kg,
				activity_level = EXCLUDED.activity_level,
				goal_type = EXCLUDED.goal_type,
				updated_at = now()
			 RETURNING *`,
			pgx.NamedArgs{
				"userID": p.UserID, "age": p.Age, "sex": p.Sex,
				"heightCM": p.HeightCM, "weightKG": p.WeightKG,
				"activityLevel": p.ActivityLevel, "goalType": p.GoalType,
			})
		if err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		savedGoals, err = queryOne[nutritionGoals](tx, ctx,
			`INSERT INTO nutrition_goals (user_id, daily_calories, daily_protein, daily_carbs, daily_fat)
			 VALUES (@userID, @calories, @protein, @carbs, @fat)
			 ON CONFLICT (user_id) DO UPDATE SET
				daily_calories = EXCLUDED.daily_calories,
				daily_protein = EXCLUDED.daily_protein,
				daily_carbs = EXCLUDED.daily_carbs,
				daily_fat = EXCLUDED.daily_fat,
				updated_at = now()
			 RETURNING *`,
			pgx.NamedArgs{
				"userID": p.UserID, "calories": g.DailyCalories,
				"protein": g.DailyProtein, "carbs": g.DailyCarbs, "fat": g.DailyFat,
			})
		if err != nil {
			return fmt.Errorf("save goals: %w", err)
		}
		return nil
	})
	return savedProfile, savedGoals, err
}

func (s *pgStore) listMeals(ctx context.Context, userID int, start, end DateOnly) ([]mealLogEntry, error) {
	return queryMany[mealLogEntry](s.pool, ctx,
		`SELECT * FROM meal_logs
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date, created_at`,
		pgx.NamedArgs{"userID": userID, "start": start.Format("2006-01-02"), "end": end.Format("2006-01-02")})
}

func (s *pgStore) createMeal(ctx context.Context, m mealLogEntry) (mealLogEntry, error) {
	return queryOne[mealLogEntry](s.pool, ctx,
		`INSERT INTO meal_logs (user_id, date, meal_type, name, servings, calories, protein, carbs, fat)
		 VALUES (@userID, @date, @mealType, @name, @servings, @calories, @protein, @carbs, @fat)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": m.UserID, "date": m.Date.Format("2006-01-02"), "mealType": m.MealType,
			"name": m.Name, "servings": m.Servings, "calories": m.Calories,
			"protein": m.Protein, "carbs": m.Carbs, "fat": m.Fat,
		})
}

// updateMeal uses COALESCE so omitted fields keep their current value.
func (s *pgStore) updateMeal(ctx context.Context, userID, id int, req updateMealRequest) (mealLogEntry, error) {
	return queryOne[mealLogEntry](s.pool, ctx,
		`UPDATE meal_logs SET
			date = COALESCE(@date, date),
			meal_type = COALESCE(@mealType, meal_type),
			name = COALESCE(@name, name),
			servings = COALESCE(@servings, servings),
			calories = COALESCE(@calories, calories),
			protein = COALESCE(@protein, protein),
			carbs = COALESCE(@carbs, carbs),
			fat = COALESCE(@fat, fat),
			updated_at = now()
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{
			"id": id, "userID": userID,
			"date": req.Date, "mealType": req.MealType, "name": req.Name,
			"servings": req.Servings, "calories": req.Calories,
			"protein": req.Protein, "carbs": req.Carbs, "fat": req.Fat,
		})
}

func (s *pgStore) deleteMeal(ctx context.Context, userID, id int) (bool, error) {
	result, err := s.pool.Exec(ctx,
		"DELETE FROM meal_logs WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (s *pgStore) listWater(ctx context.Context, userID int, start, end DateOnly) ([]waterIntake, error) {
	return queryMany[waterIntake](s.pool, ctx,
		`SELECT * FROM water_intake
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date`,
		pgx.NamedArgs{"userID": userID, "start": start.Format("2006-01-02"), "end": end.Format("2006-01-02")})
}

func (s *pgStore) setWater(ctx context.Context, userID int, date DateOnly, amountMl float64) (waterIntake, error) {
	return queryOne[waterIntake](s.pool, ctx,
		`INSERT INTO water_intake (user_id, date, amount_ml)
		 VALUES (@userID, @date, @amount)
		 ON CONFLICT (user_id, date) DO UPDATE SET amount_ml = EXCLUDED.amount_ml
		 RETURNING *`,
		pgx.NamedArgs{"userID": userID, "date": date.Format("2006-01-02"), "amount": amountMl})
}

func (s *pgStore) addWater(ctx context.Context, userID int, date DateOnly, amountMl float64) (waterIntake, error) {
	return queryOne[waterIntake](s.pool, ctx,
		`INSERT INTO water_intake (user_id, date, amount_ml)
		 VALUES (@userID, @date, @amount)
		 ON CONFLICT (user_id, date) DO UPDATE SET amount_ml = water_intake.amount_ml + EXCLUDED.amount_ml
		 RETURNING *`,
		pgx.NamedArgs{"userID": userID, "date": date.Format("2006-01-02"), "amount": amountMl})
}

func (s *pgStore) listWeights(ctx context.Context, userID int, start, end DateOnly) ([]weightEntry, error) {
	return queryMany[weightEntry](s.pool, ctx,
		`SELECT * FROM weight_log
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": start.Format("2006-01-02"), "end": end.Format("2006-01-02")})
}

// upsertWeight relies on UNIQUE(user_id, date): posting the same date updates in place.
func (s *pgStore) upsertWeight(ctx context.Context, userID int, date DateOnly, weightKG float64) (weightEntry, error) {
	return queryOne[weightEntry](s.pool, ctx,
		`INSERT INTO weight_log (user_id, date, weight_kg)
		 VALUES (@userID, @date, @weightKG)
		 ON CONFLICT (user_id, date) DO UPDATE SET weight_kg = EXCLUDED.weight_kg
		 RETURNING *`,
		pgx.NamedArgs{"userID": userID, "date": date.Format("2006-01-02"), "weightKG": weightKG})
}

func (s *pgStore) updateWeight(ctx context.Context, userID, id int, date *string, weightKG *float64) (weightEntry, error) {
	return queryOne[weightEntry](s.pool, ctx,
		`UPDATE weight_log SET
			date      = COALESCE(@date, date),
			weight_kg = COALESCE(@weightKG, weight_kg)
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{"id": id, "userID": userID, "date": date, "weightKG": weightKG})
}

func (s *pgStore) deleteWeight(ctx context.Context, userID, id int) (bool, error) {
	result, err := s.pool.Exec(ctx,
		"DELETE FROM weight_log WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (s *pgStore) latestWeight(ctx context.Context, userID int) (weightEntry, error) {
	return queryOne[weightEntry](s.pool, ctx,
		"SELECT * FROM weight_log WHERE user_id = @userID ORDER BY date DESC LIMIT 1",
		pgx.NamedArgs{"userID": userID})
}
