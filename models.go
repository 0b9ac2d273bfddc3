package main

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

// parseDateParam parses a YYYY-MM-DD value, defaulting to today (UTC) when empty.
func parseDateParam(s string) (DateOnly, error) {
	if s == "" {
		s = time.Now().UTC().Format("2006-01-02")
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return DateOnly{}, err
	}
	return DateOnly{t}, nil
}

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. AuthToken and Password are hidden from JSON responses.
type user struct {
	ID        int        `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Email     string     `json:"email" db:"email"`
	AuthToken string     `json:"-" db:"auth_token"`
	Password  string     `json:"-" db:"password"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// userProfile maps to user_profiles, one row per user. Every mutation is
// followed by a goal recalculation.
type userProfile struct {
	UserID        int        `json:"-"                   db:"user_id"`
	Age           int        `json:"age"                 db:"age"`
	Sex           string     `json:"sex"                 db:"sex"`
	HeightCM      float64    `json:"heightCm"            db:"height_cm"`
	WeightKG      float64    `json:"weightKg"            db:"weight_kg"`
	ActivityLevel string     `json:"activityLevel"       db:"activity_level"`
	GoalType      string     `json:"goalType"            db:"goal_type"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
}

// nutritionGoals maps to nutrition_goals. One active set per user,
// overwritten on recalculation.
type nutritionGoals struct {
	UserID        int        `json:"-"                   db:"user_id"`
	DailyCalories int        `json:"dailyCalories"       db:"daily_calories"`
	DailyProtein  int        `json:"dailyProtein"        db:"daily_protein"`
	DailyCarbs    int        `json:"dailyCarbs"          db:"daily_carbs"`
	DailyFat      int        `json:"dailyFat"            db:"daily_fat"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
}

// mealLogEntry maps to meal_logs. Nutrition values are per serving; the
// entry contributes Servings times each value to the day's totals.
type mealLogEntry struct {
	ID        int        `json:"id"                  db:"id"`
	UserID    int        `json:"-"                   db:"user_id"`
	Date      DateOnly   `json:"date"                db:"date"`
	MealType  string     `json:"mealType"            db:"meal_type"`
	Name      string     `json:"name"                db:"name"`
	Servings  float64    `json:"servings"            db:"servings"`
	Calories  float64    `json:"calories"            db:"calories"`
	Protein   float64    `json:"protein"             db:"protein"`
	Carbs     float64    `json:"carbs"               db:"carbs"`
	Fat       float64    `json:"fat"                 db:"fat"`
	CreatedAt *time.Time `json:"createdAt,omitempty" db:"created_at"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
}

// waterIntake maps to water_intake, one row per user per day.
type waterIntake struct {
	UserID   int      `json:"-"        db:"user_id"`
	Date     DateOnly `json:"date"     db:"date"`
	AmountMl float64  `json:"amountMl" db:"amount_ml"`
}

// weightEntry maps to weight_log. UNIQUE(user_id, date).
type weightEntry struct {
	ID        int        `json:"id"                  db:"id"`
	UserID    int        `json:"-"                   db:"user_id"`
	Date      DateOnly   `json:"date"                db:"date"`
	WeightKG  float64    `json:"weightKg"            db:"weight_kg"`
	CreatedAt *time.Time `json:"createdAt,omitempty" db:"created_at"`
}

/* ─── Request types ──────────────────────────────────────────────────── */

// profileRequest is the body for PUT/PATCH /api/profile and the goals preview.
// All fields are pointers so a missing field is distinguishable from zero.
type profileRequest struct {
	Age           *int     `json:"age"`
	Sex           *string  `json:"sex"`
	HeightCM      *float64 `json:"heightCm"`
	WeightKG      *float64 `json:"weightKg"`
	ActivityLevel *string  `json:"activityLevel"`
	GoalType      *string  `json:"goalType"`
}

// toProfile converts a full request into a profile, reporting the first
// missing field. Bounds are checked later by validateProfile.
func (r profileRequest) toProfile(userID int) (userProfile, error) {
	missing := func(field string) error {
		return &invalidProfileError{Field: field, Reason: "is required"}
	}
	switch {
	case r.Age == nil:
		return userProfile{}, missing("age")
	case r.Sex == nil:
		return userProfile{}, missing("sex")
	case r.HeightCM == nil:
		return userProfile{}, missing("heightCm")
	case r.WeightKG == nil:
		return userProfile{}, missing("weightKg")
	case r.ActivityLevel == nil:
		return userProfile{}, missing("activityLevel")
	case r.GoalType == nil:
		return userProfile{}, missing("goalType")
	}
	return userProfile{
		UserID:        userID,
		Age:           *r.Age,
		Sex:           *r.Sex,
		HeightCM:      *r.HeightCM,
		WeightKG:      *r.WeightKG,
		ActivityLevel: *r.ActivityLevel,
		GoalType:      *r.GoalType,
	}, nil
}

// mergeInto overwrites p with every non-nil field of r.
func (r profileRequest) mergeInto(p userProfile) userProfile {
	if r.Age != nil {
		p.Age = *r.Age
	}
	if r.Sex != nil {
		p.Sex = *r.Sex
	}
	if r.HeightCM != nil {
		p.HeightCM = *r.HeightCM
	}
	if r.WeightKG != nil {
		p.WeightKG = *r.WeightKG
	}
	if r.ActivityLevel != nil {
		p.ActivityLevel = *r.ActivityLevel
	}
	if r.GoalType != nil {
		p.GoalType = *r.GoalType
	}
	return p
}

// createMealRequest is the request body for POST /api/meals.
type createMealRequest struct {
	Date     string   `json:"date"`
	MealType string   `json:"mealType" binding:"required"`
	Name     string   `json:"name"     binding:"required"`
	Servings *float64 `json:"servings"`
	Calories float64  `json:"calories" binding:"gte=0"`
	Protein  float64  `json:"protein"  binding:"gte=0"`
	Carbs    float64  `json:"carbs"    binding:"gte=0"`
	Fat      float64  `json:"fat"      binding:"gte=0"`
}

// updateMealRequest is the request body for PUT /api/meals/:id. Only
// non-nil fields are written.
type updateMealRequest struct {
	Date     *string  `json:"date"`
	MealType *string  `json:"mealType"`
	Name     *string  `json:"name"     binding:"omitempty,min=1"`
	Servings *float64 `json:"servings" binding:"omitempty,gt=0"`
	Calories *float64 `json:"calories" binding:"omitempty,gte=0"`
	Protein  *float64 `json:"protein"  binding:"omitempty,gte=0"`
	Carbs    *float64 `json:"carbs"    binding:"omitempty,gte=0"`
	Fat      *float64 `json:"fat"      binding:"omitempty,gte=0"`
}

// waterRequest is the body for PUT/POST /api/nutrition/water.
type waterRequest struct {
	Date     string   `json:"date"`
	AmountMl *float64 `json:"amountMl" binding:"required"`
}
