package main

import (
	"time"
)

// Calorie percentage band in which a tracked day counts as on target.
const (
	onTargetMinPct = 90.0
	onTargetMaxPct = 110.0
)

// nutritionProgress compares one metric's consumption against its goal.
// Remaining goes negative on overshoot and Percentage is not capped at 100.
type nutritionProgress struct {
	Consumed   float64 `json:"consumed"`
	Goal       float64 `json:"goal"`
	Remaining  float64 `json:"remaining"`
	Percentage float64 `json:"percentage"`
}

// evaluateMetric builds the progress record for a single metric. A goal of
// zero or less yields a 0 percentage instead of NaN/Inf.
func evaluateMetric(goal, consumed float64) nutritionProgress {
	p := nutritionProgress{
		Consumed:  consumed,
		Goal:      goal,
		Remaining: goal - consumed,
	}
	if goal > 0 {
		p.Percentage = consumed / goal * 100
	}
	return p
}

// nutritionTotals is the summed intake over a set of meal entries.
type nutritionTotals struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
}

// sumMealTotals adds up each entry's per-serving values scaled by its servings.
func sumMealTotals(meals []mealLogEntry) nutritionTotals {
	var t nutritionTotals
	for _, m := range meals {
		t.Calories += m.Calories * m.Servings
		t.Protein += m.Protein * m.Servings
		t.Carbs += m.Carbs * m.Servings
		t.Fat += m.Fat * m.Servings
	}
	return t
}

// dailyNutritionStats is the response shape for GET /api/nutrition/daily.
// Derived on every read; never persisted.
type dailyNutritionStats struct {
	Date        DateOnly          `json:"date"`
	Calories    nutritionProgress `json:"calories"`
	Protein     nutritionProgress `json:"protein"`
	Carbs       nutritionProgress `json:"carbs"`
	Fat         nutritionProgress `json:"fat"`
	WaterIntake float64           `json:"waterIntake"`
	MealsLogged []mealLogEntry    `json:"mealsLogged"`
}

// evaluateDay compares a day's meal entries against goals. goals is nil when
// the user never configured any, which is reported as errGoalsNotConfigured.
func evaluateDay(date DateOnly, goals *nutritionGoals, meals []mealLogEntry, waterMl float64) (dailyNutritionStats, error) {
	if goals == nil {
		return dailyNutritionStats{}, errGoalsNotConfigured
	}
	if meals == nil {
		meals = []mealLogEntry{}
	}

	t := sumMealTotals(meals)
	return dailyNutritionStats{
		Date:        date,
		Calories:    evaluateMetric(float64(goals.DailyCalories), t.Calories),
		Protein:     evaluateMetric(float64(goals.DailyProtein), t.Protein),
		Carbs:       evaluateMetric(float64(goals.DailyCarbs), t.Carbs),
		Fat:         evaluateMetric(float64(goals.DailyFat), t.Fat),
		WaterIntake: waterMl,
		MealsLogged: meals,
	}, nil
}

/* ─── Weekly compliance ──────────────────────────────────────────────── */

// weekDayStats is one day in the weekly summary. Days with no meals have
// HasData=false and are excluded from compliance.
type weekDayStats struct {
	Date        DateOnly          `json:"date"`
	Calories    nutritionProgress `json:"calories"`
	Protein     nutritionProgress `json:"protein"`
	Carbs       nutritionProgress `json:"carbs"`
	Fat         nutritionProgress `json:"fat"`
	WaterIntake float64           `json:"waterIntake"`
	MealCount   int               `json:"mealCount"`
	HasData     bool              `json:"hasData"`
	OnTarget    bool              `json:"onTarget"`
}

// complianceStats aggregates the tracked days of a week.
type complianceStats struct {
	DaysTracked     int     `json:"daysTracked"`
	DaysOnTarget    int     `json:"daysOnTarget"`
	ComplianceScore float64 `json:"complianceScore"`
	AvgCalories     float64 `json:"avgCalories"`
	AvgProtein      float64 `json:"avgProtein"`
	AvgCarbs        float64 `json:"avgCarbs"`
	AvgFat          float64 `json:"avgFat"`
}

// weeklySummary is the response shape for GET /api/nutrition/weekly.
type weeklySummary struct {
	WeekStart DateOnly        `json:"weekStart"`
	Goals     nutritionGoals  `json:"goals"`
	Days      []weekDayStats  `json:"days"`
	Stats     complianceStats `json:"stats"`
}

// evaluateWeek builds the Mon-Sun summary starting at weekStart. meals may
// span the whole week; water is keyed by YYYY-MM-DD.
func evaluateWeek(weekStart time.Time, goals *nutritionGoals, meals []mealLogEntry, water map[string]float64) (weeklySummary, error) {
	if goals == nil {
		return weeklySummary{}, errGoalsNotConfigured
	}

	// Index meals by date string for O(1) merge.
	mealsByDate := make(map[string][]mealLogEntry)
	for _, m := range meals {
		key := m.Date.Time.Format("2006-01-02")
		mealsByDate[key] = append(mealsByDate[key], m)
	}

	summary := weeklySummary{
		WeekStart: DateOnly{weekStart},
		Goals:     *goals,
		Days:      make([]weekDayStats, 7),
	}
	var sum nutritionTotals
	for i := 0; i < 7; i++ {
		d := weekStart.AddDate(0, 0, i)
		key := d.Format("2006-01-02")
		dayMeals := mealsByDate[key]

		stats, _ := evaluateDay(DateOnly{d}, goals, dayMeals, water[key])
		day := weekDayStats{
			Date:        stats.Date,
			Calories:    stats.Calories,
			Protein:     stats.Protein,
			Carbs:       stats.Carbs,
			Fat:         stats.Fat,
			WaterIntake: stats.WaterIntake,
			MealCount:   len(dayMeals),
			HasData:     len(dayMeals) > 0,
		}
		if day.HasData {
			day.OnTarget = day.Calories.Percentage >= onTargetMinPct && day.Calories.Percentage <= onTargetMaxPct
			summary.Stats.DaysTracked++
			if day.OnTarget {
				summary.Stats.DaysOnTarget++
			}
			sum.Calories += day.Calories.Consumed
			sum.Protein += day.Protein.Consumed
			sum.Carbs += day.Carbs.Consumed
			sum.Fat += day.Fat.Consumed
		}
		summary.Days[i] = day
	}

	// Convert totals to averages.
	if n := float64(summary.Stats.DaysTracked); n > 0 {
		summary.Stats.ComplianceScore = float64(summary.Stats.DaysOnTarget) / n * 100
		summary.Stats.AvgCalories = sum.Calories / n
		summary.Stats.AvgProtein = sum.Protein / n
		summary.Stats.AvgCarbs = sum.Carbs / n
		summary.Stats.AvgFat = sum.Fat / n
	}
	return summary, nil
}

// currentMonday returns the Monday of the current week at midnight UTC.
// Uses AddDate to safely handle month/year boundaries.
func currentMonday() time.Time {
	return mondayOf(time.Now().UTC())
}

// mondayOf returns the Monday on or before t, truncated to midnight UTC.
func mondayOf(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday()) // 0=Sun
	if weekday == 0 {
		weekday = 7 // treat Sunday as day 7 so Mon=1..Sun=7
	}
	return t.AddDate(0, 0, -(weekday - 1)).Truncate(24 * time.Hour)
}
