package main

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

func day(s string) DateOnly {
	t, _ := time.Parse("2006-01-02", s)
	return DateOnly{t}
}

func meal(date string, calories, protein, carbs, fat, servings float64) mealLogEntry {
	return mealLogEntry{
		Date:     day(date),
		MealType: "lunch",
		Name:     "test",
		Servings: servings,
		Calories: calories,
		Protein:  protein,
		Carbs:    carbs,
		Fat:      fat,
	}
}

/* ─── evaluateMetric ─────────────────────────────────────────────────── */

func TestEvaluateMetric(t *testing.T) {
	cases := []struct {
		name                  string
		goal, consumed        float64
		remaining, percentage float64
	}{
		{"half way", 2000, 1000, 1000, 50},
		{"overshoot not clamped", 2000, 2500, -500, 125},
		{"nothing consumed", 2000, 0, 2000, 0},
		{"exact", 150, 150, 0, 100},
		{"zero goal", 0, 100, -100, 0},
		{"negative goal", -10, 5, -15, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := evaluateMetric(tc.goal, tc.consumed)
			if p.Consumed != tc.consumed || p.Goal != tc.goal {
				t.Errorf("consumed/goal not echoed: %+v", p)
			}
			if p.Remaining != tc.remaining {
				t.Errorf("remaining: want %v, got %v", tc.remaining, p.Remaining)
			}
			if math.Abs(p.Percentage-tc.percentage) > 1e-9 {
				t.Errorf("percentage: want %v, got %v", tc.percentage, p.Percentage)
			}
			if math.IsNaN(p.Percentage) || math.IsInf(p.Percentage, 0) {
				t.Errorf("percentage must be finite, got %v", p.Percentage)
			}
		})
	}
}

/* ─── evaluateDay ────────────────────────────────────────────────────── */

func TestEvaluateDay_NoGoals(t *testing.T) {
	_, err := evaluateDay(day("2026-10-12"), nil, []mealLogEntry{meal("2026-10-12", 500, 20, 50, 10, 1)}, 0)
	if !errors.Is(err, errGoalsNotConfigured) {
		t.Fatalf("expected errGoalsNotConfigured, got %v", err)
	}
}

func TestEvaluateDay_ServingsScaleTotals(t *testing.T) {
	goals := &nutritionGoals{DailyCalories: 2000, DailyProtein: 150, DailyCarbs: 200, DailyFat: 70}
	meals := []mealLogEntry{
		meal("2026-10-12", 300, 20, 30, 10, 2),  // 600 / 40 / 60 / 20
		meal("2026-10-12", 400, 10, 50, 15, 0.5), // 200 / 5 / 25 / 7.5
	}

	stats, err := evaluateDay(day("2026-10-12"), goals, meals, 1250)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Calories.Consumed != 800 {
		t.Errorf("calories consumed: want 800, got %v", stats.Calories.Consumed)
	}
	if stats.Calories.Remaining != 1200 || stats.Calories.Percentage != 40 {
		t.Errorf("calories progress: got %+v", stats.Calories)
	}
	if stats.Protein.Consumed != 45 {
		t.Errorf("protein consumed: want 45, got %v", stats.Protein.Consumed)
	}
	if stats.Carbs.Consumed != 85 {
		t.Errorf("carbs consumed: want 85, got %v", stats.Carbs.Consumed)
	}
	if stats.Fat.Consumed != 27.5 {
		t.Errorf("fat consumed: want 27.5, got %v", stats.Fat.Consumed)
	}
	if stats.WaterIntake != 1250 {
		t.Errorf("water: want 1250, got %v", stats.WaterIntake)
	}
	if len(stats.MealsLogged) != 2 {
		t.Errorf("expected 2 meals logged, got %d", len(stats.MealsLogged))
	}
}

func TestEvaluateDay_NoMealsIsEmptySlice(t *testing.T) {
	goals := &nutritionGoals{DailyCalories: 2000, DailyProtein: 150, DailyCarbs: 200, DailyFat: 70}
	stats, err := evaluateDay(day("2026-10-12"), goals, nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.MealsLogged == nil {
		t.Error("expected empty, non-nil meals slice")
	}
	if stats.Calories.Remaining != 2000 || stats.Calories.Percentage != 0 {
		t.Errorf("unexpected calories progress: %+v", stats.Calories)
	}
}

func TestEvaluateDay_ZeroGoals(t *testing.T) {
	stats, err := evaluateDay(day("2026-10-12"), &nutritionGoals{}, []mealLogEntry{meal("2026-10-12", 100, 0, 0, 0, 1)}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Calories.Percentage != 0 || stats.Calories.Remaining != -100 {
		t.Errorf("unexpected calories progress: %+v", stats.Calories)
	}
}

func TestEvaluateDay_Idempotent(t *testing.T) {
	goals := &nutritionGoals{DailyCalories: 2259, DailyProtein: 169, DailyCarbs: 226, DailyFat: 75}
	meals := []mealLogEntry{
		meal("2026-10-12", 350, 25, 40, 9, 1),
		meal("2026-10-12", 620, 32, 70, 22, 1.5),
	}
	first, _ := evaluateDay(day("2026-10-12"), goals, meals, 500)
	second, _ := evaluateDay(day("2026-10-12"), goals, meals, 500)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("evaluations differ:\n%+v\n%+v", first, second)
	}
}

/* ─── evaluateWeek ───────────────────────────────────────────────────── */

func TestEvaluateWeek_Compliance(t *testing.T) {
	goals := &nutritionGoals{DailyCalories: 2000, DailyProtein: 150, DailyCarbs: 200, DailyFat: 70}
	monday := day("2026-10-12").Time
	meals := []mealLogEntry{
		meal("2026-10-12", 2000, 150, 200, 70, 1), // 100%: on target
		meal("2026-10-13", 1800, 100, 200, 60, 1), // 90%: on target (inclusive)
		meal("2026-10-14", 1000, 50, 100, 30, 1),  // 50%: tracked, off target
		meal("2026-10-14", 500, 50, 100, 30, 1),   // same day, now 75%
		meal("2026-10-16", 2300, 100, 250, 80, 1), // 115%: off target
		meal("2026-10-20", 9999, 0, 0, 0, 1),      // next week, ignored
	}
	water := map[string]float64{"2026-10-12": 2000, "2026-10-15": 500}

	summary, err := evaluateWeek(monday, goals, meals, water)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(summary.Days))
	}
	if got := summary.WeekStart.Format("2006-01-02"); got != "2026-10-12" {
		t.Errorf("weekStart: want 2026-10-12, got %s", got)
	}
	if summary.Days[6].Date.Format("2006-01-02") != "2026-10-18" {
		t.Errorf("last day: want 2026-10-18, got %s", summary.Days[6].Date.Format("2006-01-02"))
	}

	if summary.Stats.DaysTracked != 4 {
		t.Errorf("daysTracked: want 4, got %d", summary.Stats.DaysTracked)
	}
	if summary.Stats.DaysOnTarget != 2 {
		t.Errorf("daysOnTarget: want 2, got %d", summary.Stats.DaysOnTarget)
	}
	if summary.Stats.ComplianceScore != 50 {
		t.Errorf("complianceScore: want 50, got %v", summary.Stats.ComplianceScore)
	}
	// (2000 + 1800 + 1500 + 2300) / 4
	if summary.Stats.AvgCalories != 1900 {
		t.Errorf("avgCalories: want 1900, got %v", summary.Stats.AvgCalories)
	}

	wed := summary.Days[2]
	if wed.MealCount != 2 || wed.Calories.Consumed != 1500 || wed.OnTarget {
		t.Errorf("wednesday: unexpected %+v", wed)
	}
	thu := summary.Days[3]
	if thu.HasData || thu.OnTarget || thu.WaterIntake != 500 {
		t.Errorf("thursday: water-only day should be untracked with water recorded, got %+v", thu)
	}
	if summary.Days[0].WaterIntake != 2000 {
		t.Errorf("monday water: want 2000, got %v", summary.Days[0].WaterIntake)
	}
}

func TestEvaluateWeek_NothingTracked(t *testing.T) {
	goals := &nutritionGoals{DailyCalories: 2000}
	summary, err := evaluateWeek(day("2026-10-12").Time, goals, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Stats.DaysTracked != 0 || summary.Stats.ComplianceScore != 0 || summary.Stats.AvgCalories != 0 {
		t.Errorf("expected zeroed stats, got %+v", summary.Stats)
	}
}

func TestEvaluateWeek_NoGoals(t *testing.T) {
	_, err := evaluateWeek(day("2026-10-12").Time, nil, nil, nil)
	if !errors.Is(err, errGoalsNotConfigured) {
		t.Fatalf("expected errGoalsNotConfigured, got %v", err)
	}
}

/* ─── Week helpers ───────────────────────────────────────────────────── */

func TestMondayOf(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2026-10-12", "2026-10-12"}, // Monday
		{"2026-10-15", "2026-10-12"}, // Thursday
		{"2026-10-18", "2026-10-12"}, // Sunday belongs to the preceding week
		{"2026-11-01", "2026-10-26"}, // across a month boundary
		{"2027-01-02", "2026-12-28"}, // across a year boundary
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := mondayOf(day(tc.in).Time).Format("2006-01-02"); got != tc.want {
				t.Errorf("mondayOf(%s): want %s, got %s", tc.in, tc.want, got)
			}
		})
	}
}

func TestMondayOf_TruncatesTime(t *testing.T) {
	in := time.Date(2026, 10, 14, 17, 45, 3, 0, time.UTC)
	got := mondayOf(in)
	want := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestCurrentMonday(t *testing.T) {
	m := currentMonday()
	if m.Weekday() != time.Monday {
		t.Errorf("expected Monday, got %s", m.Weekday())
	}
	if m.Hour() != 0 || m.Minute() != 0 {
		t.Errorf("expected midnight, got %v", m)
	}
	if d := time.Since(m); d < 0 || d > 7*24*time.Hour {
		t.Errorf("current Monday %v not within the past week", m)
	}
}

func TestParseDateParam(t *testing.T) {
	got, err := parseDateParam("2026-10-15")
	if err != nil || got.Format("2006-01-02") != "2026-10-15" {
		t.Errorf("explicit date: got %v, %v", got, err)
	}
	if _, err := parseDateParam("15/10/2026"); err == nil {
		t.Error("expected error for malformed date")
	}
}

// TestParseDateParam_DefaultMatchesCurrentWeek checks that the default day and
// the default week are both taken in UTC, so today always falls in the week.
func TestParseDateParam_DefaultMatchesCurrentWeek(t *testing.T) {
	before := time.Now().UTC().Format("2006-01-02")
	today, err := parseDateParam("")
	after := time.Now().UTC().Format("2006-01-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := today.Format("2006-01-02"); got != before && got != after {
		t.Errorf("default date %s is not today in UTC (%s)", got, before)
	}

	monday := currentMonday()
	if today.Before(monday) || !today.Before(monday.AddDate(0, 0, 7)) {
		t.Errorf("default date %s outside current week starting %s", today.Format("2006-01-02"), monday.Format("2006-01-02"))
	}
}
