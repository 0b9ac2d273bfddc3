package main

import (
	"math"
)

// activityMultipliers maps activity level strings to their TDEE multiplier.
// This is the single source of truth for valid activity levels.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// goalAdjustments is the fixed kcal offset applied to TDEE per goal type.
var goalAdjustments = map[string]float64{
	"lose":     -500,
	"maintain": 0,
	"gain":     300,
}

const (
	// minDailyCalories is the safety floor for any computed calorie target.
	minDailyCalories = 1200

	// Macro split as a share of daily calories.
	proteinShare = 0.30
	carbsShare   = 0.40
	fatShare     = 0.30

	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// Physiological bounds a profile must fall within.
const (
	minAge, maxAge           = 10, 120
	minHeightCM, maxHeightCM = 50.0, 250.0
	minWeightKG, maxWeightKG = 20.0, 400.0
)

// validateProfile checks every field of p and returns an *invalidProfileError
// naming the first bad one.
func validateProfile(p userProfile) error {
	switch {
	case p.Sex != "male" && p.Sex != "female":
		return &invalidProfileError{Field: "sex", Reason: "must be one of: male, female"}
	case p.Age < minAge || p.Age > maxAge:
		return &invalidProfileError{Field: "age", Reason: "must be between 10 and 120"}
	case math.IsNaN(p.HeightCM) || p.HeightCM < minHeightCM || p.HeightCM > maxHeightCM:
		return &invalidProfileError{Field: "heightCm", Reason: "must be between 50 and 250"}
	case math.IsNaN(p.WeightKG) || p.WeightKG < minWeightKG || p.WeightKG > maxWeightKG:
		return &invalidProfileError{Field: "weightKg", Reason: "must be between 20 and 400"}
	}
	if _, ok := activityMultipliers[p.ActivityLevel]; !ok {
		return &invalidProfileError{Field: "activityLevel", Reason: "must be one of: sedentary, light, moderate, active, very_active"}
	}
	if _, ok := goalAdjustments[p.GoalType]; !ok {
		return &invalidProfileError{Field: "goalType", Reason: "must be one of: lose, maintain, gain"}
	}
	return nil
}

// computeEnergy returns BMR (Mifflin-St Jeor) and TDEE for a validated profile.
func computeEnergy(p userProfile) (bmr, tdee float64) {
	bmr = 10*p.WeightKG + 6.25*p.HeightCM - 5*float64(p.Age)
	if p.Sex == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}
	return bmr, bmr * activityMultipliers[p.ActivityLevel]
}

// computeGoals converts a profile into daily calorie and macro targets.
// Deterministic: identical profiles always produce identical goals.
func computeGoals(p userProfile) (nutritionGoals, error) {
	if err := validateProfile(p); err != nil {
		return nutritionGoals{}, err
	}

	_, tdee := computeEnergy(p)
	calories := int(math.Round(tdee + goalAdjustments[p.GoalType]))
	if calories < minDailyCalories {
		calories = minDailyCalories
	}

	// Macros derive from the rounded calorie figure so the split always
	// reconciles with what the user sees.
	kcal := float64(calories)
	return nutritionGoals{
		UserID:        p.UserID,
		DailyCalories: calories,
		DailyProtein:  int(math.Round(kcal * proteinShare / kcalPerGramProtein)),
		DailyCarbs:    int(math.Round(kcal * carbsShare / kcalPerGramCarbs)),
		DailyFat:      int(math.Round(kcal * fatShare / kcalPerGramFat)),
	}, nil
}

// macroCalories returns the kcal implied by g's macro grams.
func macroCalories(g nutritionGoals) int {
	return g.DailyProtein*kcalPerGramProtein + g.DailyCarbs*kcalPerGramCarbs + g.DailyFat*kcalPerGramFat
}
