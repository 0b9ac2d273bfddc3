package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// getDailyNutrition returns per-metric progress against the user's goals for a day.
// GET /api/nutrition/daily?date=YYYY-MM-DD (defaults to today).
func (h *Handler) getDailyNutrition(c *gin.Context) {
	userID := c.GetInt("user_id")
	date, err := parseDateParam(c.Query("date"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	stats, err := h.dailyStats(c, userID, date)
	if err != nil {
		respondDomainError(c, err, "failed to compute daily nutrition")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// dailyStats loads goals, meals and water for one day and evaluates them.
func (h *Handler) dailyStats(ctx context.Context, userID int, date DateOnly) (dailyNutritionStats, error) {
	goals, err := h.loadGoals(ctx, userID)
	if err != nil {
		return dailyNutritionStats{}, fmt.Errorf("load goals: %w", err)
	}
	if goals == nil {
		return dailyNutritionStats{}, errGoalsNotConfigured
	}

	meals, err := h.store.listMeals(ctx, userID, date, date)
	if err != nil {
		return dailyNutritionStats{}, fmt.Errorf("load meals: %w", err)
	}
	water, err := h.store.listWater(ctx, userID, date, date)
	if err != nil {
		return dailyNutritionStats{}, fmt.Errorf("load water: %w", err)
	}
	var waterMl float64
	for _, w := range water {
		waterMl += w.AmountMl
	}

	return evaluateDay(date, goals, meals, waterMl)
}

// getWeeklyNutrition returns seven days of progress and a compliance summary
// for the Mon-Sun week containing week_start.
// GET /api/nutrition/weekly?week_start=YYYY-MM-DD (defaults to current week).
func (h *Handler) getWeeklyNutrition(c *gin.Context) {
	userID := c.GetInt("user_id")

	// Parse week_start; default to the current Monday.
	var weekStart time.Time
	if s := c.Query("week_start"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid week_start, expected YYYY-MM-DD")
			return
		}
		weekStart = mondayOf(t)
	} else {
		weekStart = currentMonday()
	}
	weekEnd := weekStart.AddDate(0, 0, 6)

	goals, err := h.loadGoals(c, userID)
	if err != nil {
		respondDomainError(c, err, "failed to fetch goals")
		return
	}
	if goals == nil {
		respondDomainError(c, errGoalsNotConfigured, "")
		return
	}

	meals, err := h.store.listMeals(c, userID, DateOnly{weekStart}, DateOnly{weekEnd})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch week data")
		return
	}
	water, err := h.store.listWater(c, userID, DateOnly{weekStart}, DateOnly{weekEnd})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch week data")
		return
	}
	waterByDate := make(map[string]float64, len(water))
	for _, w := range water {
		waterByDate[w.Date.Format("2006-01-02")] += w.AmountMl
	}

	summary, err := evaluateWeek(weekStart, goals, meals, waterByDate)
	if err != nil {
		respondDomainError(c, err, "failed to compute weekly nutrition")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// setWaterIntake sets the day's water total. PUT /api/nutrition/water.
func (h *Handler) setWaterIntake(c *gin.Context) {
	h.writeWater(c, h.store.setWater)
}

// addWaterIntake adds to the day's water total. POST /api/nutrition/water.
func (h *Handler) addWaterIntake(c *gin.Context) {
	h.writeWater(c, h.store.addWater)
}

// writeWater validates a waterRequest and applies it with write.
func (h *Handler) writeWater(c *gin.Context, write func(context.Context, int, DateOnly, float64) (waterIntake, error)) {
	userID := c.GetInt("user_id")

	var body waterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if *body.AmountMl < 0 || *body.AmountMl > 20000 {
		apiError(c, http.StatusBadRequest, "amountMl must be between 0 and 20000")
		return
	}
	date, err := parseDateParam(body.Date)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	w, err := write(c, userID, date, *body.AmountMl)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to save water intake")
		return
	}
	c.JSON(http.StatusOK, w)
}
