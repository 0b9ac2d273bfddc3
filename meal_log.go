package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// validMealTypes is the set of allowed values for meal_logs.meal_type.
var validMealTypes = map[string]bool{
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
	"snack":     true,
}

// getMeals returns the meal entries logged on a given date.
// GET /api/meals?date=YYYY-MM-DD (defaults to today).
func (h *Handler) getMeals(c *gin.Context) {
	userID := c.GetInt("user_id")
	date, err := parseDateParam(c.Query("date"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	meals, err := h.store.listMeals(c, userID, date, date)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch meals")
		return
	}
	// Ensure meals is an empty array (not null) in JSON
	if meals == nil {
		meals = []mealLogEntry{}
	}
	c.JSON(http.StatusOK, meals)
}

// createMeal logs a meal entry. Nutrition values are per serving.
// POST /api/meals. Defaults date to today and servings to 1.
func (h *Handler) createMeal(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body createMealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validMealTypes[body.MealType] {
		apiError(c, http.StatusBadRequest, "mealType must be one of: breakfast, lunch, dinner, snack")
		return
	}
	servings := 1.0
	if body.Servings != nil {
		servings = *body.Servings
	}
	if servings <= 0 {
		apiError(c, http.StatusBadRequest, "servings must be greater than 0")
		return
	}
	date, err := parseDateParam(body.Date)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	entry, err := h.store.createMeal(c, mealLogEntry{
		UserID:   userID,
		Date:     date,
		MealType: body.MealType,
		Name:     body.Name,
		Servings: servings,
		Calories: body.Calories,
		Protein:  body.Protein,
		Carbs:    body.Carbs,
		Fat:      body.Fat,
	})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create meal")
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// updateMeal updates an existing meal entry; omitted fields keep their value.
// PUT /api/meals/:id.
func (h *Handler) updateMeal(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	var body updateMealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.MealType != nil && !validMealTypes[*body.MealType] {
		apiError(c, http.StatusBadRequest, "mealType must be one of: breakfast, lunch, dinner, snack")
		return
	}
	if body.Date != nil {
		if _, err := time.Parse("2006-01-02", *body.Date); err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
	}

	entry, err := h.store.updateMeal(c, userID, id, body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "meal not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to update meal")
		}
		return
	}

	c.JSON(http.StatusOK, entry)
}

// deleteMeal removes a meal entry. Returns 204 on success.
// DELETE /api/meals/:id.
func (h *Handler) deleteMeal(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	deleted, err := h.store.deleteMeal(c, userID, id)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete meal")
		return
	}
	if !deleted {
		apiError(c, http.StatusNotFound, "meal not found")
		return
	}

	c.Status(http.StatusNoContent)
}
