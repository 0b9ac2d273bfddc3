package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler holds shared dependencies (store, session cache, LLM config) for all route handlers.
type Handler struct {
	store    nutritionStore
	sessions sessionStore
	llm      llmConfig
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// idParam parses the :id path parameter, answering 400 when it is not an integer.
func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		apiError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	router.POST("/api/login", h.login)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/me", h.me)
	api.GET("/profile", h.getProfile)
	api.PUT("/profile", h.putProfile)
	api.PATCH("/profile", h.patchProfile)

	api.GET("/nutrition/goals", h.getGoals)
	api.POST("/nutrition/goals/preview", h.previewGoals)
	api.GET("/nutrition/daily", h.getDailyNutrition)
	api.GET("/nutrition/weekly", h.getWeeklyNutrition)
	api.PUT("/nutrition/water", h.setWaterIntake)
	api.POST("/nutrition/water", h.addWaterIntake)

	api.GET("/meals", h.getMeals)
	api.POST("/meals", h.createMeal)
	api.PUT("/meals/:id", h.updateMeal)
	api.DELETE("/meals/:id", h.deleteMeal)

	api.GET("/weight-log", h.getWeightLog)
	api.POST("/weight-log", h.upsertWeightEntry)
	api.PUT("/weight-log/:id", h.updateWeightEntry)
	api.DELETE("/weight-log/:id", h.deleteWeightEntry)

	api.POST("/recipes/generate", h.generateRecipe)
	api.DELETE("/recipes/sessions/:id", h.deleteRecipeSession)
}
