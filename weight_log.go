package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// weightOutOfRange reports whether kg falls outside the profile weight bounds.
func weightOutOfRange(kg float64) bool {
	return kg < minWeightKG || kg > maxWeightKG
}

// getWeightLog returns weight entries for the authenticated user within [start, end].
// GET /api/weight-log?start=YYYY-MM-DD&end=YYYY-MM-DD. Both params required.
// Returns an empty array (not null) if no entries exist in the range.
func (h *Handler) getWeightLog(c *gin.Context) {
	userID := c.GetInt("user_id")
	start := c.Query("start")
	end := c.Query("end")

	if start == "" || end == "" {
		apiError(c, http.StatusBadRequest, "start and end query params are required")
		return
	}
	startDate, err := parseDateParam(start)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
		return
	}
	endDate, err := parseDateParam(end)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
		return
	}
	if startDate.After(endDate.Time) {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return
	}

	entries, err := h.store.listWeights(c, userID, startDate, endDate)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch weight log")
		return
	}
	// Ensure empty array (not null) in JSON
	if entries == nil {
		entries = []weightEntry{}
	}

	c.JSON(http.StatusOK, entries)
}

// upsertWeightEntry creates or updates the weight entry for the given date.
// POST /api/weight-log. Body: { "date": "YYYY-MM-DD", "weightKg": 84.2 }.
// When the entry is the user's most recent one, the profile weight follows
// and goals are recalculated.
func (h *Handler) upsertWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body struct {
		Date     string  `json:"date"     binding:"required"`
		WeightKG float64 `json:"weightKg" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := parseDateParam(body.Date)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	if weightOutOfRange(body.WeightKG) {
		apiError(c, http.StatusBadRequest, "weightKg must be between 20 and 400")
		return
	}

	entry, err := h.store.upsertWeight(c, userID, date, body.WeightKG)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to upsert weight entry")
		return
	}

	h.syncProfileWeight(c, userID)
	c.JSON(http.StatusCreated, entry)
}

// updateWeightEntry partially updates an existing weight entry.
// PUT /api/weight-log/:id. Body: { "date"?, "weightKg"? }.
func (h *Handler) updateWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	var body struct {
		Date     *string  `json:"date"`
		WeightKG *float64 `json:"weightKg"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date != nil {
		if _, err := time.Parse("2006-01-02", *body.Date); err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
	}
	if body.WeightKG != nil && weightOutOfRange(*body.WeightKG) {
		apiError(c, http.StatusBadRequest, "weightKg must be between 20 and 400")
		return
	}

	entry, err := h.store.updateWeight(c, userID, id, body.Date, body.WeightKG)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "weight entry not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to update weight entry")
		}
		return
	}

	h.syncProfileWeight(c, userID)
	c.JSON(http.StatusOK, entry)
}

// deleteWeightEntry removes a weight log entry by ID.
// DELETE /api/weight-log/:id. Returns 204 on success, 404 if not found.
// Ownership is enforced by requiring both id and user_id to match.
func (h *Handler) deleteWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, ok := idParam(c)
	if !ok {
		return
	}

	deleted, err := h.store.deleteWeight(c, userID, id)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete weight entry")
		return
	}
	if !deleted {
		apiError(c, http.StatusNotFound, "weight entry not found")
		return
	}

	h.syncProfileWeight(c, userID)
	c.Status(http.StatusNoContent)
}

// syncProfileWeight copies the latest logged weight onto the profile and
// recalculates goals. Failures are logged, not returned: the weight entry
// itself was saved.
func (h *Handler) syncProfileWeight(ctx context.Context, userID int) {
	latest, err := h.store.latestWeight(ctx, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("[syncProfileWeight] latest weight for user %d: %v", userID, err)
		}
		return
	}
	p, err := h.store.getProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("[syncProfileWeight] profile for user %d: %v", userID, err)
		}
		return
	}
	if p.WeightKG == latest.WeightKG {
		return
	}
	p.WeightKG = latest.WeightKG
	if _, err := h.saveProfile(ctx, p); err != nil {
		log.Printf("[syncProfileWeight] recalculation failed for user %d: %v", userID, err)
	}
}
