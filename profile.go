package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// profileResponse is returned by every profile mutation: the stored profile
// and the goals recalculated from it.
type profileResponse struct {
	Profile userProfile    `json:"profile"`
	Goals   nutritionGoals `json:"goals"`
}

// getProfile returns the authenticated user's profile.
// GET /api/profile. 404 until onboarding has saved one.
func (h *Handler) getProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	p, err := h.store.getProfile(c, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "profile not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		}
		return
	}

	c.JSON(http.StatusOK, p)
}

// putProfile replaces the whole profile and recalculates goals.
// PUT /api/profile. Every field is required.
func (h *Handler) putProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body profileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := body.toProfile(userID)
	if err != nil {
		respondDomainError(c, err, "failed to save profile")
		return
	}

	resp, err := h.saveProfile(c, p)
	if err != nil {
		respondDomainError(c, err, "failed to save profile")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// patchProfile merges the provided fields over the stored profile and
// recalculates goals. PATCH /api/profile. Uses pointer fields in the request
// body to distinguish "not provided" from zero.
func (h *Handler) patchProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body profileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	current, err := h.store.getProfile(c, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "profile not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		}
		return
	}

	resp, err := h.saveProfile(c, body.mergeInto(current))
	if err != nil {
		respondDomainError(c, err, "failed to save profile")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// saveProfile validates p, derives its goals and persists both. The
// calculator has no side effects; persistence happens only here.
func (h *Handler) saveProfile(ctx context.Context, p userProfile) (profileResponse, error) {
	goals, err := computeGoals(p)
	if err != nil {
		return profileResponse{}, err
	}
	saved, savedGoals, err := h.store.saveProfileAndGoals(ctx, p, goals)
	if err != nil {
		return profileResponse{}, fmt.Errorf("persist profile for user %d: %w", p.UserID, err)
	}
	return profileResponse{Profile: saved, Goals: savedGoals}, nil
}

// getGoals returns the user's active nutrition goals.
// GET /api/nutrition/goals. 409 goals_not_configured before onboarding.
func (h *Handler) getGoals(c *gin.Context) {
	userID := c.GetInt("user_id")

	goals, err := h.store.getGoals(c, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = errGoalsNotConfigured
	}
	if err != nil {
		respondDomainError(c, err, "failed to fetch goals")
		return
	}
	c.JSON(http.StatusOK, goals)
}

// goalsPreview is the response for POST /api/nutrition/goals/preview.
type goalsPreview struct {
	BMR   int            `json:"bmr"`
	TDEE  int            `json:"tdee"`
	Goals nutritionGoals `json:"goals"`
}

// previewGoals computes goals for an arbitrary profile without saving anything.
// POST /api/nutrition/goals/preview.
func (h *Handler) previewGoals(c *gin.Context) {
	var body profileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := body.toProfile(c.GetInt("user_id"))
	if err != nil {
		respondDomainError(c, err, "failed to compute goals")
		return
	}
	goals, err := computeGoals(p)
	if err != nil {
		respondDomainError(c, err, "failed to compute goals")
		return
	}

	bmr, tdee := computeEnergy(p)
	c.JSON(http.StatusOK, goalsPreview{
		BMR:   int(math.Round(bmr)),
		TDEE:  int(math.Round(tdee)),
		Goals: goals,
	})
}

// loadGoals fetches the user's goals. nil with no error means none are
// configured; the evaluators turn that into errGoalsNotConfigured.
func (h *Handler) loadGoals(ctx context.Context, userID int) (*nutritionGoals, error) {
	goals, err := h.store.getGoals(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &goals, nil
}
