package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// invalidProfileError reports a profile field that is missing or outside
// physiological bounds. Not retryable: the caller must fix the input.
type invalidProfileError struct {
	Field  string
	Reason string
}

func (e *invalidProfileError) Error() string {
	return fmt.Sprintf("invalid profile: %s %s", e.Field, e.Reason)
}

// errGoalsNotConfigured is returned when progress is requested for a user
// who has no nutrition goals yet. Callers should send the user to onboarding.
var errGoalsNotConfigured = errors.New("nutrition goals not configured")

// respondDomainError maps core errors onto HTTP responses. fallback is the
// message used for unexpected (500) errors.
func respondDomainError(c *gin.Context, err error, fallback string) {
	var profileErr *invalidProfileError
	switch {
	case errors.As(err, &profileErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": profileErr.Error(), "field": profileErr.Field})
	case errors.Is(err, errGoalsNotConfigured):
		c.JSON(http.StatusConflict, gin.H{"error": errGoalsNotConfigured.Error(), "code": "goals_not_configured"})
	case errors.Is(err, pgx.ErrNoRows):
		apiError(c, http.StatusNotFound, "not found")
	default:
		log.Printf("[%s] %v", c.FullPath(), err)
		apiError(c, http.StatusInternalServerError, fallback)
	}
}
