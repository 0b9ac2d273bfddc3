package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the username is unknown so that login
// takes the same time whether or not the account exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.DefaultCost)

// loginResponse is returned by POST /api/login. Onboarded is false until the
// user has saved a profile, i.e. until goals exist.
type loginResponse struct {
	Token     string `json:"token"`
	UserID    int    `json:"user_id"`
	Onboarded bool   `json:"onboarded"`
}

// login verifies username/password and returns the user's auth token.
// POST /api/login (public).
func (h *Handler) login(c *gin.Context) {
	var creds struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&creds); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, lookupErr := h.store.userByUsername(c, strings.TrimSpace(creds.Username))
	hash := dummyHash
	if lookupErr == nil {
		hash = []byte(u.Password)
	} else if !errors.Is(lookupErr, pgx.ErrNoRows) {
		log.Printf("[login] lookup %q: %v", creds.Username, lookupErr)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)) != nil || lookupErr != nil {
		apiError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:     u.AuthToken,
		UserID:    u.ID,
		Onboarded: h.hasGoals(c, u.ID),
	})
}

// me returns the authenticated user and whether onboarding is complete.
// GET /api/me.
func (h *Handler) me(c *gin.Context) {
	userID := c.GetInt("user_id")
	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID,
		"onboarded": h.hasGoals(c, userID),
	})
}

// hasGoals reports whether goals are configured. Lookup failures count as
// not onboarded and are logged.
func (h *Handler) hasGoals(ctx context.Context, userID int) bool {
	goals, err := h.loadGoals(ctx, userID)
	if err != nil {
		log.Printf("[hasGoals] user %d: %v", userID, err)
		return false
	}
	return goals != nil
}

// authMiddleware resolves the Bearer token to a user id and stores it as
// "user_id" on the gin context.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		userID, err := h.store.userIDForToken(c, token)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				log.Printf("[authMiddleware] token lookup: %v", err)
			}
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
