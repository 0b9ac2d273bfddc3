package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

/* ─── Request / Response types ───────────────────────────────────────── */

// recipeRequest is the request body for POST /api/recipes/generate.
// An empty or unknown SessionID starts a new conversation.
type recipeRequest struct {
	Prompt      string   `json:"prompt"`
	Ingredients []string `json:"ingredients"`
	SessionID   string   `json:"sessionId"`
}

// recipe is the structured recipe returned by the LLM. Nutrition is per serving.
type recipe struct {
	Title       string   `json:"title"`
	Servings    int      `json:"servings"`
	PrepMinutes int      `json:"prepMinutes"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	Calories    float64  `json:"calories"`
	Protein     float64  `json:"protein"`
	Carbs       float64  `json:"carbs"`
	Fat         float64  `json:"fat"`
}

// recipeResponse is returned by POST /api/recipes/generate.
type recipeResponse struct {
	SessionID string `json:"sessionId"`
	Recipe    recipe `json:"recipe"`
}

/* ─── Prompt constants ───────────────────────────────────────────────── */

const recipeSystemPromptBase = `You are a recipe assistant for a nutrition tracking app. Create one recipe for the user's request and return a JSON object with:
- "title" (string)
- "servings" (integer)
- "prepMinutes" (integer)
- "ingredients" (array of strings, each with quantity and unit)
- "steps" (array of strings)
- "calories" (number, per serving)
- "protein" (number, grams per serving)
- "carbs" (number, grams per serving)
- "fat" (number, grams per serving)

Prefer ingredients the user says they have. Only return {"error": "unrecognized"} if the request is not about food at all.
Return only valid JSON, no explanation.`

// recipeTargetsTemplate is appended when the user has goals configured so
// the recipe fits what is left of the day.
const recipeTargetsTemplate = `

The user has this much left for today: %.0f kcal, %.0f g protein, %.0f g carbs, %.0f g fat. Aim for one serving to fit within what is left. If a value is zero or negative, keep that nutrient as low as practical.`

/* ─── OpenAI HTTP client ─────────────────────────────────────────────── */

// llmConfig configures the OpenAI-compatible chat completions endpoint.
type llmConfig struct {
	apiKey  string
	baseURL string // overridable for tests
	model   string
}

// openAIMessage is a single message in the OpenAI chat completions request.
type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIRequest is the request body for the OpenAI chat completions API.
type openAIRequest struct {
	Model          string            `json:"model"`
	Messages       []openAIMessage   `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

// callOpenAI sends a chat completions request and returns the raw content string
// from the first choice.
func callOpenAI(ctx context.Context, cfg llmConfig, messages []openAIMessage) (string, error) {
	if cfg.apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY not set")
	}

	bodyBytes, err := json.Marshal(openAIRequest{
		Model:          cfg.model,
		Messages:       messages,
		Temperature:    0.7,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.baseURL+"/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cfg.apiKey)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	// Parse the response to extract choices[0].message.content
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return result.Choices[0].Message.Content, nil
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// generateRecipe handles POST /api/recipes/generate.
// Builds a prompt around the user's remaining macros for today, calls the
// LLM, and keeps the exchange in the caller's chat session.
func (h *Handler) generateRecipe(c *gin.Context) {
	userID := c.GetInt("user_id")

	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		apiError(c, http.StatusBadRequest, "prompt is required")
		return
	}

	session := h.loadSession(c, userID, req.SessionID)
	userMsg := openAIMessage{Role: "user", Content: buildRecipeUserMessage(req)}

	messages := make([]openAIMessage, 0, len(session.Messages)+2)
	messages = append(messages, openAIMessage{Role: "system", Content: h.buildRecipeSystemPrompt(c, userID)})
	messages = append(messages, session.Messages...)
	messages = append(messages, userMsg)

	content, err := callOpenAI(c.Request.Context(), h.llm, messages)
	if err != nil {
		log.Printf("[generateRecipe] OpenAI error: %v", err)
		apiError(c, http.StatusInternalServerError, "llm request failed")
		return
	}

	// Check if the model returned an "unrecognized" error
	var errorResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(content), &errorResp); err != nil {
		log.Printf("[generateRecipe] Failed to parse LLM response: %v", err)
		apiError(c, http.StatusInternalServerError, "llm request failed")
		return
	}
	if errorResp.Error == "unrecognized" {
		c.JSON(http.StatusOK, gin.H{"error": "unrecognized", "sessionId": session.ID})
		return
	}

	var r recipe
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		log.Printf("[generateRecipe] Failed to parse recipe JSON: %v", err)
		apiError(c, http.StatusInternalServerError, "llm request failed")
		return
	}
	// A recipe without a title or steps is unusable.
	if strings.TrimSpace(r.Title) == "" || len(r.Steps) == 0 {
		c.JSON(http.StatusOK, gin.H{"error": "unrecognized", "sessionId": session.ID})
		return
	}

	session.Messages = trimHistory(append(session.Messages, userMsg, openAIMessage{Role: "assistant", Content: content}))
	session.UpdatedAt = time.Now().UTC()
	if err := h.sessions.put(c, session); err != nil {
		log.Printf("[generateRecipe] saving session %s: %v", session.ID, err)
	}

	c.JSON(http.StatusOK, recipeResponse{SessionID: session.ID, Recipe: r})
}

// deleteRecipeSession drops a chat session owned by the caller.
// DELETE /api/recipes/sessions/:id. 204 on success, 404 if unknown or expired.
func (h *Handler) deleteRecipeSession(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	s, found, err := h.sessions.get(c, id)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to load session")
		return
	}
	if !found || s.UserID != userID {
		apiError(c, http.StatusNotFound, "session not found")
		return
	}
	if err := h.sessions.delete(c, id); err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete session")
		return
	}
	c.Status(http.StatusNoContent)
}

// loadSession returns the caller's session for id, or a fresh one when id is
// empty, unknown, expired, or owned by someone else.
func (h *Handler) loadSession(ctx context.Context, userID int, id string) chatSession {
	if id != "" {
		s, found, err := h.sessions.get(ctx, id)
		if err != nil {
			log.Printf("[loadSession] %s: %v", id, err)
		}
		if found && s.UserID == userID {
			return s
		}
	}
	return chatSession{ID: uuid.NewString(), UserID: userID}
}

// buildRecipeUserMessage folds the ingredient list into the user's prompt.
func buildRecipeUserMessage(req recipeRequest) string {
	msg := strings.TrimSpace(req.Prompt)
	var have []string
	for _, ing := range req.Ingredients {
		if s := strings.TrimSpace(ing); s != "" {
			have = append(have, s)
		}
	}
	if len(have) > 0 {
		msg += "\nIngredients I have: " + strings.Join(have, ", ")
	}
	return msg
}

// buildRecipeSystemPrompt adds today's remaining macros when goals exist.
// Falls back to the base prompt otherwise.
func (h *Handler) buildRecipeSystemPrompt(ctx context.Context, userID int) string {
	today, _ := parseDateParam("")
	stats, err := h.dailyStats(ctx, userID, today)
	if err != nil {
		if !errors.Is(err, errGoalsNotConfigured) {
			log.Printf("[buildRecipeSystemPrompt] user %d: %v", userID, err)
		}
		return recipeSystemPromptBase
	}
	return recipeSystemPromptBase + fmt.Sprintf(recipeTargetsTemplate,
		stats.Calories.Remaining, stats.Protein.Remaining, stats.Carbs.Remaining, stats.Fat.Remaining)
}
