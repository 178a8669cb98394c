package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/fortnite-stats-analyzer/internal/models"
)

const (
	msgEnterUsername   = "Please enter a Fortnite username."
	msgInvalidUsername = "Invalid username. Please try again."
	msgUnreachable     = "Unable to reach stats service."
)

var gameModes = map[string]bool{"solo": true, "duo": true, "squad": true}

type StatsFetcher interface {
	GetStats(ctx context.Context, rawUsername string) *models.PlayerStatsResult
	ResolveUsername(ctx context.Context, rawUsername string) *models.PlayerStatsResult
}

type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, stats *models.GameModeStats, gameMode string) string
	GenerateQuickFeedback(ctx context.Context, kd, winrate float64, wins, kills, matches int, gameMode string) string
}

// HistoryReader serves the lookup history. Optional.
type HistoryReader interface {
	RecentLookups(ctx context.Context, limit int) ([]models.LookupRecord, error)
	HealthCheck(ctx context.Context) bool
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

type Handler struct {
	stats    StatsFetcher
	feedback FeedbackGenerator
	history  HistoryReader
	cache    HealthChecker
	provider HealthChecker
	logger   *slog.Logger
}

func NewHandler(stats StatsFetcher, feedback FeedbackGenerator, cache, provider HealthChecker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		stats:    stats,
		feedback: feedback,
		cache:    cache,
		provider: provider,
		logger:   logger,
	}
}

// SetHistory enables the lookup history endpoint.
func (h *Handler) SetHistory(history HistoryReader) {
	h.history = history
}

// Register mounts every route on the router.
func (h *Handler) Register(router gin.IRouter) {
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api/v1")
	{
		api.GET("/validate-username", h.ValidateUsername)
		api.GET("/stats", h.GetStats)
		api.POST("/stats", h.GetStats)
		api.POST("/feedback", h.GenerateFeedback)
		api.POST("/feedback/quick", h.GenerateQuickFeedback)
		api.GET("/lookups/recent", h.RecentLookups)
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	cacheStatus := h.cache.HealthCheck(ctx)
	providerStatus := h.provider.HealthCheck(ctx)
	historyStatus := "disabled"
	historyOK := true
	if h.history != nil {
		historyOK = h.history.HealthCheck(ctx)
		historyStatus = strconv.FormatBool(historyOK)
	}

	status := "ok"
	if !cacheStatus || !providerStatus || !historyOK {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"cache":        cacheStatus,
		"history":      historyStatus,
		"fortnite_api": providerStatus,
		"timestamp":    time.Now().Format(time.RFC3339),
	})
}

// ValidateUsername answers whether a username resolves to an account.
// Accounts without meaningful stats still validate.
func (h *Handler) ValidateUsername(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": msgEnterUsername})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 45*time.Second)
	defer cancel()

	result := h.stats.ResolveUsername(ctx, username)
	switch {
	case result.Outcome == models.OutcomeNotFound:
		c.JSON(http.StatusOK, gin.H{"success": false, "message": msgInvalidUsername})
	case result.Outcome.Retryable():
		c.JSON(http.StatusOK, gin.H{"success": false, "message": msgUnreachable})
	case result.Outcome == models.OutcomeInvalidInput:
		c.JSON(http.StatusOK, gin.H{"success": false, "message": msgEnterUsername})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "name": result.Name})
	}
}

type statsResponse struct {
	*models.PlayerStatsResult
	HasStats bool `json:"hasStats"`
}

func (h *Handler) GetStats(c *gin.Context) {
	start := time.Now()
	username := c.Query("username")
	if username == "" {
		username = c.PostForm("username")
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 45*time.Second)
	defer cancel()

	result := h.stats.GetStats(ctx, username)
	h.logger.Info("stats request served",
		"username", strings.TrimSpace(username),
		"outcome", result.Outcome,
		"duration", time.Since(start),
	)

	c.JSON(StatusForOutcome(result.Outcome), statsResponse{
		PlayerStatsResult: result,
		HasStats:          result.Success && result.HasMeaningfulStats(),
	})
}

// StatusForOutcome maps a lookup outcome to the HTTP status served for it.
func StatusForOutcome(o models.Outcome) int {
	switch o {
	case models.OutcomeFound, models.OutcomeEmpty:
		return http.StatusOK
	case models.OutcomeInvalidInput:
		return http.StatusBadRequest
	case models.OutcomeNotFound:
		return http.StatusNotFound
	case models.OutcomeUnavailable, models.OutcomeParseFailed:
		return http.StatusBadGateway
	case models.OutcomeRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) GenerateFeedback(c *gin.Context) {
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "message": err.Error()})
		return
	}
	if req.Stats == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "stats is required",
			"example": `{"gameMode":"solo","stats":{"kd":1.5,"winrate":0.1,"placeTop1":3,"kills":45,"matchesPlayed":30}}`,
		})
		return
	}
	mode, ok := normalizeGameMode(req.GameMode)
	if !ok {
		badGameMode(c, req.GameMode)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 45*time.Second)
	defer cancel()

	text := h.feedback.GenerateFeedback(ctx, req.Stats, mode)
	c.JSON(http.StatusOK, models.FeedbackResponse{GameMode: mode, Feedback: text})
}

func (h *Handler) GenerateQuickFeedback(c *gin.Context) {
	var req models.QuickFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "message": err.Error()})
		return
	}
	mode, ok := normalizeGameMode(req.GameMode)
	if !ok {
		badGameMode(c, req.GameMode)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 45*time.Second)
	defer cancel()

	text := h.feedback.GenerateQuickFeedback(ctx, req.Kd, req.Winrate, req.Wins, req.Kills, req.Matches, mode)
	c.JSON(http.StatusOK, models.FeedbackResponse{GameMode: mode, Feedback: text})
}

func (h *Handler) RecentLookups(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "lookup history is disabled",
			"message": "Set DATABASE_URL to enable lookup history.",
		})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	lookups, err := h.history.RecentLookups(ctx, limit)
	if err != nil {
		h.logger.Error("failed to load recent lookups", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load lookup history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"lookups": lookups, "count": len(lookups)})
}

// normalizeGameMode lowercases the mode and defaults a blank one to solo.
// It reports false for anything outside solo, duo and squad.
func normalizeGameMode(mode string) (string, bool) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return "solo", true
	}
	return mode, gameModes[mode]
}

func badGameMode(c *gin.Context, provided string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":    "invalid gameMode",
		"message":  "gameMode must be 'solo', 'duo' or 'squad'",
		"provided": provided,
	})
}
