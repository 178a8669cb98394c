package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yourusername/fortnite-stats-analyzer/internal/metrics"
	"github.com/yourusername/fortnite-stats-analyzer/internal/models"
	"github.com/yourusername/fortnite-stats-analyzer/pkg/cache"
)

// TextGenerator is the subset of the OpenAI client the generator needs.
type TextGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error)
}

type FeedbackConfig struct {
	CacheTTL       time.Duration
	Temperature    float64
	MaxTokens      int
	QuickMaxTokens int
	Timeout        time.Duration
}

func DefaultFeedbackConfig() FeedbackConfig {
	return FeedbackConfig{
		CacheTTL:       time.Hour,
		Temperature:    0.7,
		MaxTokens:      600,
		QuickMaxTokens: 300,
		Timeout:        30 * time.Second,
	}
}

type FeedbackService struct {
	generator TextGenerator
	cache     cache.Store
	cfg       FeedbackConfig
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewFeedbackService(generator TextGenerator, store cache.Store, cfg FeedbackConfig, m *metrics.Metrics, logger *slog.Logger) *FeedbackService {
	def := DefaultFeedbackConfig()
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.QuickMaxTokens <= 0 {
		cfg.QuickMaxTokens = def.QuickMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackService{
		generator: generator,
		cache:     store,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
	}
}

// FeedbackCacheKey rounds the ratios to two decimals so materially identical
// snapshots share one generation.
func FeedbackCacheKey(gameMode string, kd, winrate float64, wins, kills, matches int) string {
	return fmt.Sprintf("feedback:%s:%.2f:%.2f:%d:%d:%d", strings.ToLower(gameMode), kd, winrate, wins, kills, matches)
}

// GenerateFeedback returns coaching text for a full mode record. It always
// returns non-empty text.
func (s *FeedbackService) GenerateFeedback(ctx context.Context, stats *models.GameModeStats, gameMode string) string {
	if stats == nil {
		stats = &models.GameModeStats{}
	}

	key := FeedbackCacheKey(gameMode, stats.Kd, stats.Winrate, stats.PlaceTop1, stats.Kills, stats.MatchesPlayed)
	return s.generate(ctx, key, gameMode,
		detailedSystemPrompt,
		buildDetailedPrompt(stats, gameMode),
		s.cfg.MaxTokens,
		fallbackFeedback(gameMode, stats.Kd, stats.Winrate, stats.PlaceTop1, stats.MatchesPlayed),
	)
}

// GenerateQuickFeedback is the five-metric variant used when no full
// record is available.
func (s *FeedbackService) GenerateQuickFeedback(ctx context.Context, kd, winrate float64, wins, kills, matches int, gameMode string) string {
	key := "feedback:quick:" + strings.TrimPrefix(FeedbackCacheKey(gameMode, kd, winrate, wins, kills, matches), "feedback:")
	return s.generate(ctx, key, gameMode,
		quickSystemPrompt,
		buildQuickPrompt(kd, winrate, wins, kills, matches, gameMode),
		s.cfg.QuickMaxTokens,
		fallbackFeedback(gameMode, kd, winrate, wins, matches),
	)
}

func (s *FeedbackService) generate(ctx context.Context, key, gameMode, systemPrompt, userPrompt string, maxTokens int, fallback string) string {
	var cached string
	err := s.cache.Get(ctx, key, &cached)
	if err == nil && cached != "" {
		s.metrics.Cache("feedback", true)
		s.metrics.Feedback("cache")
		s.logger.Info("returning cached feedback", "game_mode", gameMode, "key", key)
		return cached
	}
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("feedback cache read failed, treating as miss", "key", key, "error", err)
	}
	s.metrics.Cache("feedback", false)

	s.logger.Info("generating fresh feedback", "game_mode", gameMode)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	text, err := s.generator.Complete(callCtx, systemPrompt, userPrompt, s.cfg.Temperature, maxTokens)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty feedback text")
	}
	if err != nil {
		s.metrics.ProviderCall("openai", "error")
		s.metrics.Feedback("fallback")
		s.logger.Error("feedback generation failed, using template", "game_mode", gameMode, "error", err)
		return fallback
	}
	s.metrics.ProviderCall("openai", "ok")
	s.metrics.Feedback("api")

	if err := s.cache.Set(ctx, key, text, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache feedback", "key", key, "error", err)
	} else {
		s.logger.Info("cached feedback", "game_mode", gameMode, "ttl", s.cfg.CacheTTL)
	}
	return text
}

func fallbackFeedback(gameMode string, kd, winrate float64, wins, matches int) string {
	return fmt.Sprintf(
		"AI feedback is unavailable right now, so here is a quick read of your %s stats:\n\n"+
			"A K/D ratio of %.2f and a win rate of %.1f%% mark where you stand today. "+
			"Across %d matches you have %d wins. "+
			"Keep drilling build fights, rotate early with the zone, and review your endgame decisions to push those numbers up.",
		gameMode, kd, winrate*100, matches, wins,
	)
}
