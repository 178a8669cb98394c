package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/fortnite-stats-analyzer/internal/fortnite"
	"github.com/yourusername/fortnite-stats-analyzer/internal/metrics"
	"github.com/yourusername/fortnite-stats-analyzer/internal/models"
	"github.com/yourusername/fortnite-stats-analyzer/pkg/cache"
)

// User-facing failure messages.
const (
	MsgEmptyUsername = "Username cannot be empty"
	MsgNoStats       = "No player stats available. Please check the username and try again."
	MsgUnavailable   = "We couldn't reach the stats service. Please try again."
	MsgParseFailed   = "The stats service sent a response we couldn't read. Please try again."
	MsgNoData        = "No data available"

	invalidAccountError = "Invalid account"
	defaultStatsTTL     = 5 * time.Minute
)

// StatsProvider is the subset of the Fortnite API client the pipeline needs.
type StatsProvider interface {
	StatsByName(ctx context.Context, name string) (*fortnite.Envelope, error)
	StatsByAccountID(ctx context.Context, accountID string) (*fortnite.Envelope, error)
}

// LookupRecorder persists lookup history. Optional.
type LookupRecorder interface {
	RecordLookup(ctx context.Context, rec *models.LookupRecord) error
}

type StatsService struct {
	provider StatsProvider
	cache    cache.Store
	recorder LookupRecorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	ttl      time.Duration
}

func NewStatsService(provider StatsProvider, store cache.Store, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *StatsService {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsService{
		provider: provider,
		cache:    store,
		metrics:  m,
		logger:   logger,
		ttl:      ttl,
	}
}

// SetRecorder enables lookup history.
func (s *StatsService) SetRecorder(r LookupRecorder) {
	s.recorder = r
}

// StatsCacheKey derives the cache key for a trimmed username.
func StatsCacheKey(username string) string {
	return "stats:" + strings.ToLower(username)
}

// GetStats runs the full retrieval pipeline. It never returns nil; failures
// are reported through Success, Error and Outcome.
func (s *StatsService) GetStats(ctx context.Context, rawUsername string) *models.PlayerStatsResult {
	return s.run(ctx, rawUsername, true)
}

// ResolveUsername runs the same pipeline as GetStats but writes no lookup
// history. A validate-then-fetch flow records one row, from the fetch.
func (s *StatsService) ResolveUsername(ctx context.Context, rawUsername string) *models.PlayerStatsResult {
	return s.run(ctx, rawUsername, false)
}

func (s *StatsService) run(ctx context.Context, rawUsername string, record bool) *models.PlayerStatsResult {
	username := strings.TrimSpace(rawUsername)
	if username == "" {
		s.logger.Warn("empty username provided")
		s.metrics.Lookup(string(models.OutcomeInvalidInput))
		return models.NewFailure(models.OutcomeInvalidInput, MsgEmptyUsername)
	}

	result := s.lookup(ctx, username)

	s.metrics.Lookup(string(result.Outcome))
	if record {
		s.record(ctx, username, result)
	}
	return result
}

func (s *StatsService) lookup(ctx context.Context, username string) *models.PlayerStatsResult {
	key := StatsCacheKey(username)

	var cached models.PlayerStatsResult
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		s.metrics.Cache("stats", true)
		s.logger.Info("returning cached stats", "username", username, "key", key)
		return &cached
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("stats cache read failed, treating as miss", "key", key, "error", err)
	}
	s.metrics.Cache("stats", false)
	s.logger.Info("stats cache miss", "username", username, "key", key)

	first := s.fetch(ctx, username, "name", func(ctx context.Context) (*fortnite.Envelope, error) {
		return s.provider.StatsByName(ctx, username)
	})

	switch first.Outcome {
	case models.OutcomeFound:
		s.store(ctx, key, first)
		return first

	case models.OutcomeEmpty:
		s.logger.Info("account resolved but stats empty, trying alternate lookup", "username", username, "account_id", first.AccountID)
		s.metrics.Fallback()
		alt := s.fetchAlternate(ctx, username, first.AccountID)
		if alt.Outcome == models.OutcomeFound {
			s.store(ctx, key, alt)
			return alt
		}
		return first

	case models.OutcomeNotFound:
		s.logger.Info("provider reported unknown account, trying alternate lookup", "username", username)
		s.metrics.Fallback()
		alt := s.fetchAlternate(ctx, username, "")
		if alt.Success {
			if alt.Outcome == models.OutcomeFound {
				s.store(ctx, key, alt)
			}
			return alt
		}
		return models.NewFailure(models.OutcomeNotFound, MsgNoStats)

	default:
		return first
	}
}

// fetchAlternate is the one-shot second strategy: by account id when the
// first answer resolved one, otherwise the name query again.
func (s *StatsService) fetchAlternate(ctx context.Context, username, accountID string) *models.PlayerStatsResult {
	if accountID != "" {
		return s.fetch(ctx, username, "account_id", func(ctx context.Context) (*fortnite.Envelope, error) {
			return s.provider.StatsByAccountID(ctx, accountID)
		})
	}
	return s.fetch(ctx, username, "name_retry", func(ctx context.Context) (*fortnite.Envelope, error) {
		return s.provider.StatsByName(ctx, username)
	})
}

func (s *StatsService) fetch(ctx context.Context, username, strategy string, call func(context.Context) (*fortnite.Envelope, error)) *models.PlayerStatsResult {
	s.logger.Info("fetching stats from provider", "username", username, "strategy", strategy)

	env, err := call(ctx)
	if err != nil {
		var statusErr *fortnite.StatusError
		switch {
		case errors.Is(err, fortnite.ErrMalformedResponse):
			s.metrics.ProviderCall("fortnite", "malformed")
			s.logger.Warn("failed to parse stats response", "username", username, "error", err)
			return models.NewFailure(models.OutcomeParseFailed, MsgParseFailed)
		case errors.Is(err, fortnite.ErrRateLimited):
			s.metrics.ProviderCall("fortnite", "rate_limited")
			s.logger.Warn("stats provider rate limited", "username", username)
		case errors.As(err, &statusErr):
			s.metrics.ProviderCall("fortnite", "http_error")
			s.logger.Warn("non-success status from stats provider", "username", username, "status", statusErr.StatusCode)
		default:
			s.metrics.ProviderCall("fortnite", "transport_error")
			s.logger.Error("stats provider call failed", "username", username, "error", err)
		}
		return models.NewFailure(models.OutcomeUnavailable, MsgUnavailable)
	}
	s.metrics.ProviderCall("fortnite", "ok")

	if env.Status != http.StatusOK {
		msg := env.Error
		if msg == "" {
			msg = "Unknown error"
		}
		s.logger.Warn("stats provider returned error status", "username", username, "status", env.Status, "error", msg)
		if isMissingAccount(env) {
			return models.NewFailure(models.OutcomeNotFound, msg)
		}
		return models.NewFailure(models.OutcomeRejected, msg)
	}

	if !env.HasData() {
		s.logger.Warn("no data section in stats response", "username", username)
		return models.NewFailure(models.OutcomeRejected, MsgNoData)
	}

	result, err := fortnite.Normalize(env.Data, username)
	if err != nil {
		s.logger.Warn("failed to normalize stats payload", "username", username, "error", err)
		return models.NewFailure(models.OutcomeParseFailed, MsgParseFailed)
	}

	s.logger.Info("normalized stats",
		"username", username,
		"name", result.Name,
		"outcome", result.Outcome,
		"has_global", result.GlobalStats != nil,
		"has_per_input", result.PerInput != nil,
	)
	return result
}

func (s *StatsService) store(ctx context.Context, key string, result *models.PlayerStatsResult) {
	if err := s.cache.Set(ctx, key, result, s.ttl); err != nil {
		s.logger.Warn("failed to cache stats", "key", key, "error", err)
		return
	}
	s.logger.Info("cached stats", "key", key, "ttl", s.ttl)
}

func (s *StatsService) record(ctx context.Context, username string, result *models.PlayerStatsResult) {
	if s.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	rec := &models.LookupRecord{
		ID:            uuid.NewString(),
		Username:      username,
		DisplayName:   result.Name,
		Outcome:       result.Outcome,
		MatchesPlayed: result.TotalMatches(),
		LookedUpAt:    time.Now().UTC(),
	}
	if err := s.recorder.RecordLookup(ctx, rec); err != nil {
		s.logger.Warn("failed to record lookup", "username", username, "error", err)
	}
}

func isMissingAccount(env *fortnite.Envelope) bool {
	return env.Status == http.StatusNotFound || strings.EqualFold(strings.TrimSpace(env.Error), invalidAccountError)
}
