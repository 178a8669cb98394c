package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yourusername/fortnite-stats-analyzer/internal/models"
	"github.com/yourusername/fortnite-stats-analyzer/pkg/cache"
)

type fakeGenerator struct {
	mu        sync.Mutex
	text      string
	err       error
	block     bool
	calls     int
	maxTokens int
	prompt    string
}

func (f *fakeGenerator) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error) {
	f.mu.Lock()
	f.calls++
	f.maxTokens = maxTokens
	f.prompt = userPrompt
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func newFeedbackService(gen TextGenerator, cfg FeedbackConfig) *FeedbackService {
	logger := newTestLogger()
	return NewFeedbackService(gen, cache.NewMemoryStore(logger), cfg, nil, logger)
}

func intPtr(v int) *int { return &v }

func TestCombatEfficiency(t *testing.T) {
	tests := []struct {
		kd   float64
		want string
	}{
		{2.5, "Elite"},
		{2.0, "Elite"},
		{1.99, "Strong"},
		{1.5, "Strong"},
		{1.2, "Solid"},
		{1.0, "Solid"},
		{0.99, "Developing"},
		{0.5, "Developing"},
		{0.49, "Focus Needed"},
		{0.3, "Focus Needed"},
		{0, "Focus Needed"},
	}

	for _, tt := range tests {
		if got := CombatEfficiency(tt.kd); got != tt.want {
			t.Errorf("CombatEfficiency(%v) = %q, want %q", tt.kd, got, tt.want)
		}
	}
}

func TestPlacementConsistency(t *testing.T) {
	tests := []struct {
		name  string
		stats models.GameModeStats
		want  string
	}{
		{"no matches", models.GameModeStats{}, "No Data"},
		{"30 percent", models.GameModeStats{MatchesPlayed: 100, Top10: intPtr(30)}, "Excellent"},
		{"20 percent", models.GameModeStats{MatchesPlayed: 100, Top10: intPtr(20)}, "Good"},
		{"10 percent", models.GameModeStats{MatchesPlayed: 100, Top10: intPtr(10)}, "Average"},
		{"5 percent", models.GameModeStats{MatchesPlayed: 100, Top10: intPtr(5)}, "Needs Work"},
		{"top10 absent", models.GameModeStats{MatchesPlayed: 100}, "Needs Work"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlacementConsistency(&tt.stats); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSurvivalSkill(t *testing.T) {
	tests := []struct {
		name  string
		stats models.GameModeStats
		want  string
	}{
		{"no matches", models.GameModeStats{}, "No Data"},
		{"80 per match", models.GameModeStats{MatchesPlayed: 10, PlayersOutlived: intPtr(800)}, "Excellent"},
		{"60 per match", models.GameModeStats{MatchesPlayed: 10, PlayersOutlived: intPtr(600)}, "Good"},
		{"40 per match", models.GameModeStats{MatchesPlayed: 10, PlayersOutlived: intPtr(400)}, "Average"},
		{"39 per match", models.GameModeStats{MatchesPlayed: 10, PlayersOutlived: intPtr(390)}, "Needs Work"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SurvivalSkill(&tt.stats); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateFeedback_Success(t *testing.T) {
	gen := &fakeGenerator{text: "🎯 **Performance Analysis** solid."}
	svc := newFeedbackService(gen, DefaultFeedbackConfig())
	stats := &models.GameModeStats{Kd: 2.5, Winrate: 0.1, PlaceTop1: 10, Kills: 250, MatchesPlayed: 100, Top10: intPtr(35)}

	got := svc.GenerateFeedback(context.Background(), stats, "solo")
	if got != gen.text {
		t.Errorf("feedback = %q", got)
	}
	if gen.maxTokens != 600 {
		t.Errorf("maxTokens = %d, want 600", gen.maxTokens)
	}
	for _, want := range []string{"K/D Ratio: 2.50", "Win Rate: 10.0%", "Combat Efficiency: Elite", "Placement Consistency: Excellent", "Top 10 Finishes: 35 (35.0%)"} {
		if !strings.Contains(gen.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateFeedback_CachedByRoundedStats(t *testing.T) {
	gen := &fakeGenerator{text: "feedback"}
	svc := newFeedbackService(gen, DefaultFeedbackConfig())
	ctx := context.Background()

	svc.GenerateFeedback(ctx, &models.GameModeStats{Kd: 1.234, Winrate: 0.101, PlaceTop1: 1, Kills: 2, MatchesPlayed: 3}, "duo")
	got := svc.GenerateFeedback(ctx, &models.GameModeStats{Kd: 1.2349, Winrate: 0.1049, PlaceTop1: 1, Kills: 2, MatchesPlayed: 3}, "duo")

	if got != "feedback" {
		t.Errorf("feedback = %q", got)
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}

	svc.GenerateFeedback(ctx, &models.GameModeStats{Kd: 1.234, Winrate: 0.101, PlaceTop1: 1, Kills: 2, MatchesPlayed: 3}, "squad")
	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2 (different mode)", gen.calls)
	}
}

func TestGenerateFeedback_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"provider error", &fakeGenerator{err: errors.New("OpenAI API error: 500")}},
		{"empty text", &fakeGenerator{text: "   "}},
		{"timeout", &fakeGenerator{block: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultFeedbackConfig()
			cfg.Timeout = 20 * time.Millisecond
			svc := newFeedbackService(tt.gen, cfg)
			stats := &models.GameModeStats{Kd: 1.25, Winrate: 0.2, PlaceTop1: 4, Kills: 30, MatchesPlayed: 20}

			got := svc.GenerateFeedback(context.Background(), stats, "solo")
			if strings.TrimSpace(got) == "" {
				t.Fatal("fallback is empty")
			}
			if !strings.Contains(got, "1.25") || !strings.Contains(got, "20.0%") {
				t.Errorf("fallback missing kd or win rate: %q", got)
			}

			// Fallbacks are not cached.
			svc.GenerateFeedback(context.Background(), stats, "solo")
			if tt.gen.calls != 2 {
				t.Errorf("generator calls = %d, want 2", tt.gen.calls)
			}
		})
	}
}

func TestGenerateFeedback_NilStats(t *testing.T) {
	svc := newFeedbackService(&fakeGenerator{err: errors.New("down")}, DefaultFeedbackConfig())
	if got := svc.GenerateFeedback(context.Background(), nil, "solo"); got == "" {
		t.Error("feedback is empty")
	}
}

func TestGenerateQuickFeedback(t *testing.T) {
	gen := &fakeGenerator{text: "quick"}
	svc := newFeedbackService(gen, DefaultFeedbackConfig())
	ctx := context.Background()

	got := svc.GenerateQuickFeedback(ctx, 0.8, 0.05, 2, 40, 50, "squad")
	if got != "quick" {
		t.Errorf("feedback = %q", got)
	}
	if gen.maxTokens != 300 {
		t.Errorf("maxTokens = %d, want 300", gen.maxTokens)
	}
	if !strings.Contains(gen.prompt, "Combat Efficiency: Developing") {
		t.Errorf("prompt = %q", gen.prompt)
	}

	svc.GenerateQuickFeedback(ctx, 0.8, 0.05, 2, 40, 50, "squad")
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}

	// The quick and detailed variants do not share cache entries.
	svc.GenerateFeedback(ctx, &models.GameModeStats{Kd: 0.8, Winrate: 0.05, PlaceTop1: 2, Kills: 40, MatchesPlayed: 50}, "squad")
	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2", gen.calls)
	}
}

func TestGenerateQuickFeedback_Fallback(t *testing.T) {
	svc := newFeedbackService(&fakeGenerator{err: errors.New("down")}, DefaultFeedbackConfig())

	got := svc.GenerateQuickFeedback(context.Background(), 3.1, 0.256, 9, 100, 35, "duo")
	if !strings.Contains(got, "3.10") || !strings.Contains(got, "25.6%") {
		t.Errorf("fallback = %q", got)
	}
}

func TestFeedbackCacheKey(t *testing.T) {
	got := FeedbackCacheKey("Solo", 1.005, 0.2, 5, 50, 25)
	if !strings.HasPrefix(got, "feedback:solo:") || !strings.HasSuffix(got, ":0.20:5:50:25") {
		t.Errorf("key = %q", got)
	}
}
