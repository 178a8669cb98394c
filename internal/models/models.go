package models

import "time"

// Outcome tags how a stats lookup ended. Callers branch on it instead of
// inspecting error strings.
type Outcome string

const (
	OutcomeInvalidInput Outcome = "invalid_input"
	OutcomeUnavailable  Outcome = "unavailable"
	OutcomeParseFailed  Outcome = "parse_failed"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeRejected     Outcome = "rejected"
	OutcomeFound        Outcome = "found"
	OutcomeEmpty        Outcome = "empty"
)

// Retryable reports whether the failure came from transport or decoding
// rather than from the provider's answer about the account.
func (o Outcome) Retryable() bool {
	return o == OutcomeUnavailable || o == OutcomeParseFailed
}

// GameModeStats is one game mode's aggregate record. Pointer fields are
// absent when the provider does not supply them.
type GameModeStats struct {
	PlaceTop1     int     `json:"placeTop1"`
	Kd            float64 `json:"kd"`
	Winrate       float64 `json:"winrate"`
	Kills         int     `json:"kills"`
	MatchesPlayed int     `json:"matchesPlayed"`

	Top3            *int     `json:"top3,omitempty"`
	Top5            *int     `json:"top5,omitempty"`
	Top6            *int     `json:"top6,omitempty"`
	Top10           *int     `json:"top10,omitempty"`
	Top12           *int     `json:"top12,omitempty"`
	Top25           *int     `json:"top25,omitempty"`
	Score           *int     `json:"score,omitempty"`
	ScorePerMin     *float64 `json:"scorePerMin,omitempty"`
	ScorePerMatch   *float64 `json:"scorePerMatch,omitempty"`
	KillsPerMin     *float64 `json:"killsPerMin,omitempty"`
	KillsPerMatch   *float64 `json:"killsPerMatch,omitempty"`
	Deaths          *int     `json:"deaths,omitempty"`
	MinutesPlayed   *int     `json:"minutesPlayed,omitempty"`
	PlayersOutlived *int     `json:"playersOutlived,omitempty"`
	LastModified    *string  `json:"lastModified,omitempty"`
}

// HasMatches is true when the mode has at least one recorded match.
func (g *GameModeStats) HasMatches() bool {
	return g != nil && g.MatchesPlayed > 0
}

// GlobalStats holds lifetime stats, independent of input device.
type GlobalStats struct {
	Solo  *GameModeStats `json:"solo,omitempty"`
	Duo   *GameModeStats `json:"duo,omitempty"`
	Squad *GameModeStats `json:"squad,omitempty"`
}

// InputStats holds one input device's stats.
type InputStats struct {
	Solo  *GameModeStats `json:"solo,omitempty"`
	Duo   *GameModeStats `json:"duo,omitempty"`
	Squad *GameModeStats `json:"squad,omitempty"`
}

type PerInput struct {
	KeyboardMouse *InputStats `json:"keyboardMouse,omitempty"`
	Gamepad       *InputStats `json:"gamepad,omitempty"`
	Touch         *InputStats `json:"touch,omitempty"`
}

// AccountLevel is a battle pass progression entry.
type AccountLevel struct {
	Season      int `json:"season"`
	Level       int `json:"level"`
	ProgressPct int `json:"progressPct"`
}

// PlayerStatsResult is the normalized answer for one username. When Success
// is false the groupings are nil and Error is set.
type PlayerStatsResult struct {
	Success             bool           `json:"success"`
	Error               string         `json:"error,omitempty"`
	Outcome             Outcome        `json:"outcome"`
	Name                string         `json:"name,omitempty"`
	AccountID           string         `json:"accountId,omitempty"`
	AccountLevelHistory []AccountLevel `json:"accountLevelHistory,omitempty"`
	GlobalStats         *GlobalStats   `json:"globalStats,omitempty"`
	PerInput            *PerInput      `json:"perInput,omitempty"`
	SeasonUsed          *int           `json:"seasonUsed,omitempty"`
}

// NewFailure builds a failed result carrying a user-facing message.
func NewFailure(outcome Outcome, message string) *PlayerStatsResult {
	return &PlayerStatsResult{
		Success: false,
		Error:   message,
		Outcome: outcome,
	}
}

// Modes returns every present mode record across both groupings.
func (r *PlayerStatsResult) Modes() []*GameModeStats {
	if r == nil {
		return nil
	}

	var modes []*GameModeStats
	add := func(ms ...*GameModeStats) {
		for _, m := range ms {
			if m != nil {
				modes = append(modes, m)
			}
		}
	}

	if g := r.GlobalStats; g != nil {
		add(g.Solo, g.Duo, g.Squad)
	}
	if p := r.PerInput; p != nil {
		for _, in := range []*InputStats{p.KeyboardMouse, p.Gamepad, p.Touch} {
			if in != nil {
				add(in.Solo, in.Duo, in.Squad)
			}
		}
	}
	return modes
}

// HasMeaningfulStats is true when any mode has a non-zero match count.
func (r *PlayerStatsResult) HasMeaningfulStats() bool {
	for _, m := range r.Modes() {
		if m.HasMatches() {
			return true
		}
	}
	return false
}

// HasAnyModes is true when at least one mode record is present, even if all
// of them are zero.
func (r *PlayerStatsResult) HasAnyModes() bool {
	return len(r.Modes()) > 0
}

// TotalMatches sums lifetime matches across the global grouping.
func (r *PlayerStatsResult) TotalMatches() int {
	if r == nil || r.GlobalStats == nil {
		return 0
	}
	total := 0
	for _, m := range []*GameModeStats{r.GlobalStats.Solo, r.GlobalStats.Duo, r.GlobalStats.Squad} {
		if m != nil {
			total += m.MatchesPlayed
		}
	}
	return total
}

// LookupRecord is one persisted stats lookup.
type LookupRecord struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"displayName,omitempty"`
	Outcome       Outcome   `json:"outcome"`
	MatchesPlayed int       `json:"matchesPlayed"`
	LookedUpAt    time.Time `json:"lookedUpAt"`
}

// QuickFeedbackRequest carries the five scalar metrics used when no full
// mode record is available.
type QuickFeedbackRequest struct {
	GameMode string  `json:"gameMode"`
	Kd       float64 `json:"kd"`
	Winrate  float64 `json:"winrate"`
	Wins     int     `json:"wins"`
	Kills    int     `json:"kills"`
	Matches  int     `json:"matches"`
}

type FeedbackRequest struct {
	GameMode string         `json:"gameMode"`
	Stats    *GameModeStats `json:"stats"`
}

type FeedbackResponse struct {
	GameMode string `json:"gameMode"`
	Feedback string `json:"feedback"`
}
