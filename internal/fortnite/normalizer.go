package fortnite

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yourusername/fortnite-stats-analyzer/internal/models"
)

// ErrNormalize means the data section did not have the expected shape.
var ErrNormalize = errors.New("failed to normalize stats payload")

// The payload does not expose the current season, so battle pass entries
// are stamped with a fixed one.
const placeholderSeason = 31

type apiData struct {
	Account *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"account"`
	BattlePass *struct {
		Level    int `json:"level"`
		Progress int `json:"progress"`
	} `json:"battlePass"`
	Stats *struct {
		All           *apiModes `json:"all"`
		KeyboardMouse *apiModes `json:"keyboardMouse"`
		Gamepad       *apiModes `json:"gamepad"`
		Touch         *apiModes `json:"touch"`
	} `json:"stats"`
}

type apiModes struct {
	Solo  *apiMode `json:"solo"`
	Duo   *apiMode `json:"duo"`
	Squad *apiMode `json:"squad"`
}

type apiMode struct {
	Wins    *int     `json:"wins"`
	Kd      *float64 `json:"kd"`
	WinRate *float64 `json:"winRate"`
	Kills   *int     `json:"kills"`
	Matches *int     `json:"matches"`

	Top3            *int     `json:"top3"`
	Top5            *int     `json:"top5"`
	Top6            *int     `json:"top6"`
	Top10           *int     `json:"top10"`
	Top12           *int     `json:"top12"`
	Top25           *int     `json:"top25"`
	Score           *int     `json:"score"`
	ScorePerMin     *float64 `json:"scorePerMin"`
	ScorePerMatch   *float64 `json:"scorePerMatch"`
	KillsPerMin     *float64 `json:"killsPerMin"`
	KillsPerMatch   *float64 `json:"killsPerMatch"`
	Deaths          *int     `json:"deaths"`
	MinutesPlayed   *int     `json:"minutesPlayed"`
	PlayersOutlived *int     `json:"playersOutlived"`
	LastModified    *string  `json:"lastModified"`
}

// Normalize translates the provider's data section into a PlayerStatsResult.
// It does no I/O. The result's Outcome is Found when any mode has matches,
// Empty otherwise.
func Normalize(data json.RawMessage, fallbackName string) (*models.PlayerStatsResult, error) {
	var d apiData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNormalize, err)
	}

	result := &models.PlayerStatsResult{
		Success: true,
		Name:    fallbackName,
	}

	if d.Account != nil {
		if d.Account.Name != "" {
			result.Name = d.Account.Name
		}
		result.AccountID = d.Account.ID
	}

	if d.BattlePass != nil {
		season := placeholderSeason
		result.SeasonUsed = &season
		result.AccountLevelHistory = []models.AccountLevel{{
			Season:      season,
			Level:       d.BattlePass.Level,
			ProgressPct: d.BattlePass.Progress,
		}}
	}

	if s := d.Stats; s != nil {
		if s.All != nil {
			result.GlobalStats = &models.GlobalStats{
				Solo:  convertMode(s.All.Solo),
				Duo:   convertMode(s.All.Duo),
				Squad: convertMode(s.All.Squad),
			}
		}

		perInput := &models.PerInput{
			KeyboardMouse: convertInput(s.KeyboardMouse),
			Gamepad:       convertInput(s.Gamepad),
			Touch:         convertInput(s.Touch),
		}
		if perInput.KeyboardMouse != nil || perInput.Gamepad != nil || perInput.Touch != nil {
			result.PerInput = perInput
		}
	}

	result.Outcome = models.OutcomeEmpty
	if result.HasMeaningfulStats() {
		result.Outcome = models.OutcomeFound
	}
	return result, nil
}

func convertInput(m *apiModes) *models.InputStats {
	if m == nil {
		return nil
	}
	return &models.InputStats{
		Solo:  convertMode(m.Solo),
		Duo:   convertMode(m.Duo),
		Squad: convertMode(m.Squad),
	}
}

func convertMode(m *apiMode) *models.GameModeStats {
	if m == nil {
		return nil
	}
	return &models.GameModeStats{
		PlaceTop1:     intOrZero(m.Wins),
		Kd:            floatOrZero(m.Kd),
		Winrate:       floatOrZero(m.WinRate),
		Kills:         intOrZero(m.Kills),
		MatchesPlayed: intOrZero(m.Matches),

		Top3:            m.Top3,
		Top5:            m.Top5,
		Top6:            m.Top6,
		Top10:           m.Top10,
		Top12:           m.Top12,
		Top25:           m.Top25,
		Score:           m.Score,
		ScorePerMin:     m.ScorePerMin,
		ScorePerMatch:   m.ScorePerMatch,
		KillsPerMin:     m.KillsPerMin,
		KillsPerMatch:   m.KillsPerMatch,
		Deaths:          m.Deaths,
		MinutesPlayed:   m.MinutesPlayed,
		PlayersOutlived: m.PlayersOutlived,
		LastModified:    m.LastModified,
	}
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
