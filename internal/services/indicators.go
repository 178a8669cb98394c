package services

import (
	"github.com/yourusername/fortnite-stats-analyzer/internal/models"
)

const noData = "No Data"

// PerformanceIndicators are the categorical labels embedded in the
// coaching prompt.
type PerformanceIndicators struct {
	PlacementConsistency string `json:"placementConsistency"`
	CombatEfficiency     string `json:"combatEfficiency"`
	SurvivalSkill        string `json:"survivalSkill"`
}

func CalculateIndicators(stats *models.GameModeStats) PerformanceIndicators {
	return PerformanceIndicators{
		PlacementConsistency: PlacementConsistency(stats),
		CombatEfficiency:     CombatEfficiency(stats.Kd),
		SurvivalSkill:        SurvivalSkill(stats),
	}
}

// PlacementConsistency grades the share of matches finished in the top 10.
func PlacementConsistency(stats *models.GameModeStats) string {
	if stats.MatchesPlayed == 0 {
		return noData
	}

	top10Rate := float64(derefInt(stats.Top10)) / float64(stats.MatchesPlayed)
	switch {
	case top10Rate >= 0.3:
		return "Excellent"
	case top10Rate >= 0.2:
		return "Good"
	case top10Rate >= 0.1:
		return "Average"
	default:
		return "Needs Work"
	}
}

func CombatEfficiency(kd float64) string {
	switch {
	case kd >= 2.0:
		return "Elite"
	case kd >= 1.5:
		return "Strong"
	case kd >= 1.0:
		return "Solid"
	case kd >= 0.5:
		return "Developing"
	default:
		return "Focus Needed"
	}
}

// SurvivalSkill grades average players outlived per match.
func SurvivalSkill(stats *models.GameModeStats) string {
	if stats.MatchesPlayed == 0 {
		return noData
	}

	outlived := float64(derefInt(stats.PlayersOutlived)) / float64(stats.MatchesPlayed)
	switch {
	case outlived >= 80:
		return "Excellent"
	case outlived >= 60:
		return "Good"
	case outlived >= 40:
		return "Average"
	default:
		return "Needs Work"
	}
}

// rate returns part/matches as a percentage, 0 when there are no matches.
func rate(part *int, matches int) float64 {
	if matches == 0 {
		return 0
	}
	return float64(derefInt(part)) / float64(matches) * 100
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
