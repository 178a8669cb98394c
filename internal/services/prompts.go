package services

import (
	"fmt"
	"strings"

	"github.com/yourusername/fortnite-stats-analyzer/internal/models"
)

const detailedSystemPrompt = `You are an experienced Fortnite coach giving detailed, practical feedback from a player's statistics.

Answer in exactly three sections with these headers:
🎯 **Performance Analysis**
💡 **Key Improvements**
🚀 **Action Plan**

Write 3-4 sentences per section and use bullet points for improvements and action items.
Be direct and encouraging, and speak the game's language (box fights, rotations, zone positioning, endgame).
Base the analysis on all of the numbers provided.`

const quickSystemPrompt = `You are an experienced Fortnite coach giving short, practical feedback.

Answer in exactly three sections with these headers:
🎯 **Performance Analysis**
💡 **Key Improvements**
🚀 **Action Plan**

Keep each section to 2-3 short sentences and use bullet points for improvements and action items.
Be direct and encouraging. Only give the advice with the biggest impact.`

func buildDetailedPrompt(stats *models.GameModeStats, gameMode string) string {
	ind := CalculateIndicators(stats)

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze these Fortnite %s statistics:\n\n", gameMode)

	b.WriteString("Core Performance:\n")
	fmt.Fprintf(&b, "• K/D Ratio: %.2f\n", stats.Kd)
	fmt.Fprintf(&b, "• Win Rate: %.1f%%\n", stats.Winrate*100)
	fmt.Fprintf(&b, "• Wins: %d\n", stats.PlaceTop1)
	fmt.Fprintf(&b, "• Total Kills: %d\n", stats.Kills)
	fmt.Fprintf(&b, "• Matches Played: %d\n\n", stats.MatchesPlayed)

	b.WriteString("Placement Consistency:\n")
	fmt.Fprintf(&b, "• Top 3 Finishes: %d (%.1f%%)\n", derefInt(stats.Top3), rate(stats.Top3, stats.MatchesPlayed))
	fmt.Fprintf(&b, "• Top 5 Finishes: %d (%.1f%%)\n", derefInt(stats.Top5), rate(stats.Top5, stats.MatchesPlayed))
	fmt.Fprintf(&b, "• Top 10 Finishes: %d (%.1f%%)\n\n", derefInt(stats.Top10), rate(stats.Top10, stats.MatchesPlayed))

	b.WriteString("Combat & Survival:\n")
	fmt.Fprintf(&b, "• Deaths: %d\n", derefInt(stats.Deaths))
	fmt.Fprintf(&b, "• Kills Per Minute: %.2f\n", derefFloat(stats.KillsPerMin))
	fmt.Fprintf(&b, "• Kills Per Match: %.2f\n", derefFloat(stats.KillsPerMatch))
	fmt.Fprintf(&b, "• Minutes Played: %d\n", derefInt(stats.MinutesPlayed))
	fmt.Fprintf(&b, "• Players Outlived: %d\n\n", derefInt(stats.PlayersOutlived))

	b.WriteString("Performance Indicators:\n")
	fmt.Fprintf(&b, "• Placement Consistency: %s\n", ind.PlacementConsistency)
	fmt.Fprintf(&b, "• Combat Efficiency: %s\n", ind.CombatEfficiency)
	fmt.Fprintf(&b, "• Survival Skill: %s\n\n", ind.SurvivalSkill)

	b.WriteString("Give the analysis in exactly three sections:\n")
	b.WriteString("1. Performance Analysis: combat versus survival balance, placement consistency and overall skill level\n")
	b.WriteString("2. Key Improvements: 3-4 bullet points on the weakest areas\n")
	b.WriteString("3. Action Plan: 3-4 concrete practice steps as bullet points\n\n")
	b.WriteString("Stay under 500 words.")
	return b.String()
}

func buildQuickPrompt(kd, winrate float64, wins, kills, matches int, gameMode string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze these Fortnite %s stats:\n\n", gameMode)
	fmt.Fprintf(&b, "• K/D Ratio: %.2f\n", kd)
	fmt.Fprintf(&b, "• Win Rate: %.1f%%\n", winrate*100)
	fmt.Fprintf(&b, "• Wins: %d\n", wins)
	fmt.Fprintf(&b, "• Total Kills: %d\n", kills)
	fmt.Fprintf(&b, "• Matches Played: %d\n", matches)
	fmt.Fprintf(&b, "• Combat Efficiency: %s\n\n", CombatEfficiency(kd))
	b.WriteString("Give the analysis in exactly three sections:\n")
	b.WriteString("1. Performance Analysis: a brief skill assessment\n")
	b.WriteString("2. Key Improvements: 2-3 bullet points\n")
	b.WriteString("3. Action Plan: 2-3 concrete practice steps as bullet points\n\n")
	b.WriteString("Stay under 200 words.")
	return b.String()
}
