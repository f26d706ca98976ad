package presenter

import (
	"slices"

	"finview/internal/core"
)

var rankingColors = map[string]string{
	"Iniciante":     "#E74C3C",
	"Aprendendo":    "#E67E22",
	"Intermediário": "#F1C40F",
	"Avançado":      "#2ECC71",
	"Especialista":  "#3498DB",
	"Mestre":        "#9B59B6",
	"Controlador":   "#FFD700",
}

// SortRanking returns a copy ordered by achieved goals, highest first. Ties keep input order.
func SortRanking(entries []core.RankingEntry) []core.RankingEntry {
	out := slices.Clone(entries)
	if out == nil {
		out = []core.RankingEntry{}
	}
	slices.SortStableFunc(out, func(a, b core.RankingEntry) int {
		return b.TotalGoalsAchieved - a.TotalGoalsAchieved
	})
	return out
}

// RankingLevelColor maps a level label to its color. Unknown labels get "".
func RankingLevelColor(label string) string {
	return rankingColors[label]
}
