package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FinancialSummary is the headline block of the dashboard.
type FinancialSummary struct {
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	TotalProfit    decimal.Decimal `json:"totalProfit"`
	TotalExpense   decimal.Decimal `json:"totalExpense"`
	ProfitMargin   string          `json:"profitMargin"`
	Level          FinancialLevel  `json:"level"`
}

// BalancePoint is one sample of the balance history.
type BalancePoint struct {
	Date    Date            `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

// GoalsSummary counts one-time goals by outcome.
type GoalsSummary struct {
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// UnplannedExpensesAnalysis compares unplanned spending with profits.
// Percentage arrives preformatted (e.g. "33%") and is shown as is.
type UnplannedExpensesAnalysis struct {
	TotalUnplannedExpenses decimal.Decimal `json:"totalUnexpectedExpenses"`
	TotalProfits           decimal.Decimal `json:"totalProfits"`
	Percentage             string          `json:"percentage"`
	AlertLevel             string          `json:"alertLevel"`
}

var alertColors = map[string]string{
	"baixo":    "#4DDD7F",
	"low":      "#4DDD7F",
	"moderado": "#FF9800",
	"moderate": "#FF9800",
	"alto":     "#FF5252",
	"high":     "#FF5252",
}

// AlertColor maps the alert level to its badge color.
func (a UnplannedExpensesAnalysis) AlertColor() string {
	if c, ok := alertColors[strings.ToLower(strings.TrimSpace(a.AlertLevel))]; ok {
		return c
	}
	return NeutralColor
}

// TopGoal is an entry of the most achieved recurring goals.
type TopGoal struct {
	AchievementsCount int             `json:"achievementsCount"`
	GoalNumber        int             `json:"goalNumber"`
	Description       string          `json:"description"`
	Value             decimal.Decimal `json:"value"`
}

// AchievementsByPeriod counts achieved goals for one period type label.
type AchievementsByPeriod struct {
	PeriodType        string `json:"periodType"`
	TotalAchievements int    `json:"totalAchievements"`
}

// ProjectedBalance is one point of the balance projection.
type ProjectedBalance struct {
	PeriodLabel      string          `json:"periodLabel"`
	ProjectedBalance decimal.Decimal `json:"projectedBalance"`
}

// BalanceFilter bounds the balance history query.
type BalanceFilter struct {
	Start Date `json:"startDate"`
	End   Date `json:"endDate"`
}

// ProjectionFilter selects the projection horizon in months or years.
type ProjectionFilter struct {
	PeriodValue int  `json:"periodValue"`
	IsYear      bool `json:"isYear"`
}

// BalanceEdit is the body of the balance overwrite call.
type BalanceEdit struct {
	Value decimal.Decimal `json:"value"`
}

// RankingEntry is one row of the leaderboard.
type RankingEntry struct {
	UserName           string `json:"userName"`
	TotalGoalsAchieved int    `json:"totalGoalsAchieved"`
	EnvironmentLevel   string `json:"environmentLevel"`
	CreationTime       Date   `json:"creationTime"`
}
