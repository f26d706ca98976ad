package presenter

import (
	"finview/internal/core"
	"finview/internal/format"
)

// GoalRow is a goal with its display strings.
type GoalRow struct {
	core.Goal
	ValueText   string `json:"valueText"`
	PeriodLabel string `json:"periodLabel"`
	StatusText  string `json:"statusText"`
	DueText     string `json:"dueText"`
	DueLabel    string `json:"dueLabel"`
}

// TransactionRow is a transaction with its display strings.
type TransactionRow struct {
	core.Transaction
	AmountText      string `json:"amountText"`
	TypeLabel       string `json:"typeLabel"`
	RecurrenceLabel string `json:"recurrenceLabel"`
	DateText        string `json:"dateText"`
	DateLabel       string `json:"dateLabel"`
}

// RankingRow is a leaderboard entry with its position and level color.
type RankingRow struct {
	core.RankingEntry
	Position    int    `json:"position"`
	LevelColor  string `json:"levelColor"`
	CreatedText string `json:"createdText"`
}

// Rows renders display rows with a formatter and a clock.
type Rows struct {
	Format *format.Formatter
	Clock  format.Clock
}

// Goals renders goal rows. One-time goals are labelled by their single date,
// recurring goals by their start date.
func (r Rows) Goals(goals []core.Goal) []GoalRow {
	out := make([]GoalRow, 0, len(goals))
	for _, g := range goals {
		due := g.StartDate
		if g.IsOneTime() {
			due = g.SingleDate
		}
		out = append(out, GoalRow{
			Goal:        g,
			ValueText:   r.Format.Currency(g.Value),
			PeriodLabel: g.PeriodType.String(),
			StatusText:  g.StatusText(),
			DueText:     r.Format.Date(due),
			DueLabel:    format.DaysUntil(r.Clock, due),
		})
	}
	return out
}

// Transactions renders transaction rows in the given order.
func (r Rows) Transactions(txs []core.Transaction) []TransactionRow {
	out := make([]TransactionRow, 0, len(txs))
	for _, tx := range txs {
		out = append(out, TransactionRow{
			Transaction:     tx,
			AmountText:      r.Format.Currency(tx.Amount),
			TypeLabel:       tx.Type.String(),
			RecurrenceLabel: tx.RecurrenceType.String(),
			DateText:        r.Format.Date(tx.TransactionDate),
			DateLabel:       format.DaysUntil(r.Clock, tx.TransactionDate),
		})
	}
	return out
}

// Ranking sorts entries and renders them with 1-based positions.
func (r Rows) Ranking(entries []core.RankingEntry) []RankingRow {
	sorted := SortRanking(entries)
	out := make([]RankingRow, 0, len(sorted))
	for i, e := range sorted {
		out = append(out, RankingRow{
			RankingEntry: e,
			Position:     i + 1,
			LevelColor:   RankingLevelColor(e.EnvironmentLevel),
			CreatedText:  r.Format.Date(e.CreationTime),
		})
	}
	return out
}
