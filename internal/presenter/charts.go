package presenter

import (
	"finview/internal/core"
)

// Chart colors.
const (
	ColorPositive   = "#4DDD7F"
	ColorNegative   = "#FF6B6B"
	ColorProjection = "#FF9800"
)

// Chart kinds.
const (
	ChartLine  = "line"
	ChartBar   = "bar"
	ChartDonut = "doughnut"
)

// ChartPoint is one labelled value.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// ChartSeries is a chart-ready dataset.
type ChartSeries struct {
	ChartType string       `json:"chartType"`
	Title     string       `json:"title"`
	Color     string       `json:"color,omitempty"`
	Points    []ChartPoint `json:"points"`
}

// Labels returns the point labels in order.
func (s ChartSeries) Labels() []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Label
	}
	return out
}

// Values returns the point values in order.
func (s ChartSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// BalanceChart is the balance history line. labelDate renders the x axis.
func BalanceChart(points []core.BalancePoint, labelDate func(core.Date) string) ChartSeries {
	s := ChartSeries{ChartType: ChartLine, Title: "Balance", Color: ColorPositive, Points: make([]ChartPoint, 0, len(points))}
	for _, p := range points {
		s.Points = append(s.Points, ChartPoint{Label: labelDate(p.Date), Value: p.Balance.InexactFloat64()})
	}
	return s
}

// GoalsDonut always has two slices: completed then pending.
func GoalsDonut(summary core.GoalsSummary) ChartSeries {
	return ChartSeries{
		ChartType: ChartDonut,
		Title:     "Goals",
		Points: []ChartPoint{
			{Label: "Completed", Value: float64(summary.Completed), Color: ColorPositive},
			{Label: "Pending", Value: float64(summary.Pending), Color: ColorNegative},
		},
	}
}

// DistributionChart is the achievements-by-period bar chart, in input order.
func DistributionChart(items []core.AchievementsByPeriod) ChartSeries {
	s := ChartSeries{ChartType: ChartBar, Title: "Achievements", Color: ColorPositive, Points: make([]ChartPoint, 0, len(items))}
	for _, it := range items {
		s.Points = append(s.Points, ChartPoint{Label: it.PeriodType, Value: float64(it.TotalAchievements)})
	}
	return s
}

// ProjectionChart is the projected balance line, in input order.
func ProjectionChart(items []core.ProjectedBalance) ChartSeries {
	s := ChartSeries{ChartType: ChartLine, Title: "Projection", Color: ColorProjection, Points: make([]ChartPoint, 0, len(items))}
	for _, it := range items {
		s.Points = append(s.Points, ChartPoint{Label: it.PeriodLabel, Value: it.ProjectedBalance.InexactFloat64()})
	}
	return s
}
