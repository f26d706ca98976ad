package app

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"finview/internal/amqp"
	"finview/internal/core"
	"finview/internal/log"
	"finview/internal/presenter"
)

// dashboardState is the raw backend data behind the dashboard. Nil pointers mean not loaded.
type dashboardState struct {
	summary          *core.FinancialSummary
	balance          []core.BalancePoint
	goals            *core.GoalsSummary
	unplanned        *core.UnplannedExpensesAnalysis
	distribution     []core.AchievementsByPeriod
	projection       []core.ProjectedBalance
	balanceFilter    core.BalanceFilter
	projectionFilter core.ProjectionFilter
}

// SummaryView is the financial summary with its display strings.
type SummaryView struct {
	core.FinancialSummary
	CurrentBalanceText string `json:"currentBalanceText"`
	TotalProfitText    string `json:"totalProfitText"`
	TotalExpenseText   string `json:"totalExpenseText"`
	LevelLabel         string `json:"levelLabel"`
	LevelColor         string `json:"levelColor"`
}

// AnalysisView is the unplanned expense analysis with its alert color.
type AnalysisView struct {
	core.UnplannedExpensesAnalysis
	AlertColor string `json:"alertColor"`
}

// TopGoalRow is a top achieved goal with its formatted value.
type TopGoalRow struct {
	core.TopGoal
	ValueText string `json:"valueText"`
}

// DashboardView is everything the dashboard renders.
type DashboardView struct {
	Summary          *SummaryView                   `json:"summary"`
	Unplanned        *AnalysisView                  `json:"unplannedExpenses"`
	BalanceChart     presenter.ChartSeries          `json:"balanceChart"`
	GoalsChart       *presenter.ChartSeries         `json:"goalsChart"`
	Distribution     presenter.ChartSeries          `json:"distributionChart"`
	Projection       presenter.ChartSeries          `json:"projectionChart"`
	TopGoals         presenter.PageView[TopGoalRow] `json:"topGoals"`
	BalanceFilter    core.BalanceFilter             `json:"balanceFilter"`
	ProjectionFilter core.ProjectionFilter          `json:"projectionFilter"`
}

// DashboardFilters overrides the held filters; nil fields keep the current ones.
type DashboardFilters struct {
	Balance    *core.BalanceFilter
	Projection *core.ProjectionFilter
}

// defaultDashboard starts with the balance window ending today and the default projection.
func (c *Controller) defaultDashboard() dashboardState {
	today := core.DateOf(c.clock.Now())
	return dashboardState{
		balanceFilter: core.BalanceFilter{
			Start: core.DateOf(today.AddDate(0, -c.cfg.BalanceWindowMonths, 0)),
			End:   today,
		},
		projectionFilter: core.ProjectionFilter{
			PeriodValue: c.cfg.ProjectionPeriod,
			IsYear:      c.cfg.ProjectionIsYear,
		},
	}
}

// Dashboard renders the dashboard from the held data.
func (c *Controller) Dashboard() DashboardView {
	c.mu.RLock()
	d := c.dash
	top := c.topGoals.View()
	c.mu.RUnlock()

	f := c.formatter
	view := DashboardView{
		BalanceChart:     presenter.BalanceChart(d.balance, f.Date),
		Distribution:     presenter.DistributionChart(d.distribution),
		Projection:       presenter.ProjectionChart(d.projection),
		BalanceFilter:    d.balanceFilter,
		ProjectionFilter: d.projectionFilter,
		TopGoals: presenter.PageView[TopGoalRow]{
			Items:      make([]TopGoalRow, 0, len(top.Items)),
			Page:       top.Page,
			TotalPages: top.TotalPages,
			HasNext:    top.HasNext,
			HasPrev:    top.HasPrev,
		},
	}
	for _, g := range top.Items {
		view.TopGoals.Items = append(view.TopGoals.Items, TopGoalRow{TopGoal: g, ValueText: f.Currency(g.Value)})
	}
	if d.summary != nil {
		s := *d.summary
		view.Summary = &SummaryView{
			FinancialSummary:   s,
			CurrentBalanceText: f.Currency(s.CurrentBalance),
			TotalProfitText:    f.Currency(s.TotalProfit),
			TotalExpenseText:   f.Currency(s.TotalExpense),
			LevelLabel:         s.Level.String(),
			LevelColor:         s.Level.Color(),
		}
	}
	if d.unplanned != nil {
		view.Unplanned = &AnalysisView{UnplannedExpensesAnalysis: *d.unplanned, AlertColor: d.unplanned.AlertColor()}
	}
	if d.goals != nil {
		chart := presenter.GoalsDonut(*d.goals)
		view.GoalsChart = &chart
	}
	return view
}

// LoadDashboard refreshes the backend balance, then fetches the seven dashboard
// reads concurrently. Each failed read posts its own message and leaves the
// others applied. filters may be nil.
func (c *Controller) LoadDashboard(ctx context.Context, filters *DashboardFilters) (DashboardView, error) {
	c.applyFilters(filters)

	if err := c.backend.RefreshTotalBalance(ctx); err != nil {
		return c.Dashboard(), c.backendError(ctx, "dashboard.refresh", err, "Failed to refresh the balance before loading the dashboard.")
	}

	c.mu.RLock()
	bf, pf := c.dash.balanceFilter, c.dash.projectionFilter
	c.mu.RUnlock()

	var g errgroup.Group
	g.Go(func() error { return c.loadSummary(ctx) })
	g.Go(func() error { return c.loadBalance(ctx, bf) })
	g.Go(func() error {
		s, err := c.backend.NonRecurringGoals(ctx)
		if err != nil {
			return c.backendError(ctx, "dashboard.goals_summary", err, "Failed to load the goals summary.")
		}
		c.mu.Lock()
		c.dash.goals = &s
		c.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		a, err := c.backend.UnplannedExpensesAnalysis(ctx)
		if err != nil {
			return c.backendError(ctx, "dashboard.unplanned_expenses", err, "Failed to load the unplanned expenses analysis.")
		}
		c.mu.Lock()
		c.dash.unplanned = &a
		c.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		top, err := c.backend.TopGoalsAchieved(ctx)
		if err != nil {
			return c.backendError(ctx, "dashboard.top_goals", err, "Failed to load the most achieved goals.")
		}
		c.mu.Lock()
		c.topGoals.Reset(top)
		c.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		dist, err := c.backend.GoalsDistribution(ctx)
		if err != nil {
			return c.backendError(ctx, "dashboard.distribution", err, "Failed to load the goals distribution.")
		}
		c.mu.Lock()
		c.dash.distribution = dist
		c.mu.Unlock()
		return nil
	})
	g.Go(func() error { return c.loadProjection(ctx, pf) })

	err := g.Wait()
	return c.Dashboard(), err
}

func (c *Controller) applyFilters(filters *DashboardFilters) {
	if filters == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if filters.Balance != nil {
		c.dash.balanceFilter = *filters.Balance
	}
	if filters.Projection != nil {
		c.dash.projectionFilter = *filters.Projection
	}
}

func (c *Controller) loadSummary(ctx context.Context) error {
	s, err := c.backend.FinancialSummary(ctx)
	if err != nil {
		return c.backendError(ctx, "dashboard.summary", err, "Failed to load the financial summary.")
	}
	c.mu.Lock()
	c.dash.summary = &s
	c.mu.Unlock()
	return nil
}

func (c *Controller) loadBalance(ctx context.Context, f core.BalanceFilter) error {
	points, err := c.backend.BalanceOverTime(ctx, f)
	if err != nil {
		return c.backendError(ctx, "dashboard.balance", err, "Failed to load the balance history.")
	}
	c.mu.Lock()
	c.dash.balance = points
	c.mu.Unlock()
	return nil
}

func (c *Controller) loadProjection(ctx context.Context, f core.ProjectionFilter) error {
	items, err := c.backend.BalanceProjection(ctx, f)
	if err != nil {
		return c.backendError(ctx, "dashboard.projection", err, "Failed to load the balance projection.")
	}
	c.mu.Lock()
	c.dash.projection = items
	c.mu.Unlock()
	return nil
}

// FilterBalance reloads only the balance history for f.
func (c *Controller) FilterBalance(ctx context.Context, f core.BalanceFilter) (DashboardView, error) {
	c.applyFilters(&DashboardFilters{Balance: &f})
	err := c.loadBalance(ctx, f)
	return c.Dashboard(), err
}

// FilterProjection reloads only the projection for f.
func (c *Controller) FilterProjection(ctx context.Context, f core.ProjectionFilter) (DashboardView, error) {
	c.applyFilters(&DashboardFilters{Projection: &f})
	err := c.loadProjection(ctx, f)
	return c.Dashboard(), err
}

// EditBalance sends the new balance. On success only the held summary's
// balance is overwritten; the other summary fields stay as last loaded.
func (c *Controller) EditBalance(ctx context.Context, value decimal.Decimal) error {
	if err := c.backend.EditBalance(ctx, value); err != nil {
		return c.backendError(ctx, "dashboard.edit_balance", err, "Failed to update the current balance.")
	}

	c.mu.Lock()
	if c.dash.summary != nil {
		s := *c.dash.summary
		s.CurrentBalance = value
		c.dash.summary = &s
	}
	c.mu.Unlock()

	c.succeed("Balance updated successfully!")
	c.publish(ctx, amqp.EntityBalance, amqp.ActionUpdated, "")
	return nil
}

// NextTopGoals moves the top goals pager forward; a no-op on the last page.
func (c *Controller) NextTopGoals() presenter.PageView[TopGoalRow] {
	c.mu.Lock()
	c.topGoals.Next()
	c.mu.Unlock()
	return c.Dashboard().TopGoals
}

// PreviousTopGoals moves the top goals pager back; a no-op on the first page.
func (c *Controller) PreviousTopGoals() presenter.PageView[TopGoalRow] {
	c.mu.Lock()
	c.topGoals.Previous()
	c.mu.Unlock()
	return c.Dashboard().TopGoals
}

// Ranking renders the held leaderboard.
func (c *Controller) Ranking() []presenter.RankingRow {
	c.mu.RLock()
	entries := slices.Clone(c.ranking)
	c.mu.RUnlock()
	return c.rows().Ranking(entries)
}

// LoadRanking fetches the leaderboard.
func (c *Controller) LoadRanking(ctx context.Context) ([]presenter.RankingRow, error) {
	entries, err := c.backend.Ranking(ctx)
	if err != nil {
		return c.Ranking(), c.backendError(ctx, "ranking."+log.OpList, err, "Failed to load the ranking.")
	}
	c.mu.Lock()
	c.ranking = entries
	c.mu.Unlock()
	return c.Ranking(), nil
}
