package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"finview/internal/core"
)

var hundred = decimal.NewFromInt(100)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func signed(tx core.Transaction) decimal.Decimal {
	if tx.Type == core.TransactionExpense {
		return tx.Amount.Neg()
	}
	return tx.Amount
}

// computedBalance sums every transaction dated up to today.
func (e *environment) computedBalance(today core.Date) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range e.transactions {
		if tx.TransactionDate.Compare(today) <= 0 {
			total = total.Add(signed(tx))
		}
	}
	return total
}

func (e *environment) achieved() int {
	n := 0
	for _, g := range e.goals {
		if g.IsOneTime() {
			if g.Status != nil && *g.Status {
				n++
			}
			continue
		}
		n += g.achievements
	}
	return n
}

// level grows with achieved goals, capped at the top tier.
func level(achieved int) core.FinancialLevel {
	l := core.FinancialLevel(achieved / 5)
	if achieved > 0 && l == core.LevelNone {
		l = core.LevelBeginner
	}
	return min(l, core.LevelFinancialController)
}

var rankingLabels = map[core.FinancialLevel]string{
	core.LevelBeginner:            "Iniciante",
	core.LevelLearning:            "Aprendendo",
	core.LevelIntermediate:        "Intermediário",
	core.LevelAdvanced:            "Avançado",
	core.LevelExpert:              "Especialista",
	core.LevelMaster:              "Mestre",
	core.LevelFinancialController: "Controlador",
}

func (s *Store) RefreshTotalBalance(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return err
	}
	env.balance = env.computedBalance(s.today()).Add(env.adjustment)
	return nil
}

func (s *Store) EditBalance(_ context.Context, value decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return err
	}
	env.adjustment = value.Sub(env.computedBalance(s.today()))
	env.balance = value
	return nil
}

func (s *Store) FinancialSummary(_ context.Context) (core.FinancialSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return core.FinancialSummary{}, err
	}
	profit, expense := decimal.Zero, decimal.Zero
	for _, tx := range env.transactions {
		if tx.Type == core.TransactionExpense {
			expense = expense.Add(tx.Amount)
		} else {
			profit = profit.Add(tx.Amount)
		}
	}
	margin := "0.00%"
	if profit.IsPositive() {
		margin = profit.Sub(expense).Div(profit).Mul(hundred).StringFixed(2) + "%"
	}
	return core.FinancialSummary{
		CurrentBalance: env.balance,
		TotalProfit:    profit,
		TotalExpense:   expense,
		ProfitMargin:   margin,
		Level:          level(env.achieved()),
	}, nil
}

func (s *Store) TopGoalsAchieved(_ context.Context) ([]core.TopGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return nil, err
	}
	out := []core.TopGoal{}
	for i, g := range env.goals {
		if g.IsOneTime() || g.achievements == 0 {
			continue
		}
		out = append(out, core.TopGoal{
			AchievementsCount: g.achievements,
			GoalNumber:        i + 1,
			Description:       g.Description,
			Value:             g.Value,
		})
	}
	slices.SortStableFunc(out, func(a, b core.TopGoal) int { return b.AchievementsCount - a.AchievementsCount })
	return out, nil
}

func (s *Store) UnplannedExpensesAnalysis(_ context.Context) (core.UnplannedExpensesAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return core.UnplannedExpensesAnalysis{}, err
	}
	unplanned, profits := decimal.Zero, decimal.Zero
	for _, tx := range env.transactions {
		switch {
		case tx.Type == core.TransactionIncome:
			profits = profits.Add(tx.Amount)
		case !tx.IsPlanned():
			unplanned = unplanned.Add(tx.Amount)
		}
	}
	pct := decimal.Zero
	if profits.IsPositive() {
		pct = unplanned.Div(profits).Mul(hundred).Round(2)
	}
	alert := "baixo"
	switch {
	case pct.GreaterThanOrEqual(decimal.NewFromInt(30)):
		alert = "alto"
	case pct.GreaterThanOrEqual(decimal.NewFromInt(10)):
		alert = "moderado"
	}
	return core.UnplannedExpensesAnalysis{
		TotalUnplannedExpenses: unplanned,
		TotalProfits:           profits,
		Percentage:             pct.StringFixed(0) + "%",
		AlertLevel:             alert,
	}, nil
}

func (s *Store) NonRecurringGoals(_ context.Context) (core.GoalsSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return core.GoalsSummary{}, err
	}
	var out core.GoalsSummary
	for _, g := range env.goals {
		if !g.IsOneTime() {
			continue
		}
		if g.Status != nil && *g.Status {
			out.Completed++
		} else {
			out.Pending++
		}
	}
	return out, nil
}

func (s *Store) BalanceOverTime(_ context.Context, filter core.BalanceFilter) ([]core.BalancePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return nil, err
	}
	txs := slices.Clone(env.transactions)
	slices.SortStableFunc(txs, func(a, b core.Transaction) int { return a.TransactionDate.Compare(b.TransactionDate) })

	out := []core.BalancePoint{}
	running := decimal.Zero
	for _, tx := range txs {
		running = running.Add(signed(tx))
		d := tx.TransactionDate
		if !filter.Start.IsEmpty() && d.Compare(filter.Start) < 0 {
			continue
		}
		if !filter.End.IsEmpty() && d.Compare(filter.End) > 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Date.Compare(d) == 0 {
			out[n-1].Balance = running
			continue
		}
		out = append(out, core.BalancePoint{Date: d.Day(), Balance: running})
	}
	return out, nil
}

func (s *Store) GoalsDistribution(_ context.Context) ([]core.AchievementsByPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return nil, err
	}
	totals := map[core.GoalPeriodType]int{}
	for _, g := range env.goals {
		if !g.IsOneTime() {
			totals[g.PeriodType] += g.achievements
		}
	}
	out := []core.AchievementsByPeriod{}
	for p := core.PeriodDaily; p <= core.PeriodAnnual; p++ {
		if n, ok := totals[p]; ok {
			out = append(out, core.AchievementsByPeriod{PeriodType: p.String(), TotalAchievements: n})
		}
	}
	return out, nil
}

// monthlyFactor is how many times per month a recurrence occurs.
var monthlyFactor = map[core.RecurrenceType]decimal.Decimal{
	core.RecurrenceDaily:     decimal.NewFromInt(30),
	core.RecurrenceWeekly:    decimal.NewFromInt(4),
	core.RecurrenceMonthly:   decimal.NewFromInt(1),
	core.RecurrenceSemestral: decimal.NewFromInt(1).Div(decimal.NewFromInt(6)),
	core.RecurrenceAnnual:    decimal.NewFromInt(1).Div(decimal.NewFromInt(12)),
}

func (s *Store) BalanceProjection(_ context.Context, filter core.ProjectionFilter) ([]core.ProjectedBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.currentEnv()
	if err != nil {
		return nil, err
	}
	monthly := decimal.Zero
	for _, tx := range env.transactions {
		if f, ok := monthlyFactor[tx.RecurrenceType]; ok {
			monthly = monthly.Add(signed(tx).Mul(f))
		}
	}

	out := []core.ProjectedBalance{}
	today := s.today()
	balance := env.balance
	step, months := 1, filter.PeriodValue
	if filter.IsYear {
		step, months = 12, filter.PeriodValue*12
	}
	for m := step; m <= months; m += step {
		balance = balance.Add(monthly.Mul(decimal.NewFromInt(int64(step))))
		at := today.AddDate(0, m, 0)
		label := fmt.Sprintf("%02d/%d", int(at.Month()), at.Year())
		if filter.IsYear {
			label = fmt.Sprint(at.Year())
		}
		out = append(out, core.ProjectedBalance{PeriodLabel: label, ProjectedBalance: balance.Round(2)})
	}
	return out, nil
}

func (s *Store) Ranking(_ context.Context) ([]core.RankingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.currentUser(); err != nil {
		return nil, err
	}
	out := []core.RankingEntry{}
	for _, env := range s.envs {
		u := s.users[env.owner]
		n := env.achieved()
		out = append(out, core.RankingEntry{
			UserName:           u.name,
			TotalGoalsAchieved: n,
			EnvironmentLevel:   rankingLabels[level(n)],
			CreationTime:       u.createdAt,
		})
	}
	slices.SortFunc(out, func(a, b core.RankingEntry) int { return strings.Compare(a.UserName, b.UserName) })
	return out, nil
}
