package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"finview/internal/core"
	"finview/internal/ports"
)

// Ensure interface conformance
var (
	_ ports.GoalStore        = (*Client)(nil)
	_ ports.TransactionStore = (*Client)(nil)
	_ ports.EnvironmentStore = (*Client)(nil)
	_ ports.DashboardReader  = (*Client)(nil)
	_ ports.BalanceEditor    = (*Client)(nil)
	_ ports.RankingReader    = (*Client)(nil)
	_ ports.UserStore        = (*Client)(nil)
	_ ports.Authenticator    = (*Client)(nil)
)

// API paths, relative to the base URL.
const (
	pathGoals        = "goalsManipulation/get/all/goals"
	pathGoalCreate   = "goalsManipulation/create/goal"
	pathGoalUpdate   = "goalsManipulation/update/goal"
	pathGoalDelete   = "goalsManipulation/delete/goal"
	pathTxList       = "transaction/get/all/"
	pathTxCreate     = "transaction/create/"
	pathTxUpdate     = "transaction/update/"
	pathTxDelete     = "transaction/delete/transaction"
	pathTotalBalance = "transaction/update/totalBalance"
	pathEnvs         = "envManipulation/get/all/environment"
	pathEnvCreate    = "envManipulation/create/environment"
	pathEnvUpdate    = "envManipulation/update/environment"
	pathEnvDelete    = "envManipulation/delete/environment"
	pathEnvSet       = "envManipulation/set/environment"
	pathSummary      = "dashboard/get/financial-summary"
	pathTopGoals     = "dashboard/get/top-goals-achieved"
	pathUnplanned    = "dashboard/get/unplanned-expenses-analysis"
	pathOneTimeGoals = "dashboard/get/non-recurring-goals"
	pathBalance      = "dashboard/get/balance-over-time"
	pathDistribution = "dashboard/get/goals-distribuition"
	pathProjection   = "dashboard/get/balance-projection"
	pathEditBalance  = "dashboard/edit/envBalance"
	pathRanking      = "ranking/get"
	pathUser         = "userManipulation/get/user"
	pathUserUpdate   = "userManipulation/update/user"
	pathRegister     = "loginAndRegister/register/user"
	pathLogin        = "loginAndRegister/login/user"
)

func idQuery(key string, id core.ID) url.Values {
	return url.Values{key: []string{id.String()}}
}

func kindPath(prefix string, kind core.TransactionKind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown transaction kind %q", kind)
	}
	return prefix + string(kind), nil
}

// Goals

func (c *Client) ListGoals(ctx context.Context) ([]core.Goal, error) {
	return getList[core.Goal](ctx, c, pathGoals, nil)
}

func (c *Client) CreateGoal(ctx context.Context, req core.GoalRequest) error {
	return c.send(ctx, http.MethodPost, pathGoalCreate, nil, req, nil)
}

func (c *Client) UpdateGoal(ctx context.Context, req core.GoalRequest) error {
	return c.send(ctx, http.MethodPut, pathGoalUpdate, nil, req, nil)
}

func (c *Client) DeleteGoal(ctx context.Context, id core.ID) error {
	return c.send(ctx, http.MethodDelete, pathGoalDelete, idQuery("id", id), nil, nil)
}

// Transactions

func (c *Client) ListTransactions(ctx context.Context, kind core.TransactionKind) ([]core.Transaction, error) {
	path, err := kindPath(pathTxList, kind)
	if err != nil {
		return nil, err
	}
	return getList[core.Transaction](ctx, c, path, nil)
}

func (c *Client) CreateTransaction(ctx context.Context, kind core.TransactionKind, tx core.Transaction) error {
	path, err := kindPath(pathTxCreate, kind)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPost, path, nil, tx, nil)
}

func (c *Client) UpdateTransaction(ctx context.Context, kind core.TransactionKind, tx core.Transaction) error {
	path, err := kindPath(pathTxUpdate, kind)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPut, path, nil, tx, nil)
}

func (c *Client) DeleteTransaction(ctx context.Context, id core.ID) error {
	return c.send(ctx, http.MethodDelete, pathTxDelete, idQuery("input", id), nil, nil)
}

// Environments

func (c *Client) ListEnvironments(ctx context.Context) ([]core.Environment, error) {
	return getList[core.Environment](ctx, c, pathEnvs, nil)
}

func (c *Client) CreateEnvironment(ctx context.Context, env core.Environment) error {
	return c.send(ctx, http.MethodPost, pathEnvCreate, nil, env, nil)
}

func (c *Client) UpdateEnvironment(ctx context.Context, env core.Environment) error {
	return c.send(ctx, http.MethodPut, pathEnvUpdate, nil, env, nil)
}

func (c *Client) DeleteEnvironment(ctx context.Context, id core.ID) error {
	return c.send(ctx, http.MethodDelete, pathEnvDelete, idQuery("input", id), nil, nil)
}

func (c *Client) SetActiveEnvironment(ctx context.Context, id core.ID) error {
	return c.send(ctx, http.MethodPost, pathEnvSet, idQuery("environmentId", id), struct{}{}, nil)
}

// Dashboard

func (c *Client) RefreshTotalBalance(ctx context.Context) error {
	return c.send(ctx, http.MethodPut, pathTotalBalance, nil, struct{}{}, nil)
}

func (c *Client) FinancialSummary(ctx context.Context) (core.FinancialSummary, error) {
	var out core.FinancialSummary
	err := c.get(ctx, pathSummary, nil, &out)
	return out, err
}

func (c *Client) TopGoalsAchieved(ctx context.Context) ([]core.TopGoal, error) {
	return getList[core.TopGoal](ctx, c, pathTopGoals, nil)
}

func (c *Client) UnplannedExpensesAnalysis(ctx context.Context) (core.UnplannedExpensesAnalysis, error) {
	var out core.UnplannedExpensesAnalysis
	err := c.get(ctx, pathUnplanned, nil, &out)
	return out, err
}

func (c *Client) NonRecurringGoals(ctx context.Context) (core.GoalsSummary, error) {
	var out core.GoalsSummary
	err := c.get(ctx, pathOneTimeGoals, nil, &out)
	if errors.Is(err, errEmptyBody) {
		return out, nil
	}
	return out, err
}

func (c *Client) BalanceOverTime(ctx context.Context, filter core.BalanceFilter) ([]core.BalancePoint, error) {
	q := url.Values{}
	if !filter.Start.IsEmpty() {
		q.Set("startDate", filter.Start.String())
	}
	if !filter.End.IsEmpty() {
		q.Set("endDate", filter.End.String())
	}
	return getList[core.BalancePoint](ctx, c, pathBalance, q)
}

func (c *Client) GoalsDistribution(ctx context.Context) ([]core.AchievementsByPeriod, error) {
	return getList[core.AchievementsByPeriod](ctx, c, pathDistribution, nil)
}

func (c *Client) BalanceProjection(ctx context.Context, filter core.ProjectionFilter) ([]core.ProjectedBalance, error) {
	q := url.Values{}
	q.Set("periodValue", strconv.Itoa(filter.PeriodValue))
	q.Set("isYear", strconv.FormatBool(filter.IsYear))
	return getList[core.ProjectedBalance](ctx, c, pathProjection, q)
}

func (c *Client) EditBalance(ctx context.Context, value decimal.Decimal) error {
	return c.send(ctx, http.MethodPut, pathEditBalance, nil, core.BalanceEdit{Value: value}, nil)
}

// Ranking

func (c *Client) Ranking(ctx context.Context) ([]core.RankingEntry, error) {
	return getList[core.RankingEntry](ctx, c, pathRanking, nil)
}

// User

func (c *Client) GetUser(ctx context.Context) (core.UserProfile, error) {
	var out core.UserProfile
	err := c.get(ctx, pathUser, nil, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, req core.UserUpdateRequest) error {
	return c.send(ctx, http.MethodPut, pathUserUpdate, nil, req, nil)
}

// Auth

func (c *Client) Login(ctx context.Context, creds core.Credentials) (core.LoginResult, error) {
	var out core.LoginResult
	if err := c.send(ctx, http.MethodPost, pathLogin, nil, creds, &out); err != nil {
		return core.LoginResult{}, err
	}
	if out.Token == "" {
		return core.LoginResult{}, errors.New("login response carried no token")
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, reg core.Registration) error {
	return c.send(ctx, http.MethodPost, pathRegister, nil, reg, nil)
}
