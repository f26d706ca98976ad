// Package ports declares what the application needs from the finance backend.
package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"finview/internal/core"
)

// Ports for outbound adapters.
type (
	GoalStore interface {
		ListGoals(ctx context.Context) ([]core.Goal, error)
		CreateGoal(ctx context.Context, req core.GoalRequest) error
		UpdateGoal(ctx context.Context, req core.GoalRequest) error
		DeleteGoal(ctx context.Context, id core.ID) error
	}

	// TransactionStore routes planned and unplanned entries to their own endpoints.
	TransactionStore interface {
		ListTransactions(ctx context.Context, kind core.TransactionKind) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, kind core.TransactionKind, tx core.Transaction) error
		UpdateTransaction(ctx context.Context, kind core.TransactionKind, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, id core.ID) error
	}

	EnvironmentStore interface {
		ListEnvironments(ctx context.Context) ([]core.Environment, error)
		CreateEnvironment(ctx context.Context, env core.Environment) error
		UpdateEnvironment(ctx context.Context, env core.Environment) error
		DeleteEnvironment(ctx context.Context, id core.ID) error
		// SetActiveEnvironment tells the backend which environment the user entered.
		SetActiveEnvironment(ctx context.Context, id core.ID) error
	}

	// DashboardReader exposes the read-only aggregates computed by the backend.
	DashboardReader interface {
		RefreshTotalBalance(ctx context.Context) error
		FinancialSummary(ctx context.Context) (core.FinancialSummary, error)
		TopGoalsAchieved(ctx context.Context) ([]core.TopGoal, error)
		UnplannedExpensesAnalysis(ctx context.Context) (core.UnplannedExpensesAnalysis, error)
		NonRecurringGoals(ctx context.Context) (core.GoalsSummary, error)
		BalanceOverTime(ctx context.Context, filter core.BalanceFilter) ([]core.BalancePoint, error)
		GoalsDistribution(ctx context.Context) ([]core.AchievementsByPeriod, error)
		BalanceProjection(ctx context.Context, filter core.ProjectionFilter) ([]core.ProjectedBalance, error)
	}

	BalanceEditor interface {
		EditBalance(ctx context.Context, value decimal.Decimal) error
	}

	RankingReader interface {
		Ranking(ctx context.Context) ([]core.RankingEntry, error)
	}

	UserStore interface {
		GetUser(ctx context.Context) (core.UserProfile, error)
		UpdateUser(ctx context.Context, req core.UserUpdateRequest) error
	}

	Authenticator interface {
		Login(ctx context.Context, creds core.Credentials) (core.LoginResult, error)
		Register(ctx context.Context, reg core.Registration) error
	}
)
