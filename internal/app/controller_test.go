package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finview/internal/amqp"
	"finview/internal/api"
	"finview/internal/core"
	"finview/internal/format"
	"finview/internal/memory"
	"finview/internal/notify"
	"finview/internal/session"
)

var fixedNow = time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.MutationEvent
	err    error
}

func (p *recordingPublisher) PublishMutation(_ context.Context, ev *amqp.MutationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) last() *amqp.MutationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

// failingBackend fails the calls named in failures and delegates the rest.
type failingBackend struct {
	*memory.Store
	failures map[string]error
}

func (b *failingBackend) RefreshTotalBalance(ctx context.Context) error {
	if err := b.failures["refresh"]; err != nil {
		return err
	}
	return b.Store.RefreshTotalBalance(ctx)
}

func (b *failingBackend) ListTransactions(ctx context.Context, kind core.TransactionKind) ([]core.Transaction, error) {
	if err := b.failures[string(kind)]; err != nil {
		return nil, err
	}
	return b.Store.ListTransactions(ctx, kind)
}

func (b *failingBackend) FinancialSummary(ctx context.Context) (core.FinancialSummary, error) {
	if err := b.failures["summary"]; err != nil {
		return core.FinancialSummary{}, err
	}
	return b.Store.FinancialSummary(ctx)
}

func (b *failingBackend) CreateGoal(ctx context.Context, req core.GoalRequest) error {
	if err := b.failures["createGoal"]; err != nil {
		return err
	}
	return b.Store.CreateGoal(ctx, req)
}

type fixture struct {
	ctl       *Controller
	store     *memory.Store
	sess      *session.Session
	slot      *notify.Slot
	publisher *recordingPublisher
	envID     core.ID
}

func newFixture(t *testing.T, failures map[string]error) *fixture {
	t.Helper()
	ctx := context.Background()

	sess := session.New(nil, "")
	store := memory.New(memory.WithSession(sess), memory.WithNow(func() time.Time { return fixedNow }))
	store.Load(memory.DemoSeed(fixedNow))

	slot := notify.NewSlot(0)
	pub := &recordingPublisher{}
	ctl := New(&failingBackend{Store: store, failures: failures}, sess, slot,
		WithClock(format.FixedClock(fixedNow)),
		WithPublisher(pub),
	)

	require.NoError(t, ctl.Login(ctx, core.Credentials{Email: "demo@finview.local", Password: "demo"}))
	envs, err := ctl.LoadEnvironments(ctx)
	require.NoError(t, err)
	require.Len(t, envs.Environments, 1)
	envID := envs.Environments[0].ID
	require.NoError(t, ctl.AccessEnvironment(ctx, envID))

	return &fixture{ctl: ctl, store: store, sess: sess, slot: slot, publisher: pub, envID: envID}
}

func (f *fixture) message(t *testing.T) notify.Message {
	t.Helper()
	msg, ok := f.slot.Current()
	require.True(t, ok, "expected a message")
	return msg
}

func periodPtr(p core.GoalPeriodType) *core.GoalPeriodType { return &p }

func TestLoginStoresToken(t *testing.T) {
	f := newFixture(t, nil)
	assert.True(t, f.sess.Authenticated())
	assert.Equal(t, f.envID.String(), f.sess.EnvironmentID())
}

func TestLoginValidationAndBackendFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	err := f.ctl.Login(ctx, core.Credentials{Password: "x"})
	assert.True(t, IsValidation(err))
	assert.Equal(t, core.ErrEmailRequired.Error(), f.message(t).Text)

	err = f.ctl.Login(ctx, core.Credentials{Email: "demo@finview.local", Password: "nope"})
	assert.True(t, IsBackend(err))
	assert.Equal(t, "Invalid email or password", f.message(t).Text)
	assert.Equal(t, notify.LevelError, f.message(t).Level)
}

func TestLogoutClearsSession(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.ctl.Logout(context.Background()))

	assert.False(t, f.sess.Authenticated())
	assert.Empty(t, f.sess.EnvironmentID())
	assert.Empty(t, f.ctl.Environments().Environments)
	assert.Equal(t, "Logged out.", f.message(t).Text)
}

func TestGoalValidationNeverReachesBackend(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	before, err := f.ctl.LoadGoals(ctx)
	require.NoError(t, err)

	err = f.ctl.CreateGoal(ctx, core.GoalForm{Value: decimal.NewFromInt(100), PeriodType: periodPtr(core.PeriodMonthly)})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.ErrorIs(t, err, core.ErrDescriptionRequired)
	assert.Equal(t, core.ErrDescriptionRequired.Error(), f.message(t).Text)

	after, err := f.ctl.LoadGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(before.OneTime)+len(before.Recurring), len(after.OneTime)+len(after.Recurring))
	assert.Nil(t, f.publisher.last())
}

func TestCreateGoal(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	before, err := f.ctl.LoadGoals(ctx)
	require.NoError(t, err)

	tomorrow := core.NewDate(2025, 10, 13)
	err = f.ctl.CreateGoal(ctx, core.GoalForm{
		Description: "Trip",
		Value:       decimal.NewFromInt(2000),
		PeriodType:  periodPtr(core.PeriodNone),
		SingleDate:  tomorrow,
	})
	require.NoError(t, err)

	msg := f.message(t)
	assert.Equal(t, notify.LevelSuccess, msg.Level)
	assert.Equal(t, "Goal created successfully!", msg.Text)

	view := f.ctl.Goals()
	require.Len(t, view.OneTime, len(before.OneTime)+1)
	var found bool
	for _, row := range view.OneTime {
		if row.Description == "Trip" {
			found = true
			assert.Equal(t, "Tomorrow", row.DueLabel)
		}
	}
	assert.True(t, found)

	ev := f.publisher.last()
	require.NotNil(t, ev)
	assert.Equal(t, amqp.EntityGoal, ev.Entity)
	assert.Equal(t, amqp.ActionCreated, ev.Action)
	assert.Equal(t, f.envID.String(), ev.EnvironmentID)
}

func TestCreateGoalPastDate(t *testing.T) {
	f := newFixture(t, nil)
	err := f.ctl.CreateGoal(context.Background(), core.GoalForm{
		Description: "Late",
		Value:       decimal.NewFromInt(10),
		PeriodType:  periodPtr(core.PeriodNone),
		SingleDate:  core.NewDate(2025, 10, 11),
	})
	assert.ErrorIs(t, err, core.ErrSingleDateInPast)
}

func TestCreateGoalBackendFallbackMessage(t *testing.T) {
	f := newFixture(t, map[string]error{"createGoal": errors.New("connection refused")})
	err := f.ctl.CreateGoal(context.Background(), core.GoalForm{
		Description: "Bike",
		Value:       decimal.NewFromInt(900),
		PeriodType:  periodPtr(core.PeriodMonthly),
	})
	require.Error(t, err)
	assert.True(t, IsBackend(err))
	assert.Equal(t, "Failed to create goal.", f.message(t).Text)
}

func TestDeleteGoalQuotesGoalNumber(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	view, err := f.ctl.LoadGoals(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, view.Recurring)
	target := view.Recurring[0]

	require.NoError(t, f.ctl.DeleteGoal(ctx, target.ID))
	assert.Equal(t, fmt.Sprintf("Goal %q deleted successfully!", strconv.Itoa(target.GoalNumber)), f.message(t).Text)

	for _, row := range f.ctl.Goals().Recurring {
		assert.NotEqual(t, target.ID, row.ID)
	}
	assert.Equal(t, amqp.ActionDeleted, f.publisher.last().Action)
	assert.Equal(t, target.ID.String(), f.publisher.last().EntityID)
}

func TestLoadTransactionsSortsAndNumbers(t *testing.T) {
	f := newFixture(t, nil)
	view, err := f.ctl.LoadTransactions(context.Background())
	require.NoError(t, err)

	require.Len(t, view.Planned, 3)
	assert.Equal(t, []string{"Salary", "Rent", "Groceries"}, []string{view.Planned[0].Description, view.Planned[1].Description, view.Planned[2].Description})
	for i, row := range view.Planned {
		assert.Equal(t, i+1, row.TransactionNumber)
	}

	require.Len(t, view.Unplanned, 2)
	assert.Equal(t, "Freelance", view.Unplanned[0].Description)
	assert.Equal(t, "Car repair", view.Unplanned[1].Description)
	assert.Equal(t, 1, view.Unplanned[0].TransactionNumber)
	assert.Equal(t, "5 days ago", view.Unplanned[0].DateLabel)
}

func TestLoadTransactionsPartialFailure(t *testing.T) {
	f := newFixture(t, map[string]error{
		string(core.KindPlanned): &api.Error{Status: http.StatusInternalServerError, Message: "planned store down"},
	})
	view, err := f.ctl.LoadTransactions(context.Background())
	require.Error(t, err)
	assert.True(t, IsBackend(err))
	assert.Equal(t, "planned store down", f.message(t).Text)
	assert.Empty(t, view.Planned)
	assert.Len(t, view.Unplanned, 2)
}

func TestCreateUnplannedTransactionForcesNoRecurrence(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	err := f.ctl.CreateTransaction(ctx, core.KindUnplanned, core.Transaction{
		Type:            core.TransactionExpense,
		RecurrenceType:  core.RecurrenceMonthly,
		Description:     "Gift",
		Amount:          decimal.NewFromInt(80),
		TransactionDate: core.NewDate(2025, 10, 12),
	})
	require.NoError(t, err)
	assert.Equal(t, "Transaction created successfully!", f.message(t).Text)

	view := f.ctl.Transactions()
	require.Len(t, view.Unplanned, 3)
	assert.Equal(t, "Gift", view.Unplanned[0].Description)
	assert.Equal(t, core.RecurrenceNone, view.Unplanned[0].RecurrenceType)
}

func TestCreateTransactionValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	err := f.ctl.CreateTransaction(ctx, "weekly", core.Transaction{})
	assert.ErrorIs(t, err, ErrUnknownKind)

	err = f.ctl.CreateTransaction(ctx, core.KindPlanned, core.Transaction{Description: "Gym", Amount: decimal.NewFromInt(90)})
	assert.ErrorIs(t, err, core.ErrTypeRequired)
	assert.Equal(t, core.ErrTypeRequired.Error(), f.message(t).Text)
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	view, err := f.ctl.LoadTransactions(ctx)
	require.NoError(t, err)

	tx := view.Unplanned[1].Transaction
	tx.Description = "Car repair (final)"
	require.NoError(t, f.ctl.UpdateTransaction(ctx, tx))
	assert.Equal(t, "Transaction updated successfully!", f.message(t).Text)
	assert.Equal(t, "Car repair (final)", f.ctl.Transactions().Unplanned[1].Description)

	require.NoError(t, f.ctl.DeleteTransaction(ctx, tx.ID))
	assert.Equal(t, `Transaction "2" deleted successfully!`, f.message(t).Text)
	assert.Len(t, f.ctl.Transactions().Unplanned, 1)
}

func TestEnvironmentValidationReportsBothFields(t *testing.T) {
	f := newFixture(t, nil)
	err := f.ctl.CreateEnvironment(context.Background(), core.Environment{})
	require.Error(t, err)

	var envErr *EnvironmentError
	require.ErrorAs(t, err, &envErr)
	assert.True(t, envErr.Check.NameMissing)
	assert.True(t, envErr.Check.DescriptionMissing)
	assert.True(t, IsValidation(err))
	assert.Equal(t, core.ErrEnvironmentNameRequired.Error(), f.message(t).Text)
}

func TestEnvironmentLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.ctl.CreateEnvironment(ctx, core.Environment{Name: "Home", Description: "Family costs", Type: core.EnvironmentFamily}))
	envs := f.ctl.Environments().Environments
	require.Len(t, envs, 2)
	home := envs[1]

	home.Name = "House"
	require.NoError(t, f.ctl.UpdateEnvironment(ctx, home))
	assert.Equal(t, "House", f.ctl.Environments().Environments[1].Name)

	require.NoError(t, f.ctl.AccessEnvironment(ctx, home.ID))
	assert.Equal(t, home.ID.String(), f.ctl.Environments().ActiveID)

	require.NoError(t, f.ctl.DeleteEnvironment(ctx, home.ID))
	assert.Len(t, f.ctl.Environments().Environments, 1)
	assert.Empty(t, f.sess.EnvironmentID(), "deleting the active environment leaves it")
	assert.True(t, f.sess.Authenticated())
}

func TestAccessEnvironmentRequiresID(t *testing.T) {
	f := newFixture(t, nil)
	err := f.ctl.AccessEnvironment(context.Background(), "")
	assert.ErrorIs(t, err, ErrEnvironmentIDRequired)
}

func TestLeaveEnvironmentKeepsToken(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.ctl.LoadGoals(ctx)
	require.NoError(t, err)

	require.NoError(t, f.ctl.LeaveEnvironment(ctx))
	assert.Empty(t, f.sess.EnvironmentID())
	assert.True(t, f.sess.Authenticated())
	assert.Empty(t, f.ctl.Goals().OneTime)
	assert.Empty(t, f.ctl.Goals().Recurring)
}

func TestLoadDashboard(t *testing.T) {
	f := newFixture(t, nil)
	view, err := f.ctl.LoadDashboard(context.Background(), nil)
	require.NoError(t, err)

	require.NotNil(t, view.Summary)
	require.NotNil(t, view.GoalsChart)
	require.NotNil(t, view.Unplanned)
	assert.Equal(t, []string{"Completed", "Pending"}, view.GoalsChart.Labels())
	assert.NotEmpty(t, view.Unplanned.AlertColor)

	assert.Equal(t, core.NewDate(2025, 4, 12), view.BalanceFilter.Start)
	assert.Equal(t, core.NewDate(2025, 10, 12), view.BalanceFilter.End)
	assert.Equal(t, core.ProjectionFilter{PeriodValue: 6}, view.ProjectionFilter)
	assert.Len(t, view.Projection.Points, 6)

	assert.Equal(t, 1, view.TopGoals.Page)
	assert.Equal(t, 2, view.TopGoals.TotalPages)
	assert.Len(t, view.TopGoals.Items, 2)
	assert.Equal(t, 21, view.TopGoals.Items[0].AchievementsCount)
}

func TestDashboardFilters(t *testing.T) {
	f := newFixture(t, nil)
	bf := core.BalanceFilter{Start: core.NewDate(2025, 9, 1), End: core.NewDate(2025, 9, 30)}
	pf := core.ProjectionFilter{PeriodValue: 2, IsYear: true}

	view, err := f.ctl.LoadDashboard(context.Background(), &DashboardFilters{Balance: &bf, Projection: &pf})
	require.NoError(t, err)
	assert.Equal(t, bf, view.BalanceFilter)
	assert.Equal(t, pf, view.ProjectionFilter)
	assert.Len(t, view.Projection.Points, 2)

	pf.PeriodValue = 3
	view, err = f.ctl.FilterProjection(context.Background(), pf)
	require.NoError(t, err)
	assert.Len(t, view.Projection.Points, 3)
}

func TestTopGoalsPagingClamps(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.ctl.LoadDashboard(context.Background(), nil)
	require.NoError(t, err)

	page := f.ctl.PreviousTopGoals()
	assert.Equal(t, 1, page.Page)

	page = f.ctl.NextTopGoals()
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasNext)

	page = f.ctl.NextTopGoals()
	assert.Equal(t, 2, page.Page)
}

func TestDashboardRefreshFailureStopsLoad(t *testing.T) {
	f := newFixture(t, map[string]error{"refresh": errors.New("timeout")})
	view, err := f.ctl.LoadDashboard(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, view.Summary)
	assert.Equal(t, "Failed to refresh the balance before loading the dashboard.", f.message(t).Text)
}

func TestDashboardReadFailureKeepsOthers(t *testing.T) {
	f := newFixture(t, map[string]error{"summary": errors.New("boom")})
	view, err := f.ctl.LoadDashboard(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, view.Summary)
	assert.NotNil(t, view.GoalsChart)
	assert.Equal(t, "Failed to load the financial summary.", f.message(t).Text)
}

func TestEditBalanceIsOptimistic(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	view, err := f.ctl.LoadDashboard(ctx, nil)
	require.NoError(t, err)
	profit := view.Summary.TotalProfit

	value := decimal.RequireFromString("1234.56")
	require.NoError(t, f.ctl.EditBalance(ctx, value))

	view = f.ctl.Dashboard()
	assert.True(t, value.Equal(view.Summary.CurrentBalance))
	assert.True(t, profit.Equal(view.Summary.TotalProfit))
	assert.Equal(t, "Balance updated successfully!", f.message(t).Text)
	assert.Equal(t, amqp.EntityBalance, f.publisher.last().Entity)
}

func TestLoadRanking(t *testing.T) {
	f := newFixture(t, nil)
	rows, err := f.ctl.LoadRanking(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	for i, row := range rows {
		assert.Equal(t, i+1, row.Position)
		if i > 0 {
			assert.GreaterOrEqual(t, rows[i-1].TotalGoalsAchieved, row.TotalGoalsAchieved)
		}
	}
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.ctl.UpdateUser(ctx, core.UserUpdate{Name: "Demo", Email: "demo@finview.local", NewPassword: "new"})
	assert.ErrorIs(t, err, core.ErrOldPasswordRequired)
	assert.Equal(t, "old password required", f.message(t).Text)

	_, err = f.ctl.UpdateUser(ctx, core.UserUpdate{Name: "Demo", Email: "demo@finview.local", OldPassword: "wrong", NewPassword: "new"})
	assert.True(t, IsBackend(err))

	u, err := f.ctl.LoadUser(ctx)
	require.NoError(t, err)
	profile, err := f.ctl.UpdateUser(ctx, core.UserUpdate{ID: u.ID, Name: " Demo User ", Email: u.Email, OldPassword: "demo", NewPassword: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "Demo User", profile.Name)

	held, ok := f.ctl.User()
	require.True(t, ok)
	assert.Equal(t, profile, held)

	require.NoError(t, f.ctl.Logout(ctx))
	require.NoError(t, f.ctl.Login(ctx, core.Credentials{Email: u.Email, Password: "s3cret"}))
}

func TestPublisherFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t, nil)
	f.publisher.err = errors.New("broker down")

	err := f.ctl.CreateEnvironment(context.Background(), core.Environment{Name: "Side", Description: "Side project"})
	require.NoError(t, err)
	assert.Equal(t, "Environment created successfully!", f.message(t).Text)
}

func TestDismissMessage(t *testing.T) {
	f := newFixture(t, nil)
	f.ctl.DismissMessage()
	_, ok := f.ctl.Message()
	assert.False(t, ok)
}
