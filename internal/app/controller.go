// Package app holds the view model shared by the view server's handlers and
// every user operation on it. Operations validate locally, call the backend
// outside the lock, apply the result under the lock and post the outcome to
// the message slot.
package app

import (
	"context"
	"errors"
	"sync"

	"finview/internal/amqp"
	"finview/internal/backend"
	"finview/internal/core"
	"finview/internal/format"
	"finview/internal/log"
	"finview/internal/notify"
	"finview/internal/presenter"
	"finview/internal/session"
)

var (
	ErrUnknownKind           = errors.New("unknown transaction kind")
	ErrEnvironmentIDRequired = errors.New("environment id is required")
)

// EventPublisher receives a notice after every successful mutation.
type EventPublisher interface {
	PublishMutation(ctx context.Context, ev *amqp.MutationEvent) error
}

// Config holds the dashboard defaults.
type Config struct {
	TopGoalsPageSize    int
	ProjectionPeriod    int
	ProjectionIsYear    bool
	BalanceWindowMonths int
}

func DefaultConfig() Config {
	return Config{
		TopGoalsPageSize:    2,
		ProjectionPeriod:    6,
		ProjectionIsYear:    false,
		BalanceWindowMonths: 6,
	}
}

// Option configures a Controller.
type Option func(*Controller)

func WithClock(c format.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

func WithFormatter(f *format.Formatter) Option {
	return func(ctl *Controller) { ctl.formatter = f }
}

func WithPublisher(p EventPublisher) Option {
	return func(ctl *Controller) { ctl.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(ctl *Controller) { ctl.logger = l }
}

func WithConfig(cfg Config) Option {
	return func(ctl *Controller) { ctl.cfg = cfg }
}

// WithInvalidate sets the hook that drops cached backend reads when the session changes.
func WithInvalidate(f func()) Option {
	return func(ctl *Controller) { ctl.invalidate = f }
}

// Controller is safe for concurrent use. Overlapping requests are not
// de-duplicated; the last response applied wins.
type Controller struct {
	backend    backend.Backend
	session    *session.Session
	slot       *notify.Slot
	clock      format.Clock
	formatter  *format.Formatter
	publisher  EventPublisher
	invalidate func()
	logger     *log.Logger
	cfg        Config

	mu           sync.RWMutex
	goals        []core.Goal
	planned      []core.Transaction
	unplanned    []core.Transaction
	environments []core.Environment
	dash         dashboardState
	topGoals     *presenter.Pager[core.TopGoal]
	ranking      []core.RankingEntry
	user         *core.UserProfile
}

func New(b backend.Backend, sess *session.Session, slot *notify.Slot, opts ...Option) *Controller {
	c := &Controller{
		backend: b,
		session: sess,
		slot:    slot,
		clock:   format.SystemClock{},
		cfg:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.formatter == nil {
		c.formatter = format.Default()
	}
	if c.logger == nil {
		c.logger = log.Discard()
	}
	c.logger = c.logger.WithComponent(log.ComponentApp)
	c.topGoals = presenter.NewPager([]core.TopGoal{}, c.cfg.TopGoalsPageSize)
	c.dash = c.defaultDashboard()
	return c
}

// Session returns the session the controller acts for.
func (c *Controller) Session() *session.Session { return c.session }

// Message returns the transient message, if one is showing.
func (c *Controller) Message() (notify.Message, bool) {
	return c.slot.Current()
}

// DismissMessage clears the message and cancels its timer.
func (c *Controller) DismissMessage() {
	c.slot.Dismiss()
}

func (c *Controller) rows() presenter.Rows {
	return presenter.Rows{Format: c.formatter, Clock: c.clock}
}

func (c *Controller) fail(ctx context.Context, op string, f *Failure) error {
	c.slot.Error(f.Message)
	level := c.logger.WarnContext
	if f.Kind == KindValidation {
		level = c.logger.DebugContext
	}
	level(ctx, "Operation failed",
		log.FieldOperation, op,
		log.FieldErrorKind, string(f.Kind),
		log.FieldError, f.Err)
	return f
}

func (c *Controller) invalid(ctx context.Context, op string, err error) error {
	return c.fail(ctx, op, validationFailure(err))
}

func (c *Controller) backendError(ctx context.Context, op string, err error, fallback string) error {
	return c.fail(ctx, op, backendFailure(err, fallback))
}

func (c *Controller) succeed(text string) {
	c.slot.Success(text)
}

// publish never fails the operation; the mutation already happened.
func (c *Controller) publish(ctx context.Context, entity amqp.Entity, action amqp.Action, id core.ID) {
	if c.publisher == nil {
		return
	}
	ev := amqp.NewMutationEvent(entity, action, id.String(), c.session.EnvironmentID())
	if err := c.publisher.PublishMutation(ctx, ev); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish mutation event",
			log.FieldEntity, string(entity),
			log.FieldEntityID, id.String(),
			log.FieldError, err)
	}
}

func (c *Controller) dropCache() {
	if c.invalidate != nil {
		c.invalidate()
	}
}

// resetEnvironmentState forgets everything scoped to the active environment.
func (c *Controller) resetEnvironmentState() {
	c.mu.Lock()
	c.goals = nil
	c.planned = nil
	c.unplanned = nil
	c.dash = c.defaultDashboard()
	c.topGoals.Reset([]core.TopGoal{})
	c.ranking = nil
	c.mu.Unlock()
}
