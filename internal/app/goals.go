package app

import (
	"context"
	"fmt"
	"slices"

	"finview/internal/amqp"
	"finview/internal/core"
	"finview/internal/log"
	"finview/internal/presenter"
)

// GoalsView is the goal list split into one-time and recurring rows.
type GoalsView struct {
	OneTime   []presenter.GoalRow `json:"oneTime"`
	Recurring []presenter.GoalRow `json:"recurring"`
}

// Goals renders the goals currently held.
func (c *Controller) Goals() GoalsView {
	c.mu.RLock()
	groups := presenter.ClassifyGoals(c.goals)
	c.mu.RUnlock()

	rows := c.rows()
	return GoalsView{
		OneTime:   rows.Goals(groups.OneTime),
		Recurring: rows.Goals(groups.Recurring),
	}
}

// LoadGoals fetches the goals of the active environment.
func (c *Controller) LoadGoals(ctx context.Context) (GoalsView, error) {
	goals, err := c.backend.ListGoals(ctx)
	if err != nil {
		return c.Goals(), c.backendError(ctx, "goals."+log.OpList, err, "Failed to load goals.")
	}

	c.mu.Lock()
	c.goals = goals
	c.mu.Unlock()
	return c.Goals(), nil
}

// CreateGoal validates form against today and creates the goal.
func (c *Controller) CreateGoal(ctx context.Context, form core.GoalForm) error {
	now := c.clock.Now()
	if err := form.Validate(now); err != nil {
		return c.invalid(ctx, "goals."+log.OpCreate, err)
	}

	if err := c.backend.CreateGoal(ctx, form.CreateRequest(now)); err != nil {
		return c.backendError(ctx, "goals."+log.OpCreate, err, "Failed to create goal.")
	}

	c.succeed("Goal created successfully!")
	c.publish(ctx, amqp.EntityGoal, amqp.ActionCreated, "")
	c.refreshGoals(ctx)
	return nil
}

// UpdateGoal validates form and saves it over the goal with form.ID.
func (c *Controller) UpdateGoal(ctx context.Context, form core.GoalForm) error {
	if err := form.Validate(c.clock.Now()); err != nil {
		return c.invalid(ctx, "goals."+log.OpUpdate, err)
	}

	if err := c.backend.UpdateGoal(ctx, form.UpdateRequest()); err != nil {
		return c.backendError(ctx, "goals."+log.OpUpdate, err, "Failed to update goal.")
	}

	c.succeed("Goal updated successfully!")
	c.publish(ctx, amqp.EntityGoal, amqp.ActionUpdated, form.ID)
	c.refreshGoals(ctx)
	return nil
}

// DeleteGoal removes the goal and reports it by its display number.
func (c *Controller) DeleteGoal(ctx context.Context, id core.ID) error {
	label := c.goalLabel(id)

	if err := c.backend.DeleteGoal(ctx, id); err != nil {
		return c.backendError(ctx, "goals."+log.OpDelete, err, "Failed to delete goal.")
	}

	c.mu.Lock()
	c.goals = slices.DeleteFunc(slices.Clone(c.goals), func(g core.Goal) bool { return g.ID == id })
	c.mu.Unlock()

	c.succeed(fmt.Sprintf("Goal %q deleted successfully!", label))
	c.publish(ctx, amqp.EntityGoal, amqp.ActionDeleted, id)
	c.refreshGoals(ctx)
	return nil
}

// goalLabel is the display number of a held goal, else its id.
func (c *Controller) goalLabel(id core.ID) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, g := range c.goals {
		if g.ID == id && g.GoalNumber > 0 {
			return fmt.Sprint(g.GoalNumber)
		}
	}
	return id.String()
}

// refreshGoals reloads after a mutation; a failed reload posts its own message.
func (c *Controller) refreshGoals(ctx context.Context) {
	_, _ = c.LoadGoals(ctx)
}
