package app

import (
	"context"
	"slices"

	"finview/internal/amqp"
	"finview/internal/core"
	"finview/internal/log"
)

// EnvironmentsView lists the user's environments and the one currently entered.
type EnvironmentsView struct {
	Environments []core.Environment `json:"environments"`
	ActiveID     string             `json:"activeId,omitempty"`
}

// EnvironmentError is the validation failure of an environment form. It keeps
// both field flags so the form can mark every missing field.
type EnvironmentError struct {
	*Failure
	Check core.EnvironmentCheck
}

func (e *EnvironmentError) Unwrap() error { return e.Failure }

func (c *Controller) Environments() EnvironmentsView {
	c.mu.RLock()
	envs := slices.Clone(c.environments)
	c.mu.RUnlock()
	if envs == nil {
		envs = []core.Environment{}
	}
	return EnvironmentsView{Environments: envs, ActiveID: c.session.EnvironmentID()}
}

func (c *Controller) LoadEnvironments(ctx context.Context) (EnvironmentsView, error) {
	envs, err := c.backend.ListEnvironments(ctx)
	if err != nil {
		return c.Environments(), c.backendError(ctx, "environments."+log.OpList, err, "Failed to load environments.")
	}

	c.mu.Lock()
	c.environments = envs
	c.mu.Unlock()
	return c.Environments(), nil
}

func (c *Controller) checkEnvironment(ctx context.Context, op string, env core.Environment) error {
	check := env.Check()
	if check.OK() {
		return nil
	}
	f := validationFailure(check.Err())
	_ = c.fail(ctx, op, f)
	return &EnvironmentError{Failure: f, Check: check}
}

func (c *Controller) CreateEnvironment(ctx context.Context, env core.Environment) error {
	if err := c.checkEnvironment(ctx, "environments."+log.OpCreate, env); err != nil {
		return err
	}

	if err := c.backend.CreateEnvironment(ctx, env); err != nil {
		return c.backendError(ctx, "environments."+log.OpCreate, err, "Failed to create environment.")
	}

	c.succeed("Environment created successfully!")
	c.publish(ctx, amqp.EntityEnvironment, amqp.ActionCreated, "")
	_, _ = c.LoadEnvironments(ctx)
	return nil
}

// UpdateEnvironment saves env and replaces the held entry without refetching.
func (c *Controller) UpdateEnvironment(ctx context.Context, env core.Environment) error {
	if err := c.checkEnvironment(ctx, "environments."+log.OpUpdate, env); err != nil {
		return err
	}

	if err := c.backend.UpdateEnvironment(ctx, env); err != nil {
		return c.backendError(ctx, "environments."+log.OpUpdate, err, "Failed to update environment.")
	}

	c.mu.Lock()
	envs := slices.Clone(c.environments)
	for i := range envs {
		if envs[i].ID == env.ID {
			envs[i] = env
		}
	}
	c.environments = envs
	c.mu.Unlock()

	c.succeed("Environment updated successfully!")
	c.publish(ctx, amqp.EntityEnvironment, amqp.ActionUpdated, env.ID)
	return nil
}

// DeleteEnvironment removes the environment and filters it from the held list.
// Deleting the active environment also leaves it.
func (c *Controller) DeleteEnvironment(ctx context.Context, id core.ID) error {
	if err := c.backend.DeleteEnvironment(ctx, id); err != nil {
		return c.backendError(ctx, "environments."+log.OpDelete, err, "Failed to delete environment.")
	}

	c.mu.Lock()
	c.environments = slices.DeleteFunc(slices.Clone(c.environments), func(e core.Environment) bool { return e.ID == id })
	c.mu.Unlock()

	if c.session.EnvironmentID() == id.String() {
		if err := c.session.LeaveEnvironment(ctx); err != nil {
			c.logger.WarnContext(ctx, "Failed to leave deleted environment", log.FieldError, err)
		}
		c.dropCache()
		c.resetEnvironmentState()
	}

	c.succeed("Environment deleted successfully!")
	c.publish(ctx, amqp.EntityEnvironment, amqp.ActionDeleted, id)
	return nil
}

// AccessEnvironment activates the environment on the backend, then stores its id in the session.
func (c *Controller) AccessEnvironment(ctx context.Context, id core.ID) error {
	if id.IsZero() {
		return c.invalid(ctx, "environments.access", ErrEnvironmentIDRequired)
	}

	if err := c.backend.SetActiveEnvironment(ctx, id); err != nil {
		return c.backendError(ctx, "environments.access", err, "Failed to set the active environment. Try again.")
	}
	if err := c.session.SetEnvironment(ctx, id.String()); err != nil {
		return c.backendError(ctx, "environments.access", err, "Failed to set the active environment. Try again.")
	}

	c.dropCache()
	c.resetEnvironmentState()
	c.logger.InfoContext(ctx, "Entered environment", log.FieldEnvironmentID, id.String())
	return nil
}

// LeaveEnvironment clears the active environment and keeps the login.
func (c *Controller) LeaveEnvironment(ctx context.Context) error {
	if err := c.session.LeaveEnvironment(ctx); err != nil {
		return c.backendError(ctx, "environments.leave", err, "Failed to leave the environment.")
	}
	c.dropCache()
	c.resetEnvironmentState()
	return nil
}
