package app

import (
	"context"

	"finview/internal/amqp"
	"finview/internal/core"
	"finview/internal/log"
)

// User returns the displayed profile, if loaded.
func (c *Controller) User() (core.UserProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return core.UserProfile{}, false
	}
	return *c.user, true
}

func (c *Controller) LoadUser(ctx context.Context) (core.UserProfile, error) {
	u, err := c.backend.GetUser(ctx)
	if err != nil {
		return core.UserProfile{}, c.backendError(ctx, "user."+log.OpRead, err, "Failed to load user data.")
	}
	c.mu.Lock()
	c.user = &u
	c.mu.Unlock()
	return u, nil
}

// UpdateUser validates and saves the profile. On success the displayed profile
// takes the submitted name and email; passwords are never held.
func (c *Controller) UpdateUser(ctx context.Context, upd core.UserUpdate) (core.UserProfile, error) {
	if err := upd.Validate(); err != nil {
		return core.UserProfile{}, c.invalid(ctx, "user."+log.OpUpdate, err)
	}

	if err := c.backend.UpdateUser(ctx, upd.Request()); err != nil {
		return core.UserProfile{}, c.backendError(ctx, "user."+log.OpUpdate, err,
			"Failed to save the profile changes. Check your current password.")
	}

	profile := upd.Profile()
	c.mu.Lock()
	c.user = &profile
	c.mu.Unlock()

	c.succeed("Profile updated successfully!")
	c.publish(ctx, amqp.EntityUser, amqp.ActionUpdated, upd.ID)
	return profile, nil
}

// Login authenticates and stores the returned token in the session.
func (c *Controller) Login(ctx context.Context, creds core.Credentials) error {
	if err := creds.Validate(); err != nil {
		return c.invalid(ctx, log.OpLogin, err)
	}

	res, err := c.backend.Login(ctx, creds)
	if err != nil {
		return c.backendError(ctx, log.OpLogin, err, "Login failed.")
	}
	if err := c.session.SetToken(ctx, res.Token); err != nil {
		return c.backendError(ctx, log.OpLogin, err, "Login failed.")
	}

	c.dropCache()
	c.resetEnvironmentState()
	c.mu.Lock()
	c.user = nil
	c.environments = nil
	c.mu.Unlock()

	c.succeed("Logged in successfully!")
	return nil
}

func (c *Controller) Register(ctx context.Context, reg core.Registration) error {
	if err := reg.Validate(); err != nil {
		return c.invalid(ctx, "register", err)
	}

	if err := c.backend.Register(ctx, reg); err != nil {
		return c.backendError(ctx, "register", err, "Registration failed.")
	}

	c.succeed("Registration completed successfully!")
	return nil
}

// Logout drops the whole session, token and active environment.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.session.Clear(ctx); err != nil {
		return c.backendError(ctx, log.OpLogout, err, "Logout failed.")
	}

	c.dropCache()
	c.resetEnvironmentState()
	c.mu.Lock()
	c.user = nil
	c.environments = nil
	c.mu.Unlock()

	c.succeed("Logged out.")
	return nil
}
