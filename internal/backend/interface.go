// Package backend selects the finance backend the application talks to.
package backend

import (
	"context"
	"slices"

	"finview/internal/ports"
	"finview/internal/session"
)

// Backend is everything the controller reads from or writes to.
type Backend interface {
	ports.GoalStore
	ports.TransactionStore
	ports.EnvironmentStore
	ports.DashboardReader
	ports.BalanceEditor
	ports.RankingReader
	ports.UserStore
	ports.Authenticator
}

// CleanupFunc releases whatever the backend holds open.
type CleanupFunc func() error

// BackendResult is a ready backend plus its lifecycle hooks.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
	// Invalidate drops cached reads, nil when the backend does not cache.
	Invalidate func()
}

// Factory builds a Backend bound to a session.
type Factory interface {
	CreateBackend(ctx context.Context, config Config, sess *session.Session) (*BackendResult, error)
}

// BackendType is the DATA_BACKEND value.
type BackendType string

const (
	HTTPBackend   BackendType = "http"
	MemoryBackend BackendType = "memory"
)

// SupportedTypes lists the accepted backend types in preference order.
var SupportedTypes = []BackendType{HTTPBackend, MemoryBackend}

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	return slices.Contains(SupportedTypes, bt)
}
