package backend

import (
	"context"
	"fmt"

	"finview/internal/api"
	"finview/internal/log"
	"finview/internal/memory"
	"finview/internal/session"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config, sess *session.Session) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case HTTPBackend:
		return f.createHTTPBackend(ctx, config, sess)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config, sess)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createHTTPBackend(ctx context.Context, config Config, sess *session.Session) (*BackendResult, error) {
	client, err := api.New(api.Config{
		BaseURL:   config.APIBaseURL,
		Timeout:   config.APITimeout,
		CacheTTL:  config.APICacheTTL,
		CacheSize: config.APICacheSize,
	}, sess, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize API client: %w", err)
	}

	if config.CacheManager != nil && client.Cache() != nil {
		config.CacheManager.Register(client.Cache())
	}

	f.logger.InfoContext(ctx, "Initialized HTTP backend",
		log.FieldURL, config.APIBaseURL,
		"cache_ttl", config.APICacheTTL.String())

	return &BackendResult{
		Backend:    client,
		Cleanup:    func() error { return nil },
		Invalidate: client.InvalidateCache,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config, sess *session.Session) (*BackendResult, error) {
	dir := config.DataDirectory
	if dir == "" {
		dir = "data"
	}
	store := memory.NewFromDir(dir, memory.WithSession(sess))

	f.logger.InfoContext(ctx, "Initialized memory backend", "data_dir", dir)

	return &BackendResult{
		Backend: store,
		Cleanup: func() error { return nil },
	}, nil
}
