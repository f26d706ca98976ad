package backend

import (
	"errors"
	"fmt"
	"time"

	"finview/internal/cache"
	"finview/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// HTTP specific
	APIBaseURL   string
	APITimeout   time.Duration
	APICacheTTL  time.Duration
	APICacheSize int

	// Memory backend specific
	DataDirectory string

	// CacheManager, when set, periodically cleans the HTTP read cache.
	CacheManager *cache.Manager
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:          backendType,
		APIBaseURL:    appConfig.APIBaseURL,
		APITimeout:    appConfig.APITimeout,
		APICacheTTL:   appConfig.APICacheTTL,
		APICacheSize:  appConfig.APICacheSize,
		DataDirectory: appConfig.DataDirectory,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == HTTPBackend && c.APIBaseURL == "" {
		return errors.New("API base URL is required for http backend")
	}
	return nil
}
