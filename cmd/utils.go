package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rubiojr/reposearch/pkg/cache"
	"github.com/rubiojr/reposearch/pkg/catalog"
	"github.com/rubiojr/reposearch/pkg/config"
	"github.com/rubiojr/reposearch/pkg/core"
	"github.com/rubiojr/reposearch/pkg/search"
)

// engine bundles everything needed to answer queries from one configuration.
type engine struct {
	cfg      *config.Config
	registry *core.Registry
	store    cache.AdminStore
	resolver *cache.QueryCache
}

// loadConfig loads and validates the configuration file.
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newEngine wires catalog clients, the search service and the cache store
// from cfg.
func newEngine(ctx context.Context, cfg *config.Config, opts ...search.Option) (*engine, error) {
	registry, err := catalog.NewRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating catalog clients: %w", err)
	}

	service, err := search.NewServiceFromRegistry(registry, opts...)
	if err != nil {
		registry.Close()
		return nil, fmt.Errorf("creating search service: %w", err)
	}

	store, err := cache.Open(ctx, cfg)
	if err != nil {
		registry.Close()
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	return &engine{
		cfg:      cfg,
		registry: registry,
		store:    store,
		resolver: cache.New(store, service),
	}, nil
}

func (e *engine) Close() error {
	return errors.Join(e.store.Close(), e.registry.Close())
}
