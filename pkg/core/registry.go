package core

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Registry holds the CatalogFetch implementation for each catalog kind.
type Registry struct {
	catalogs map[Catalog]CatalogFetch
	mu       sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		catalogs: make(map[Catalog]CatalogFetch),
	}
}

// Register adds a catalog capability. Registering the same kind twice is an
// error.
func (r *Registry) Register(fetch CatalogFetch) error {
	if fetch == nil {
		return fmt.Errorf("registering nil catalog")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kind := fetch.Catalog()
	if _, exists := r.catalogs[kind]; exists {
		return fmt.Errorf("catalog %s already registered", kind)
	}

	r.catalogs[kind] = fetch
	return nil
}

// Get returns the capability registered for kind.
func (r *Registry) Get(kind Catalog) (CatalogFetch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fetch, exists := r.catalogs[kind]
	if !exists {
		return nil, &ConfigurationError{Setting: "catalog " + kind.String(), Reason: "not registered"}
	}

	return fetch, nil
}

// Close closes every registered capability that holds resources.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for kind, fetch := range r.catalogs {
		if closer, ok := fetch.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing catalog %s: %w", kind, err))
			}
		}
	}

	clear(r.catalogs)
	return errors.Join(errs...)
}
