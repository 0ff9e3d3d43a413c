package core

import (
	"context"
	"errors"
	"testing"
)

type stubCatalog struct {
	kind   Catalog
	closed bool
}

func (s *stubCatalog) Catalog() Catalog { return s.kind }
func (s *stubCatalog) Search(ctx context.Context, filters Filters) (UpstreamPage, error) {
	return UpstreamPage{}, nil
}
func (s *stubCatalog) Close() error {
	s.closed = true
	return nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	svc := &stubCatalog{kind: ServiceCatalog}

	if err := registry.Register(svc); err != nil {
		t.Fatalf("Failed to register catalog: %v", err)
	}

	got, err := registry.Get(ServiceCatalog)
	if err != nil {
		t.Fatalf("Failed to get catalog: %v", err)
	}
	if got != svc {
		t.Error("Get returned a different catalog than registered")
	}
}

func TestRegistryDuplicate(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(&stubCatalog{kind: ResourceCatalog}); err != nil {
		t.Fatalf("Failed to register catalog: %v", err)
	}
	if err := registry.Register(&stubCatalog{kind: ResourceCatalog}); err == nil {
		t.Error("Expected error registering the same catalog twice")
	}
}

func TestRegistryMissingIsConfigurationError(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get(ResourceCatalog)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("Expected configuration error, got %v", err)
	}
}

func TestRegistryClose(t *testing.T) {
	registry := NewRegistry()
	svc := &stubCatalog{kind: ServiceCatalog}
	res := &stubCatalog{kind: ResourceCatalog}
	_ = registry.Register(svc)
	_ = registry.Register(res)

	if err := registry.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !svc.closed || !res.closed {
		t.Error("Expected every catalog to be closed")
	}
	if _, err := registry.Get(ServiceCatalog); err == nil {
		t.Error("Expected registry to be empty after Close")
	}
}
