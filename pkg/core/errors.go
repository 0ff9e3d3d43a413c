package core

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates required configuration is missing or invalid.
	// It is raised before any network call.
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstreamRequest indicates a catalog call failed in transport or
	// returned a non-success status. It aborts the whole search.
	ErrUpstreamRequest = errors.New("upstream request failed")

	// ErrCache indicates the page cache store could not be read.
	ErrCache = errors.New("cache store failure")
)

// ConfigurationError describes a missing or invalid setting.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration for %s %s", e.Setting, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// UpstreamRequestError is returned by catalog clients when a call fails.
type UpstreamRequestError struct {
	Catalog    Catalog
	StatusCode int
	// Body is a truncated copy of the response body, if any.
	Body string
	Err  error
}

func (e *UpstreamRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s catalog request: %v", e.Catalog, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s catalog returned status %d: %s", e.Catalog, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s catalog returned status %d", e.Catalog, e.StatusCode)
}

func (e *UpstreamRequestError) Unwrap() error {
	return e.Err
}

func (e *UpstreamRequestError) Is(target error) bool {
	return target == ErrUpstreamRequest
}
