// Package catalog implements core.CatalogFetch over the repository HTTP API.
//
// Each catalog is reached through a configured service point:
//
//	GET <host>/<endpoint>?<arguments>&text=..&tag=..&page=..&perPage=100
//
// Only 200 and 201 responses are successful. A body that cannot be decoded
// yields an empty page instead of an error.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rubiojr/reposearch/pkg/config"
	"github.com/rubiojr/reposearch/pkg/core"
	"github.com/rubiojr/reposearch/pkg/log"
	"github.com/rubiojr/reposearch/pkg/metrics"
	"github.com/rubiojr/reposearch/pkg/version"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const maxErrorBody = 512

// Client queries one catalog.
type Client struct {
	kind       core.Catalog
	endpoint   string
	arguments  map[string]string
	client     *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	log        *log.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Authentication and gzip handling
// configured by NewClient are dropped.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRateLimit overrides the configured request rate.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

var _ core.CatalogFetch = (*Client)(nil)

// NewClient builds the client for one catalog. It returns a
// *core.ConfigurationError when the host or the service point is missing.
func NewClient(cfg *config.Config, kind core.Catalog, opts ...Option) (*Client, error) {
	host := strings.TrimSpace(cfg.Catalog.Host)
	if host == "" {
		return nil, &core.ConfigurationError{Setting: "catalog host", Reason: "not set"}
	}
	sp, err := cfg.ServicePoint(kind.ServicePoint())
	if err != nil {
		return nil, err
	}

	var transport http.RoundTripper = gzhttp.Transport(http.DefaultTransport)
	if cfg.Catalog.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Catalog.Token}),
			Base:   transport,
		}
	}

	c := &Client{
		kind:       kind,
		endpoint:   strings.TrimRight(host, "/") + "/" + strings.TrimLeft(sp.Endpoint, "/"),
		arguments:  sp.Arguments,
		client:     &http.Client{Timeout: cfg.Catalog.Timeout.Duration, Transport: transport},
		limiter:    rate.NewLimiter(rate.Limit(cfg.Catalog.RequestsPerSecond), cfg.Catalog.Burst),
		maxRetries: cfg.Catalog.MaxRetries,
		log:        log.ForService("catalog").With("catalog", kind),
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    kind.String() + "-catalog",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewRegistry builds and registers clients for both catalogs.
func NewRegistry(cfg *config.Config, opts ...Option) (*core.Registry, error) {
	registry := core.NewRegistry()
	for _, kind := range core.Catalogs {
		client, err := NewClient(cfg, kind, opts...)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(client); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (c *Client) Catalog() core.Catalog {
	return c.kind
}

// Search runs one upstream query.
func (c *Client) Search(ctx context.Context, filters core.Filters) (core.UpstreamPage, error) {
	reqURL := c.buildURL(filters)

	body, err := c.fetch(ctx, reqURL)
	if err != nil {
		metrics.UpstreamCalls.WithLabelValues(c.kind.String(), "error").Inc()
		return core.UpstreamPage{}, err
	}

	page, ok := parsePage(body)
	if !ok {
		metrics.UpstreamCalls.WithLabelValues(c.kind.String(), "malformed").Inc()
		c.log.Warnf("unparsable response body for page %d, treating as empty", filters.Page)
		return core.UpstreamPage{}, nil
	}
	metrics.UpstreamCalls.WithLabelValues(c.kind.String(), "ok").Inc()

	for i := range page.Items {
		page.Items[i].Catalog = c.kind
	}
	c.log.Debugf("page %d tag=%q returned %d items", filters.Page, filters.Tag, len(page.Items))
	return page, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *Client) buildURL(filters core.Filters) string {
	q := url.Values{}
	for k, v := range c.arguments {
		q.Set(k, v)
	}
	q.Set("text", filters.Text)
	if filters.Tag != "" {
		q.Set("tag", filters.Tag)
	}
	q.Set("page", strconv.Itoa(filters.Page))
	q.Set("perPage", strconv.Itoa(filters.PerPage))
	return c.endpoint + "?" + q.Encode()
}

func (c *Client) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)),
		ctx,
	)

	var body []byte
	err := backoff.Retry(func() error {
		out, err := c.breaker.Execute(func() (interface{}, error) {
			return c.do(ctx, reqURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(&core.UpstreamRequestError{Catalog: c.kind, Err: err})
			}
			var upErr *core.UpstreamRequestError
			if errors.As(err, &upErr) && upErr.StatusCode >= 400 && upErr.StatusCode < 500 && upErr.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			c.log.Debugf("upstream call failed: %v", err)
			return err
		}
		body = out.([]byte)
		return nil
	}, policy)
	if err != nil {
		var upErr *core.UpstreamRequestError
		if !errors.As(err, &upErr) {
			err = &core.UpstreamRequestError{Catalog: c.kind, Err: err}
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &core.UpstreamRequestError{Catalog: c.kind, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &core.UpstreamRequestError{Catalog: c.kind, Err: fmt.Errorf("creating request: %w", err)}
	}
	requestID := core.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "reposearch/"+version.Version)
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &core.UpstreamRequestError{Catalog: c.kind, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Warnf("failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.UpstreamRequestError{Catalog: c.kind, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &core.UpstreamRequestError{Catalog: c.kind, StatusCode: resp.StatusCode, Body: strings.TrimSpace(snippet)}
	}

	return body, nil
}

// parsePage decodes {"data": [...]} or a bare array. An empty body is an
// empty page. ok is false only when the body is present but unparsable.
func parsePage(body []byte) (page core.UpstreamPage, ok bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return core.UpstreamPage{}, true
	}

	if trimmed[0] == '[' {
		var items []core.Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return core.UpstreamPage{}, false
		}
		return core.UpstreamPage{Items: items}, true
	}

	var envelope struct {
		Data []core.Item `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return core.UpstreamPage{}, false
	}
	return core.UpstreamPage{Items: envelope.Data}, true
}
