package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rubiojr/reposearch/pkg/core"
	"github.com/rubiojr/reposearch/pkg/log"
	"github.com/rubiojr/reposearch/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Service runs federated searches across the service and resource catalogs.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	services  core.CatalogFetch
	resources core.CatalogFetch
	formatter core.Formatter
	desired   int
	log       *log.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithFormatter sets the per-item hook applied to merged output. Nil keeps
// items untouched.
func WithFormatter(f core.Formatter) Option {
	return func(s *Service) {
		if f == nil {
			f = core.Identity
		}
		s.formatter = f
	}
}

// WithDesiredCount sets how many matches each catalog backfill aims for.
// Defaults to core.OutputPageSize.
func WithDesiredCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.desired = n
		}
	}
}

// NewService creates a search service over two catalog capabilities.
//
// Parameters:
//   - services: capability for the service catalog
//   - resources: capability for the resource catalog
//   - opts: optional formatter and backfill sizing
//
// Returns:
//   - *Service: A service ready to execute searches
func NewService(services, resources core.CatalogFetch, opts ...Option) *Service {
	s := &Service{
		services:  services,
		resources: resources,
		formatter: core.Identity,
		desired:   core.OutputPageSize,
		log:       log.ForService("search"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewServiceFromRegistry looks up both catalogs in registry. A missing
// catalog is reported as a *core.ConfigurationError.
func NewServiceFromRegistry(registry *core.Registry, opts ...Option) (*Service, error) {
	services, err := registry.Get(core.ServiceCatalog)
	if err != nil {
		return nil, err
	}
	resources, err := registry.Get(core.ResourceCatalog)
	if err != nil {
		return nil, err
	}
	return NewService(services, resources, opts...), nil
}

// Search executes one federated search.
//
// The search operation:
// 1. Starts a tag backfill per catalog from its half of q.Continuation
// 2. Waits for both; the first failure cancels the other and is returned
// 3. Merges both match sets into one page of core.OutputPageSize items
// 4. Applies the formatter to every output item, in order
//
// The returned page carries the continuation for the next output page.
//
// Example:
//
//	q := core.Query{Text: "food", Tags: core.ParseTags("1,2"), Page: 1}
//	page, err := service.Search(ctx, q)
//	next := core.Query{Text: q.Text, Tags: q.Tags, Page: 2, Continuation: page.Continuation()}
func (s *Service) Search(ctx context.Context, q core.Query) (*core.CombinedPage, error) {
	if s.services == nil || s.resources == nil {
		return nil, &core.ConfigurationError{Setting: "search catalogs", Reason: "not configured"}
	}

	start := time.Now()
	var servicesMatch, resourcesMatch core.MatchResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		servicesMatch, err = Backfill(gctx, s.services, s.backfillRequest(q, core.ServiceCatalog))
		return err
	})
	g.Go(func() error {
		var err error
		resourcesMatch, err = Backfill(gctx, s.resources, s.backfillRequest(q, core.ResourceCatalog))
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.SearchDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		s.log.Warnf("search text=%q tags=%s page=%d failed: %v", q.Text, q.Tags, q.Page, err)
		return nil, err
	}

	combined := Merge(servicesMatch, resourcesMatch, core.OutputPageSize)
	for i, item := range combined.Items {
		combined.Items[i] = s.formatter.Format(item)
	}

	metrics.SearchDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	s.log.Debugf("search text=%q tags=%s page=%d: %d items (services %d, resources %d), last=%t",
		q.Text, q.Tags, q.Page, len(combined.Items), len(servicesMatch.Items), len(resourcesMatch.Items), combined.IsLastPage)
	return &combined, nil
}

func (s *Service) backfillRequest(q core.Query, kind core.Catalog) BackfillRequest {
	page, cursor := q.Continuation.For(kind)
	return BackfillRequest{
		Text:      q.Text,
		StartPage: page,
		ResumeID:  cursor,
		Tags:      q.Tags,
		Desired:   s.desired,
	}
}

// ParseQuery parses HTTP query parameters into a core.Query.
//
// Supported parameters:
//   - text: Free text search term, trimmed (q is accepted as an alias)
//   - tags: Comma-delimited tag id list; may be repeated
//   - page: Page number (positive integer, defaults to 1)
//
// The continuation is always the default; callers resolving through the
// page cache get it seeded from the previous page.
//
// Example:
//
//	q, err := ParseQuery(r.URL.Query())
func ParseQuery(values url.Values) (core.Query, error) {
	q := core.Query{
		Page:         1,
		Tags:         core.TagSet{},
		Continuation: core.DefaultContinuation(),
	}

	q.Text = strings.TrimSpace(values.Get("text"))
	if q.Text == "" {
		q.Text = strings.TrimSpace(values.Get("q"))
	}

	if tags := values["tags"]; len(tags) > 0 {
		q.Tags = core.ParseTags(strings.Join(tags, ","))
	}

	if pageStr := values.Get("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil {
			return q, fmt.Errorf("invalid page %q: %w", pageStr, err)
		}
		if parsed > 0 {
			q.Page = parsed
		}
	}

	return q, nil
}
