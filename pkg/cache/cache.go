// Package cache memoizes computed output pages and chains continuation state
// from one page number to the next.
//
// Entries are keyed by Key(text, tags, page). A miss for page N > 1 seeds
// the search from the cursors stored with page N-1, so consecutive pages
// never re-scan what an earlier page already consumed. Entries are never
// modified or evicted by this package; their lifecycle belongs to the store's
// operator (see the cache purge command).
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/rubiojr/reposearch/pkg/core"
	"github.com/rubiojr/reposearch/pkg/log"
	"github.com/rubiojr/reposearch/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned by Store.Get for a missing key.
var ErrNotFound = errors.New("cache entry not found")

// Store persists encoded pages. Implementations must be safe for concurrent
// use. Put on an existing key replaces it.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (*core.CombinedPage, error)
	Put(ctx context.Context, key string, page *core.CombinedPage) error
}

// Stats describes the contents of a store.
type Stats struct {
	Driver  string `json:"driver"`
	Entries int64  `json:"entries"`
	Bytes   int64  `json:"bytes"`
}

// AdminStore is a Store that can report and drop its contents.
type AdminStore interface {
	Store
	Stats(ctx context.Context) (Stats, error)
	// Purge removes every entry and returns how many were removed.
	Purge(ctx context.Context) (int64, error)
	Close() error
}

// Searcher computes an output page. *search.Service implements it.
type Searcher interface {
	Search(ctx context.Context, q core.Query) (*core.CombinedPage, error)
}

// QueryCache resolves queries through a Store in front of a Searcher.
type QueryCache struct {
	store    Store
	searcher Searcher
	group    singleflight.Group
	log      *log.Logger
}

// New creates a QueryCache.
func New(store Store, searcher Searcher) *QueryCache {
	return &QueryCache{
		store:    store,
		searcher: searcher,
		log:      log.ForService("cache"),
	}
}

// Resolve returns the page for q. A cached page is returned without calling
// the searcher. On a miss, q.Continuation is replaced: it is seeded from the
// cached previous page when there is one, and defaulted otherwise.
//
// Concurrent misses for the same key share one search, which is not
// cancelled when one of the waiting callers goes away. Store read errors fail
// the request with core.ErrCache; a failed write is only logged.
func (c *QueryCache) Resolve(ctx context.Context, q core.Query) (*core.CombinedPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	key := Key(q.Text, q.Tags, q.Page)

	page, found, err := c.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if found {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		c.log.Debugf("hit text=%q tags=%s page=%d", q.Text, q.Tags, q.Page)
		return page, nil
	}

	// The shared search outlives any single caller; each caller only stops
	// waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.compute(shared, key, q)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*core.CombinedPage), nil
	}
}

func (c *QueryCache) compute(ctx context.Context, key string, q core.Query) (*core.CombinedPage, error) {
	q.Continuation = core.DefaultContinuation()
	if q.Page > 1 {
		prev, found, err := c.lookup(ctx, Key(q.Text, q.Tags, q.Page-1))
		if err != nil {
			return nil, err
		}
		if found {
			q.Continuation = prev.Continuation()
			metrics.CacheLookups.WithLabelValues("seeded").Inc()
			c.log.Debugf("seeding page %d from cached page %d: %+v", q.Page, q.Page-1, q.Continuation)
		}
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	page, err := c.searcher.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	if err := c.store.Put(ctx, key, page); err != nil {
		c.log.Warnf("storing page %d for text=%q: %v", q.Page, q.Text, err)
	}
	return page, nil
}

func (c *QueryCache) lookup(ctx context.Context, key string) (*core.CombinedPage, bool, error) {
	exists, err := c.store.Exists(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("%w: checking %s: %w", core.ErrCache, key, err)
	}
	if !exists {
		return nil, false, nil
	}
	page, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		// Removed between Exists and Get.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: reading %s: %w", core.ErrCache, key, err)
	}
	return page, true, nil
}
