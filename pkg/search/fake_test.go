package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/rubiojr/reposearch/pkg/core"
)

// fakeCatalog serves fixed pages and records every call.
type fakeCatalog struct {
	kind  core.Catalog
	pages map[int][]core.Item
	err   error

	mu    sync.Mutex
	calls []core.Filters
}

func newFakeCatalog(kind core.Catalog) *fakeCatalog {
	return &fakeCatalog{kind: kind, pages: make(map[int][]core.Item)}
}

func (f *fakeCatalog) Catalog() core.Catalog {
	return f.kind
}

func (f *fakeCatalog) Search(ctx context.Context, filters core.Filters) (core.UpstreamPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, filters)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return core.UpstreamPage{}, err
	}
	if f.err != nil {
		return core.UpstreamPage{}, f.err
	}
	return core.UpstreamPage{Items: f.pages[filters.Page]}, nil
}

func (f *fakeCatalog) Calls() []core.Filters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Filters(nil), f.calls...)
}

// fillPage stores a page of n items. tagsFor decides the tags of the i-th
// item on the page.
func (f *fakeCatalog) fillPage(page, n int, tagsFor func(i int) []string) {
	items := make([]core.Item, n)
	for i := range items {
		items[i] = core.Item{
			ID:           fmt.Sprintf("%s-p%d-%03d", f.kind, page, i),
			CategoryTags: tagsFor(i),
			Catalog:      f.kind,
		}
	}
	f.pages[page] = items
}

// matchEvery tags every n-th item with tags and the rest with only the
// first one.
func matchEvery(n int, tags ...string) func(int) []string {
	return func(i int) []string {
		if i%n == 0 {
			return tags
		}
		return tags[:1]
	}
}

// matchFirst tags the first n items of a page with tags.
func matchFirst(n int, tags ...string) func(int) []string {
	return func(i int) []string {
		if i < n {
			return tags
		}
		return []string{"other"}
	}
}

func matchResult(kind core.Catalog, n, reached int) core.MatchResult {
	m := core.MatchResult{ReachedPage: reached}
	for i := 0; i < n; i++ {
		m.Items = append(m.Items, core.Item{ID: fmt.Sprintf("%s-%d", kind, i), Catalog: kind})
	}
	return m
}

func ids(items []core.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
