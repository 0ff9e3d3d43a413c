package search

import (
	"context"
	"strings"
	"testing"

	"github.com/rubiojr/reposearch/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceSearch(t *testing.T) {
	services := newFakeCatalog(core.ServiceCatalog)
	services.fillPage(1, 100, matchFirst(30, "1", "2"))
	resources := newFakeCatalog(core.ResourceCatalog)
	resources.fillPage(1, 100, matchFirst(30, "1", "2"))

	svc := NewService(services, resources)
	page, err := svc.Search(context.Background(), core.Query{Text: "food", Tags: core.ParseTags("1,2"), Page: 1})
	require.NoError(t, err)

	require.Len(t, page.Items, core.OutputPageSize)
	assert.Equal(t, "service-p1-000", page.Items[0].ID)
	assert.Equal(t, "resource-p1-000", page.Items[1].ID)
	assert.Equal(t, "service-p1-012", page.ServiceCursorID)
	assert.Equal(t, "resource-p1-011", page.ResourceCursorID)
	assert.Equal(t, 1, page.ServicePage)
	assert.Equal(t, 1, page.ResourcePage)
	assert.False(t, page.IsLastPage)

	assert.Len(t, services.Calls(), 1)
	assert.Len(t, resources.Calls(), 1)
}

func TestServiceSearchUsesContinuation(t *testing.T) {
	services := newFakeCatalog(core.ServiceCatalog)
	services.fillPage(4, 100, matchFirst(100, "t"))
	resources := newFakeCatalog(core.ResourceCatalog)
	resources.fillPage(2, 10, matchFirst(10, "t"))

	svc := NewService(services, resources)
	page, err := svc.Search(context.Background(), core.Query{
		Tags: core.ParseTags("t"),
		Page: 7,
		Continuation: core.ContinuationMeta{
			ServicePage:      4,
			ServiceCursorID:  "service-p4-049",
			ResourcePage:     2,
			ResourceCursorID: "resource-p2-007",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, services.Calls()[0].Page)
	assert.Equal(t, 2, resources.Calls()[0].Page)
	assert.Equal(t, []string{
		"service-p4-050", "resource-p2-008",
		"service-p4-051", "resource-p2-009",
		"service-p4-052", "service-p4-053",
	}, ids(page.Items[:6]))
}

func TestServiceSearchFormatter(t *testing.T) {
	services := newFakeCatalog(core.ServiceCatalog)
	services.fillPage(1, 3, matchFirst(3, "t"))
	resources := newFakeCatalog(core.ResourceCatalog)
	resources.fillPage(1, 3, matchFirst(3, "t"))

	upper := core.FormatterFunc(func(item core.Item) core.Item {
		item.Fields = map[string]any{"label": strings.ToUpper(item.ID)}
		return item
	})
	svc := NewService(services, resources, WithFormatter(upper))
	page, err := svc.Search(context.Background(), core.Query{Tags: core.ParseTags("t"), Page: 1})
	require.NoError(t, err)

	require.Len(t, page.Items, 6)
	for _, item := range page.Items {
		assert.Equal(t, strings.ToUpper(item.ID), item.Fields["label"])
	}
	assert.Equal(t, "service-p1-000", page.Items[0].ID)
	assert.True(t, page.IsLastPage)
}

func TestServiceSearchAbortsOnUpstreamError(t *testing.T) {
	services := newFakeCatalog(core.ServiceCatalog)
	services.fillPage(1, 100, matchFirst(100, "t"))
	resources := newFakeCatalog(core.ResourceCatalog)
	resources.err = &core.UpstreamRequestError{Catalog: core.ResourceCatalog, StatusCode: 500}

	svc := NewService(services, resources)
	page, err := svc.Search(context.Background(), core.Query{Tags: core.ParseTags("t"), Page: 1})
	require.ErrorIs(t, err, core.ErrUpstreamRequest)
	assert.Nil(t, page)
}

func TestServiceSearchMissingCatalog(t *testing.T) {
	svc := NewService(nil, newFakeCatalog(core.ResourceCatalog))
	_, err := svc.Search(context.Background(), core.Query{Page: 1})
	require.ErrorIs(t, err, core.ErrConfiguration)
}

// Walking output pages with the returned continuation visits every match of
// each catalog exactly once and in upstream order.
func TestServiceSearchPagesAreContiguous(t *testing.T) {
	services := newFakeCatalog(core.ServiceCatalog)
	resources := newFakeCatalog(core.ResourceCatalog)
	for p := 1; p <= 3; p++ {
		services.fillPage(p, 100, matchEvery(3, "a", "b"))
		resources.fillPage(p, 100, matchEvery(7, "a", "b"))
	}
	services.fillPage(4, 20, matchEvery(3, "a", "b"))
	resources.fillPage(4, 20, matchEvery(7, "a", "b"))

	var wantServices, wantResources []string
	for p := 1; p <= 4; p++ {
		for _, item := range services.pages[p] {
			if core.ParseTags("a,b").SatisfiedBy(item.CategoryTags) {
				wantServices = append(wantServices, item.ID)
			}
		}
		for _, item := range resources.pages[p] {
			if core.ParseTags("a,b").SatisfiedBy(item.CategoryTags) {
				wantResources = append(wantResources, item.ID)
			}
		}
	}

	svc := NewService(services, resources)
	q := core.Query{Text: "x", Tags: core.ParseTags("a,b"), Page: 1, Continuation: core.DefaultContinuation()}

	var gotServices, gotResources []string
	for q.Page <= 20 {
		page, err := svc.Search(context.Background(), q)
		require.NoError(t, err)
		for _, item := range page.Items {
			if item.Catalog == core.ServiceCatalog {
				gotServices = append(gotServices, item.ID)
			} else {
				gotResources = append(gotResources, item.ID)
			}
		}
		if page.IsLastPage {
			break
		}
		q = core.Query{Text: q.Text, Tags: q.Tags, Page: q.Page + 1, Continuation: page.Continuation()}
	}

	assert.Equal(t, wantServices, gotServices)
	assert.Equal(t, wantResources, gotResources)
}

func TestServiceSearchSkipsItemsWithoutID(t *testing.T) {
	services := newFakeCatalog(core.ServiceCatalog)
	services.fillPage(1, 60, matchFirst(60, "t"))
	for i := range services.pages[1] {
		if i%2 == 0 {
			services.pages[1][i].ID = ""
		}
	}
	resources := newFakeCatalog(core.ResourceCatalog)

	svc := NewService(services, resources)
	q := core.Query{Tags: core.ParseTags("t"), Page: 1, Continuation: core.DefaultContinuation()}

	first, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, first.Items, core.OutputPageSize)
	assert.Equal(t, "service-p1-001", first.Items[0].ID)
	assert.Equal(t, "service-p1-049", first.ServiceCursorID)

	q = core.Query{Tags: q.Tags, Page: 2, Continuation: first.Continuation()}
	second, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"service-p1-051", "service-p1-053", "service-p1-055", "service-p1-057", "service-p1-059",
	}, ids(second.Items))
	assert.True(t, second.IsLastPage)
}

func TestServiceSearchDesiredCount(t *testing.T) {
	newCatalogs := func() (*fakeCatalog, *fakeCatalog) {
		services := newFakeCatalog(core.ServiceCatalog)
		resources := newFakeCatalog(core.ResourceCatalog)
		for p := 1; p <= 3; p++ {
			services.fillPage(p, 100, matchFirst(30, "t"))
			resources.fillPage(p, 100, matchFirst(30, "t"))
		}
		return services, resources
	}
	q := core.Query{Tags: core.ParseTags("t"), Page: 1, Continuation: core.DefaultContinuation()}

	services, resources := newCatalogs()
	_, err := NewService(services, resources).Search(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, services.Calls(), 1, "30 matches on page 1 satisfy the default")

	services, resources = newCatalogs()
	_, err = NewService(services, resources, WithDesiredCount(70)).Search(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, services.Calls(), 3)
	assert.Len(t, resources.Calls(), 3)

	services, resources = newCatalogs()
	_, err = NewService(services, resources, WithDesiredCount(0)).Search(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, services.Calls(), 1, "non-positive counts keep the default")
}
