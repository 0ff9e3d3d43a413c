// Package search implements federated, tag-filtered, paginated search over
// the service and resource catalogs.
//
// # Overview
//
// Each catalog can only filter by a single tag on the server side and pages
// through results independently of the other. This package turns those two
// streams into one fixed-size output page that requires every requested tag
// and can be resumed without re-scanning earlier pages.
//
// # Key Features
//
//   - Two-phase tag filtering: one coarse tag upstream, full check locally
//   - Backfilling across upstream pages with a hard fetch budget
//   - Deterministic service-then-resource interleaving
//   - Per-catalog resume cursors carried between output pages
//   - Parameter parsing from HTTP query strings
//
// # Architecture
//
// The package is built from three pieces:
//
//   - Backfill: walks one catalog until enough matches accumulate
//   - Merge: interleaves two match sets and computes resume cursors
//   - Service: runs both backfills concurrently and merges the result
//
// Caching and continuation seeding live in pkg/cache, which wraps a Service.
//
// # Usage Examples
//
// Basic search:
//
//	registry, err := catalog.NewRegistry(cfg)
//	service, err := search.NewServiceFromRegistry(registry)
//	q := core.Query{Text: "food", Tags: core.ParseTags("1,2"), Page: 1}
//	page, err := service.Search(ctx, q)
//
// Resuming with the next page:
//
//	next := core.Query{Text: q.Text, Tags: q.Tags, Page: 2, Continuation: page.Continuation()}
//	page2, err := service.Search(ctx, next)
//
// Parsing HTTP parameters:
//
//	q, err := search.ParseQuery(r.URL.Query())
//	if err != nil {
//		// Handle invalid page number
//		return
//	}
//
// # Search Behavior
//
//   - Upstream pages hold core.UpstreamPageSize items; a shorter page ends
//     the catalog
//   - At most core.MaxUpstreamFetches upstream calls are made per catalog
//   - An upstream failure aborts the whole search; no partial page is returned
//   - Result order is the order the catalogs return; nothing is re-ranked
//
// # Integration
//
// This package integrates with:
//
//   - pkg/core: For the data model and the CatalogFetch capability
//   - pkg/catalog: For the HTTP catalog clients
//   - pkg/cache: As the searcher behind the page cache
package search
