package search

import (
	"context"

	"github.com/rubiojr/reposearch/pkg/core"
	"github.com/rubiojr/reposearch/pkg/log"
	"github.com/rubiojr/reposearch/pkg/metrics"
)

// BackfillRequest describes one tag backfill over a single catalog.
type BackfillRequest struct {
	// Text is forwarded verbatim to every upstream call.
	Text string
	// StartPage is the upstream page the walk begins at. Values below 1
	// start at page 1.
	StartPage int
	// ResumeID, when set, skips the leading items of the first fetched page
	// up to and including the item with this id.
	ResumeID string
	// Tags must all be present on a returned item.
	Tags core.TagSet
	// Desired is the number of matches after which no further page is
	// fetched.
	Desired int
}

// Backfill pulls upstream pages from src until req.Desired matches of
// req.Tags have accumulated, the catalog runs out of full pages, or
// core.MaxUpstreamFetches calls have been made.
//
// Items without an id are skipped, since the next page could not resume
// after them. Only the first tag is sent upstream. Every candidate is then checked
// locally against the complete tag set, so the result never contains an item
// missing one of the requested tags.
//
// Any upstream error aborts the walk; no partial result is returned.
func Backfill(ctx context.Context, src core.CatalogFetch, req BackfillRequest) (core.MatchResult, error) {
	page := req.StartPage
	if page < 1 {
		page = 1
	}

	logger := log.ForService("search").With("catalog", src.Catalog())
	result := core.MatchResult{ReachedPage: page}

	fetches := 0
	for fetches < core.MaxUpstreamFetches {
		upstream, err := src.Search(ctx, core.Filters{
			Text:    req.Text,
			Tag:     req.Tags.First(),
			Page:    page,
			PerPage: core.UpstreamPageSize,
		})
		if err != nil {
			return core.MatchResult{}, err
		}
		fetches++
		result.ReachedPage = page

		candidates := upstream.Items
		if fetches == 1 && req.ResumeID != "" {
			candidates = skipThrough(candidates, req.ResumeID)
		}

		kept, anonymous := 0, 0
		for _, item := range candidates {
			// An item without an id cannot serve as a resume cursor.
			if item.ID == "" {
				anonymous++
				continue
			}
			if !req.Tags.SatisfiedBy(item.CategoryTags) {
				continue
			}
			result.Items = append(result.Items, item)
			result.Pages = append(result.Pages, page)
			kept++
		}
		if anonymous > 0 {
			logger.Warnf("page %d: dropped %d items without an id", page, anonymous)
		}
		logger.Debugf("page %d: %d upstream, %d candidates, %d kept", page, len(upstream.Items), len(candidates), kept)

		if !upstream.Full() || len(result.Items) >= req.Desired {
			break
		}
		page++
	}

	metrics.BackfillPages.WithLabelValues(src.Catalog().String()).Observe(float64(fetches))
	return result, nil
}

// skipThrough drops items up to and including the one with id. When id is
// not on the page the whole page is kept.
func skipThrough(items []core.Item, id string) []core.Item {
	for i, item := range items {
		if item.ID == id {
			return items[i+1:]
		}
	}
	return items
}
