package search

import "github.com/rubiojr/reposearch/pkg/core"

// Merge interleaves service and resource matches into one page of at most
// pageSize items. At every index the service item goes first, then the
// resource item. The walk stops once the page is full or neither list has an
// item at the current index.
//
// For each catalog the returned page records where the next output page
// resumes:
//   - if any item was consumed, the cursor is the last consumed item and the
//     page is the upstream page that item came from
//   - otherwise the cursor is cleared and the page advances past the last
//     page the backfill reached
//
// A non-positive pageSize means core.OutputPageSize.
func Merge(services, resources core.MatchResult, pageSize int) core.CombinedPage {
	if pageSize <= 0 {
		pageSize = core.OutputPageSize
	}

	out := core.CombinedPage{Items: make([]core.Item, 0, pageSize)}
	serviceCursor, resourceCursor := 0, 0

	bound := max(len(services.Items), len(resources.Items))
	for i := 0; i < bound && len(out.Items) < pageSize; i++ {
		if i < len(services.Items) {
			out.Items = append(out.Items, services.Items[i])
			serviceCursor = i + 1
			if len(out.Items) == pageSize {
				break
			}
		}
		if i < len(resources.Items) {
			out.Items = append(out.Items, resources.Items[i])
			resourceCursor = i + 1
		}
	}

	out.ServicePage, out.ServiceCursorID = resumeAt(services, serviceCursor)
	out.ResourcePage, out.ResourceCursorID = resumeAt(resources, resourceCursor)
	out.IsLastPage = len(out.Items) < pageSize ||
		(len(services.Items) == 0 && len(resources.Items) == 0)
	return out
}

// resumeAt returns the page and cursor a catalog resumes from after cursor
// of its items were consumed.
func resumeAt(m core.MatchResult, cursor int) (int, string) {
	if cursor == 0 {
		return m.ReachedPage + 1, ""
	}
	return m.PageOf(cursor - 1), m.Items[cursor-1].ID
}
