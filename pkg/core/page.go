package core

// Fixed sizes of the federated search.
const (
	// OutputPageSize is the number of items in one combined output page.
	OutputPageSize = 25
	// UpstreamPageSize is the number of items requested per upstream call.
	// An upstream page is full iff it holds exactly this many items.
	UpstreamPageSize = 100
	// MaxUpstreamFetches caps the upstream calls made per catalog per request.
	MaxUpstreamFetches = 5
)

// ContinuationMeta carries resume state between consecutive output pages.
type ContinuationMeta struct {
	ServicePage      int    `json:"servicePage"`
	ResourcePage     int    `json:"resourcePage"`
	ServiceCursorID  string `json:"serviceCursorId,omitempty"`
	ResourceCursorID string `json:"resourceCursorId,omitempty"`
}

// DefaultContinuation starts both catalogs at page 1 with no cursor.
func DefaultContinuation() ContinuationMeta {
	return ContinuationMeta{ServicePage: 1, ResourcePage: 1}
}

// For returns the page and cursor of one catalog.
func (m ContinuationMeta) For(c Catalog) (page int, cursorID string) {
	if c == ResourceCatalog {
		page, cursorID = m.ResourcePage, m.ResourceCursorID
	} else {
		page, cursorID = m.ServicePage, m.ServiceCursorID
	}
	if page < 1 {
		page = 1
	}
	return page, cursorID
}

// Query is one incoming search request.
type Query struct {
	Text         string
	Tags         TagSet
	Page         int
	Continuation ContinuationMeta
}

// UpstreamPage is the result of one upstream call.
type UpstreamPage struct {
	Items []Item
}

// Full reports whether the catalog may hold more items after this page.
func (p UpstreamPage) Full() bool {
	return len(p.Items) == UpstreamPageSize
}

// MatchResult is the output of a tag backfill over one catalog.
type MatchResult struct {
	// Items all satisfy the requested tag set, in upstream order.
	Items []Item
	// Pages holds the upstream page each item was read from. It is parallel
	// to Items and may be nil, in which case every item is attributed to
	// ReachedPage.
	Pages []int
	// ReachedPage is the last upstream page fetched.
	ReachedPage int
}

// PageOf returns the upstream page the i-th item was read from.
func (m MatchResult) PageOf(i int) int {
	if i >= 0 && i < len(m.Pages) {
		return m.Pages[i]
	}
	return m.ReachedPage
}

// CombinedPage is one merged output page plus the state needed to resume.
type CombinedPage struct {
	Items            []Item `json:"items"`
	ServiceCursorID  string `json:"serviceCursorId,omitempty"`
	ResourceCursorID string `json:"resourceCursorId,omitempty"`
	ServicePage      int    `json:"servicePage"`
	ResourcePage     int    `json:"resourcePage"`
	IsLastPage       bool   `json:"isLastPage"`
}

// Continuation returns the resume state for the next output page.
func (p *CombinedPage) Continuation() ContinuationMeta {
	return ContinuationMeta{
		ServicePage:      p.ServicePage,
		ResourcePage:     p.ResourcePage,
		ServiceCursorID:  p.ServiceCursorID,
		ResourceCursorID: p.ResourceCursorID,
	}
}
