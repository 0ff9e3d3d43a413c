package core

import (
	"context"
	"fmt"
)

// Catalog identifies one of the two independent upstream item collections.
type Catalog int

const (
	// ServiceCatalog is the "services" collection.
	ServiceCatalog Catalog = iota + 1
	// ResourceCatalog is the "resources" collection.
	ResourceCatalog
)

// Catalogs lists every known catalog in merge order.
var Catalogs = []Catalog{ServiceCatalog, ResourceCatalog}

func (c Catalog) String() string {
	switch c {
	case ServiceCatalog:
		return "service"
	case ResourceCatalog:
		return "resource"
	default:
		return "unknown"
	}
}

// ServicePoint returns the configuration key naming the search endpoint of
// this catalog.
func (c Catalog) ServicePoint() string {
	return c.String() + "Search"
}

func (c Catalog) MarshalText() ([]byte, error) {
	if c != ServiceCatalog && c != ResourceCatalog {
		return nil, fmt.Errorf("unknown catalog %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Catalog) UnmarshalText(text []byte) error {
	switch string(text) {
	case "service":
		*c = ServiceCatalog
	case "resource":
		*c = ResourceCatalog
	default:
		return fmt.Errorf("unknown catalog %q", string(text))
	}
	return nil
}

// Filters are the parameters of a single upstream catalog query.
type Filters struct {
	// Text is the free text search term.
	Text string
	// Tag is the single coarse server-side tag filter. Empty means no filter.
	Tag string
	// Page is the 1-based upstream page number.
	Page int
	// PerPage is the requested page size, UpstreamPageSize in practice.
	PerPage int
}

// CatalogFetch performs one paginated, singly-tag-filterable query against
// one catalog.
//
// Implementations must:
//   - return an error for transport failures and non-success statuses
//     (wrapped in *UpstreamRequestError)
//   - return an empty UpstreamPage, not an error, when the response body
//     cannot be parsed
//   - be safe for concurrent use
//
// Example:
//
//	page, err := fetch.Search(ctx, core.Filters{Text: "food", Tag: "1", Page: 1, PerPage: 100})
type CatalogFetch interface {
	// Catalog reports which catalog this capability queries.
	Catalog() Catalog

	// Search runs one upstream query.
	Search(ctx context.Context, filters Filters) (UpstreamPage, error)
}
