package api

import (
	"time"

	"github.com/rubiojr/reposearch/pkg/core"
)

// SearchResponse is the public query contract on success.
type SearchResponse struct {
	Items            []core.Item `json:"items"`
	ServicePage      int         `json:"servicePage"`
	ResourcePage     int         `json:"resourcePage"`
	ServiceCursorID  string      `json:"serviceCursorId,omitempty"`
	ResourceCursorID string      `json:"resourceCursorId,omitempty"`
	IsLastPage       bool        `json:"isLastPage"`
}

// ErrorResponse is the public query contract on failure. It never carries
// items or cursors.
type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

func newSearchResponse(page *core.CombinedPage) SearchResponse {
	items := page.Items
	if items == nil {
		items = []core.Item{}
	}
	return SearchResponse{
		Items:            items,
		ServicePage:      page.ServicePage,
		ResourcePage:     page.ResourcePage,
		ServiceCursorID:  page.ServiceCursorID,
		ResourceCursorID: page.ResourceCursorID,
		IsLastPage:       page.IsLastPage,
	}
}
