package query

import (
	"context"

	"github.com/alvmarrod/degrees/internal/storage"
)

// PageInfo is the display metadata for one page
type PageInfo struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Description  string `json:"description,omitempty"`
}

// PagesMap maps page IDs to their metadata
type PagesMap map[int]PageInfo

// Result is the response for one shortest path query
type Result struct {
	Paths storage.PathSet `json:"paths"`
	Pages PagesMap        `json:"pages"`
}

// MetadataFetcher looks up display metadata for a list of page IDs
// Pages it could not describe are left out of the returned map
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, pageIDs []int) (PagesMap, error)
}

// Resolver maps a page title to its page ID
// Returns storage.ErrPageNotFound when the title is unknown
type Resolver interface {
	ResolveTitle(ctx context.Context, title string) (int, error)
}

// Searcher computes every shortest path between two pages
type Searcher interface {
	SearchShortestPaths(ctx context.Context, source, target int) (storage.PathSet, error)
}

// AuditSink persists one record per completed query
type AuditSink interface {
	AppendAuditRecord(ctx context.Context, rec storage.SearchRecord) error
}
