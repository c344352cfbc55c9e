package storage

import (
	"errors"
	"time"
)

// ErrPageNotFound is returned when a title does not resolve to any page
var ErrPageNotFound = errors.New("page not found")

// Page represents a Wikipedia page in the link graph
type Page struct {
	PageID     int
	Title      string
	IsRedirect bool
}

// Link represents a directed link between two pages
type Link struct {
	FromID int
	ToID   int
}

// Redirect maps a redirect page to the page it points at
type Redirect struct {
	SourceID int
	TargetID int
}

// Path is one route between two pages, both endpoints included
type Path []int

// PathSet holds every shortest path found between a source and a target
type PathSet []Path

// Degrees returns the number of links in each path, or -1 when empty
func (ps PathSet) Degrees() int {
	if len(ps) == 0 {
		return -1
	}
	return len(ps[0]) - 1
}

// SearchRecord is the audit entry written once per completed query
type SearchRecord struct {
	SourceID int     `json:"source_id"`
	TargetID int     `json:"target_id"`
	Duration float64 `json:"duration"`
	Paths    PathSet `json:"paths"`
}

// Metrics tracks query statistics for export on exit
type Metrics struct {
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	QueriesServed        int       `json:"queries_served"`
	QueriesFailed        int       `json:"queries_failed"`
	UnknownPages         int       `json:"unknown_pages"`
	PathsReturned        int       `json:"paths_returned"`
	MetadataChunks       int       `json:"metadata_chunks"`
	MetadataChunksFailed int       `json:"metadata_chunks_failed"`
	PagesEnriched        int       `json:"pages_enriched"`
	TotalQueryTimeMs     int64     `json:"total_query_time_ms"`
	AvgQueryTimeMs       int64     `json:"avg_query_time_ms"`
	TerminationReason    string    `json:"termination_reason"`
}
