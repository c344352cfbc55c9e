package query

import (
	"context"
	"fmt"

	"github.com/alvmarrod/degrees/internal/storage"
)

// Assembler turns raw path data into an enriched Result
type Assembler struct {
	fetcher MetadataFetcher
}

// NewAssembler creates an assembler backed by the given metadata fetcher
func NewAssembler(fetcher MetadataFetcher) *Assembler {
	return &Assembler{fetcher: fetcher}
}

// Assemble attaches page metadata for every page on the given paths
// The paths are returned unchanged. Pages whose metadata could not be
// fetched are missing from Pages; that is not an error
func (a *Assembler) Assemble(ctx context.Context, paths storage.PathSet) (Result, error) {
	if len(paths) == 0 {
		return Result{Paths: storage.PathSet{}, Pages: PagesMap{}}, nil
	}

	pageIDs := UniquePageIDs(paths)

	fetched, err := a.fetcher.FetchMetadata(ctx, pageIDs)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch page metadata: %w", err)
	}

	// Only pages on the paths make it into the result
	pages := make(PagesMap, len(pageIDs))
	for _, id := range pageIDs {
		if info, ok := fetched[id]; ok {
			pages[id] = info
		}
	}

	return Result{Paths: paths, Pages: pages}, nil
}

// UniquePageIDs lists each page appearing on any path once, in first-seen order
func UniquePageIDs(paths storage.PathSet) []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, path := range paths {
		for _, id := range path {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
