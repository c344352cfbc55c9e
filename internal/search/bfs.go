package search

import (
	"context"
	"fmt"
	"slices"

	"github.com/alvmarrod/degrees/internal/storage"
	"github.com/sirupsen/logrus"
)

// LinkSource provides adjacency of the page link graph
type LinkSource interface {
	OutgoingLinks(ctx context.Context, pageIDs []int) (map[int][]int, error)
	IncomingLinks(ctx context.Context, pageIDs []int) (map[int][]int, error)
}

// Searcher finds all shortest paths with a bidirectional breadth-first search
type Searcher struct {
	links    LinkSource
	maxDepth int
}

// NewSearcher creates a searcher; maxDepth <= 0 means unbounded
func NewSearcher(links LinkSource, maxDepth int) *Searcher {
	return &Searcher{links: links, maxDepth: maxDepth}
}

// SearchShortestPaths returns every shortest path from source to target
// An empty PathSet means target is unreachable
func (s *Searcher) SearchShortestPaths(ctx context.Context, source, target int) (storage.PathSet, error) {
	if source == target {
		return storage.PathSet{{source}}, nil
	}

	forward := newFrontier(source)
	backward := newFrontier(target)

	for len(forward.current) > 0 && len(backward.current) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.maxDepth > 0 && forward.depth+backward.depth >= s.maxDepth {
			logrus.Debugf("Search %d -> %d stopped at depth limit %d", source, target, s.maxDepth)
			break
		}

		// Expand the cheaper side
		var (
			reached []int
			other   *frontier
		)
		if len(forward.current) <= len(backward.current) {
			adjacency, err := s.links.OutgoingLinks(ctx, forward.current)
			if err != nil {
				return nil, fmt.Errorf("failed to load outgoing links: %w", err)
			}
			reached = forward.advance(adjacency)
			other = backward
		} else {
			adjacency, err := s.links.IncomingLinks(ctx, backward.current)
			if err != nil {
				return nil, fmt.Errorf("failed to load incoming links: %w", err)
			}
			reached = backward.advance(adjacency)
			other = forward
		}

		var meeting []int
		for _, page := range reached {
			if other.visited(page) {
				meeting = append(meeting, page)
			}
		}
		if len(meeting) > 0 {
			paths := joinRoutes(forward, backward, meeting)
			logrus.Debugf("Search %d -> %d found %d paths of %d degrees", source, target, len(paths), paths.Degrees())
			return paths, nil
		}
	}

	return storage.PathSet{}, nil
}

// joinRoutes stitches forward and backward routes through each meeting page
func joinRoutes(forward, backward *frontier, meeting []int) storage.PathSet {
	var paths storage.PathSet
	for _, page := range meeting {
		heads := forward.routes(page)
		tails := backward.routes(page)
		for _, head := range heads {
			slices.Reverse(head)
			for _, tail := range tails {
				path := make(storage.Path, 0, len(head)+len(tail)-1)
				path = append(path, head...)
				path = append(path, tail[1:]...)
				paths = append(paths, path)
			}
		}
	}

	slices.SortFunc(paths, func(a, b storage.Path) int {
		return slices.Compare(a, b)
	})
	return paths
}
