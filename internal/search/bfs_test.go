package search

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/alvmarrod/degrees/internal/memory"
	"github.com/alvmarrod/degrees/internal/storage"
)

func graphWith(t *testing.T, pages []int, links [][2]int) *memory.Graph {
	t.Helper()
	g := memory.NewGraph()
	for _, id := range pages {
		g.UpsertPage(storage.Page{PageID: id, Title: "Page"})
	}
	for _, l := range links {
		if err := g.AddLink(l[0], l[1]); err != nil {
			t.Fatalf("AddLink(%d, %d) failed: %v", l[0], l[1], err)
		}
	}
	return g
}

func TestSearchShortestPaths(t *testing.T) {
	pages := []int{1, 2, 3, 4, 5, 6, 7}
	links := [][2]int{
		{1, 2}, {1, 3}, {2, 4}, {3, 4}, {4, 5},
		{1, 6}, {6, 7}, {7, 5},
		{5, 1},
	}

	tests := []struct {
		name           string
		source, target int
		want           storage.PathSet
	}{
		{"same page", 3, 3, storage.PathSet{{3}}},
		{"direct link", 1, 2, storage.PathSet{{1, 2}}},
		{"two shortest routes", 1, 4, storage.PathSet{{1, 2, 4}, {1, 3, 4}}},
		{"routes meeting on different pages", 1, 5, storage.PathSet{{1, 2, 4, 5}, {1, 3, 4, 5}, {1, 6, 7, 5}}},
		{"back edge", 5, 4, storage.PathSet{{5, 1, 2, 4}, {5, 1, 3, 4}}},
		{"through cycle", 4, 6, storage.PathSet{{4, 5, 1, 6}}},
		{"three degrees", 7, 3, storage.PathSet{{7, 5, 1, 3}}},
	}

	searcher := NewSearcher(graphWith(t, pages, links), 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := searcher.SearchShortestPaths(context.Background(), tt.source, tt.target)
			if err != nil {
				t.Fatalf("SearchShortestPaths failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("SearchShortestPaths(%d, %d) = %v, want %v", tt.source, tt.target, got, tt.want)
			}
		})
	}
}

func TestSearchNoPath(t *testing.T) {
	g := graphWith(t, []int{1, 2, 3}, [][2]int{{1, 2}, {3, 1}})
	got, err := NewSearcher(g, 0).SearchShortestPaths(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("SearchShortestPaths failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil path set, got %#v", got)
	}
}

func TestSearchDepthLimit(t *testing.T) {
	g := graphWith(t, []int{1, 2, 3, 4, 5}, [][2]int{{1, 2}, {2, 3}, {3, 4}, {4, 5}})

	got, err := NewSearcher(g, 3).SearchShortestPaths(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("SearchShortestPaths failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no path within depth 3, got %v", got)
	}

	got, err = NewSearcher(g, 4).SearchShortestPaths(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("SearchShortestPaths failed: %v", err)
	}
	if !reflect.DeepEqual(got, storage.PathSet{{1, 2, 3, 4, 5}}) {
		t.Fatalf("unexpected path within depth 4: %v", got)
	}
}

func TestSearchCanceled(t *testing.T) {
	g := graphWith(t, []int{1, 2}, [][2]int{{1, 2}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSearcher(g, 0).SearchShortestPaths(ctx, 1, 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type failingLinks struct{}

func (failingLinks) OutgoingLinks(context.Context, []int) (map[int][]int, error) {
	return nil, errors.New("database is locked")
}

func (failingLinks) IncomingLinks(context.Context, []int) (map[int][]int, error) {
	return nil, errors.New("database is locked")
}

func TestSearchLinkSourceError(t *testing.T) {
	_, err := NewSearcher(failingLinks{}, 0).SearchShortestPaths(context.Background(), 1, 2)
	if err == nil {
		t.Fatalf("expected link source error to propagate")
	}
}
